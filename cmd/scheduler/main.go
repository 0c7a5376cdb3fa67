package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dojoflow_backend/internal/adapters"
	"dojoflow_backend/internal/email"
	"dojoflow_backend/internal/events"
	"dojoflow_backend/internal/notification"
	"dojoflow_backend/internal/notification/sse"
	"dojoflow_backend/internal/scheduler"
	"dojoflow_backend/internal/sms"
	tourrepo "dojoflow_backend/internal/tours/repository"
	tourservice "dojoflow_backend/internal/tours/service"
	"dojoflow_backend/platform/config"
	"dojoflow_backend/platform/db"
	"dojoflow_backend/platform/logger"
	"dojoflow_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	smsSender, err := sms.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize sms sender", "error", err)
		panic("failed to initialize sms sender: " + err.Error())
	}

	fallback := time.UTC
	if loc, err := time.LoadLocation(cfg.GetDefaultTimezone()); err == nil {
		fallback = loc
	}
	baseURL := cfg.GetAppBaseURL()
	reminderReader := adapters.NewTourReminderReader(tourrepo.New(pool), func(slug string, tourID uuid.UUID) string {
		return tourservice.CheckInURL(baseURL, slug, tourID)
	}, fallback, log)

	// The worker process has no dashboard clients; the hub only satisfies
	// the module's revalidation handlers.
	notificationModule := notification.New(
		email.New(cfg, email.NewNoopSender(log)),
		smsSender,
		sse.New(log),
		reminderReader,
		notification.Options{ReminderLead: cfg.GetTourReminderLead(), PhoneRegion: cfg.GetPhoneRegion()},
		validator.New(),
		log,
	)
	notificationModule.RegisterHandlers(eventBus)

	worker, err := scheduler.NewWorker(cfg, eventBus, log)
	if err != nil {
		log.Error("failed to initialize scheduler worker", "error", err)
		panic("failed to initialize scheduler worker: " + err.Error())
	}

	worker.Run(ctx)
	eventBus.Wait()
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return errors.New(name + ": invalid retry attempts")
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return errors.New(name + ": " + lastErr.Error())
}
