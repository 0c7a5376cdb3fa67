package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dojoflow_backend/internal/adapters"
	"dojoflow_backend/internal/automations"
	"dojoflow_backend/internal/automations/dedupe"
	"dojoflow_backend/internal/email"
	"dojoflow_backend/internal/events"
	"dojoflow_backend/internal/franchises"
	apphttp "dojoflow_backend/internal/http"
	"dojoflow_backend/internal/http/router"
	"dojoflow_backend/internal/leads"
	leadsrepo "dojoflow_backend/internal/leads/repository"
	"dojoflow_backend/internal/notification"
	"dojoflow_backend/internal/notification/sse"
	"dojoflow_backend/internal/scheduler"
	"dojoflow_backend/internal/sms"
	"dojoflow_backend/internal/students"
	"dojoflow_backend/internal/tasks"
	"dojoflow_backend/internal/tours"
	tourservice "dojoflow_backend/internal/tours/service"
	"dojoflow_backend/migrations"
	"dojoflow_backend/platform/config"
	"dojoflow_backend/platform/db"
	"dojoflow_backend/platform/logger"
	"dojoflow_backend/platform/metrics"
	"dojoflow_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	if err := withRetry(ctx, log, "database migrations", 5, 2*time.Second, func() error {
		return db.RunMigrations(ctx, cfg, migrations.FS)
	}); err != nil {
		log.Error("failed to run database migrations", "error", err)
		panic("failed to run database migrations: " + err.Error())
	}
	log.Info("database migrations complete")

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
	log.Info("database connection established")

	metrics.Register()

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	reminderScheduler, closeScheduler := initReminderScheduler(cfg, log)
	if closeScheduler != nil {
		defer closeScheduler()
	}

	emailSender := email.New(cfg, email.NewNoopSender(log))
	smsSender, err := sms.New(ctx, cfg, log)
	if err != nil {
		log.Error("failed to initialize sms sender", "error", err)
		panic("failed to initialize sms sender: " + err.Error())
	}

	// Shared validator instance for dependency injection
	val := validator.New()

	defaultLocation := loadDefaultLocation(cfg.GetDefaultTimezone(), log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	franchisesModule := franchises.NewModule(pool, val, log)
	tasksModule := tasks.NewModule(pool, eventBus, val, log)

	// The engine reads lead snapshots straight from the leads repository so
	// it can be built before the lifecycle that calls it.
	automationsModule := automations.NewModule(
		pool,
		adapters.NewAutomationLeadReader(leadsrepo.New(pool)),
		adapters.NewAutomationTaskCreator(tasksModule.Service()),
		eventBus, val, log,
	)
	franchisesModule.Service().SetDefaultsInstaller(automationsModule.Service())
	closeGuard := initDedupeGuard(cfg, automationsModule, log)
	if closeGuard != nil {
		defer closeGuard()
	}

	leadsModule := leads.NewModule(
		pool,
		adapters.NewLifecycleTaskWriter(tasksModule.Service()),
		adapters.NewLifecycleAutomationRunner(automationsModule.Engine()),
		eventBus, val, cfg.GetPhoneRegion(), log,
	)

	toursModule := tours.NewModule(pool, tours.Dependencies{
		Franchises:  adapters.NewTourFranchiseReader(franchisesModule.Service()),
		Leads:       adapters.NewTourLeadGateway(leadsModule.Lifecycle(), leadsModule.Repository()),
		Tasks:       adapters.NewTourTaskCreator(tasksModule.Service()),
		Automations: adapters.NewTourAutomationRunner(automationsModule.Engine()),
	}, eventBus, tourservice.Options{
		DefaultLocation: defaultLocation,
		AppBaseURL:      cfg.GetAppBaseURL(),
	}, val, log)

	studentsModule := students.NewModule(pool, eventBus, val, log)

	// Notification module subscribes to domain events and serves the SSE stream
	hub := sse.New(log)
	reminderReader := adapters.NewTourReminderReader(toursModule.Repository(), toursModule.Service().CheckInURL, defaultLocation, log)
	notificationModule := notification.New(emailSender, smsSender, hub, reminderReader, notification.Options{
		ReminderLead: cfg.GetTourReminderLead(),
		PhoneRegion:  cfg.GetPhoneRegion(),
	}, val, log)
	if reminderScheduler != nil {
		notificationModule.SetReminderScheduler(reminderScheduler)
	}
	notificationModule.RegisterHandlers(eventBus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:     cfg,
		Logger:     log,
		Health:     db.NewPoolAdapter(pool),
		EventBus:   eventBus,
		Franchises: franchisesModule.Resolver(),
		Modules: []apphttp.Module{
			franchisesModule,
			leadsModule,
			tasksModule,
			toursModule,
			studentsModule,
			automationsModule,
			notificationModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutdown signal received, gracefully shutting down")
		// SSE streams never finish on their own.
		hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server error", "error", err)
		panic("server error: " + err.Error())
	}
	eventBus.Wait()
}

// initReminderScheduler returns nil when Redis is not configured, which
// disables tour reminders.
func initReminderScheduler(cfg config.SchedulerConfig, log *logger.Logger) (*scheduler.Client, func()) {
	if cfg.GetRedisURL() == "" {
		log.Warn("REDIS_URL not configured; tour reminders disabled")
		return nil, nil
	}

	reminderClient, err := scheduler.NewClient(cfg)
	if err != nil {
		log.Error("failed to initialize reminder scheduler client", "error", err)
		return nil, nil
	}

	return reminderClient, func() {
		_ = reminderClient.Close()
	}
}

type dedupeConfig interface {
	config.SchedulerConfig
	config.AutomationConfig
}

func initDedupeGuard(cfg dedupeConfig, module *automations.Module, log *logger.Logger) func() {
	window := cfg.GetAutomationDedupeWindow()
	if window <= 0 || cfg.GetRedisURL() == "" {
		return nil
	}

	client, err := dedupe.NewClient(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		log.Error("failed to initialize automation dedupe client", "error", err)
		return nil
	}
	module.Engine().SetGuard(dedupe.New(client, window))
	log.Info("automation dedupe enabled", "window", window)
	return func() {
		_ = client.Close()
	}
}

func loadDefaultLocation(name string, log *logger.Logger) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		log.Warn("unknown default timezone, using UTC", "timezone", name, "error", err)
		return time.UTC
	}
	return loc
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
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
