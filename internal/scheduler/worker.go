package scheduler

import (
	"context"
	"fmt"

	"dojoflow_backend/internal/events"
	"dojoflow_backend/platform/config"
	"dojoflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	bus    events.Bus
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, bus events.Bus, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queueName(cfg): 1,
		},
	})

	w := &Worker{
		server: server,
		mux:    newMux(bus),
		bus:    bus,
		log:    log,
	}
	return w, nil
}

func newMux(bus events.Bus) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.Handle(TaskTourReminder, tourReminderHandler{bus: bus})
	return mux
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("scheduler worker stopped", "error", err)
	}
}

type tourReminderHandler struct {
	bus events.Bus
}

// ProcessTask publishes TourReminderDue synchronously so delivery failures
// surface as task errors and asynq retries them.
func (h tourReminderHandler) ProcessTask(ctx context.Context, task *asynq.Task) error {
	payload, err := ParseTourReminderPayload(task)
	if err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	tourID, err := uuid.Parse(payload.TourID)
	if err != nil {
		return fmt.Errorf("tour id: %v: %w", err, asynq.SkipRetry)
	}
	franchiseID, err := uuid.Parse(payload.FranchiseID)
	if err != nil {
		return fmt.Errorf("franchise id: %v: %w", err, asynq.SkipRetry)
	}

	if h.bus == nil {
		return nil
	}
	return h.bus.PublishSync(ctx, events.TourReminderDue{
		BaseEvent:   events.NewBaseEvent(),
		TourID:      tourID,
		FranchiseID: franchiseID,
	})
}
