package scheduler

import (
	"context"
	"errors"
	"testing"

	"dojoflow_backend/internal/events"
	"dojoflow_backend/platform/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

func TestTourReminderTaskPublishesEvent(t *testing.T) {
	bus := events.NewInMemoryBus(logger.Nop())
	var got events.TourReminderDue
	bus.Subscribe(events.TourReminderDue{}.EventName(), events.HandlerFunc(func(_ context.Context, e events.Event) error {
		got = e.(events.TourReminderDue)
		return nil
	}))

	tourID, franchiseID := uuid.New(), uuid.New()
	task, err := NewTourReminderTask(TourReminderPayload{TourID: tourID.String(), FranchiseID: franchiseID.String()})
	if err != nil {
		t.Fatalf("new task: %v", err)
	}

	if err := newMux(bus).ProcessTask(context.Background(), task); err != nil {
		t.Fatalf("process: %v", err)
	}
	if got.TourID != tourID || got.FranchiseID != franchiseID {
		t.Fatalf("unexpected event %+v", got)
	}
}

func TestTourReminderTaskPropagatesHandlerError(t *testing.T) {
	bus := events.NewInMemoryBus(logger.Nop())
	bus.Subscribe(events.TourReminderDue{}.EventName(), events.HandlerFunc(func(context.Context, events.Event) error {
		return errors.New("smtp down")
	}))

	task, _ := NewTourReminderTask(TourReminderPayload{TourID: uuid.NewString(), FranchiseID: uuid.NewString()})
	err := newMux(bus).ProcessTask(context.Background(), task)
	if err == nil || errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected retryable error, got %v", err)
	}
}

func TestMalformedReminderPayloadSkipsRetry(t *testing.T) {
	task := asynq.NewTask(TaskTourReminder, []byte(`{"tourId":"nope"}`))
	err := newMux(nil).ProcessTask(context.Background(), task)
	if !errors.Is(err, asynq.SkipRetry) {
		t.Fatalf("expected SkipRetry, got %v", err)
	}
}
