package events

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"dojoflow_backend/platform/logger"

	"github.com/google/uuid"
)

type pingEvent struct {
	BaseEvent
	franchiseID uuid.UUID
}

func (pingEvent) EventName() string      { return "test.ping" }
func (e pingEvent) Franchise() uuid.UUID { return e.franchiseID }

type pongEvent struct {
	BaseEvent
}

func (pongEvent) EventName() string    { return "test.pong" }
func (pongEvent) Franchise() uuid.UUID { return uuid.Nil }

func TestPublishSyncRunsHandlersInOrder(t *testing.T) {
	bus := NewInMemoryBus(logger.Nop())
	var order []int
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		order = append(order, 1)
		return nil
	}))
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		order = append(order, 2)
		return errors.New("boom")
	}))
	bus.Subscribe("test.other", HandlerFunc(func(context.Context, Event) error {
		order = append(order, 99)
		return nil
	}))

	err := bus.PublishSync(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
	if err == nil {
		t.Fatal("expected handler error to be returned")
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("unexpected handler order %v", order)
	}
}

func TestPublishRecoversFromPanics(t *testing.T) {
	bus := NewInMemoryBus(logger.Nop())
	var calls atomic.Int32
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		panic("handler exploded")
	}))
	bus.Subscribe("test.ping", HandlerFunc(func(context.Context, Event) error {
		calls.Add(1)
		return nil
	}))

	bus.Publish(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
	bus.Wait()

	if calls.Load() != 1 {
		t.Fatalf("expected surviving handler to run once, got %d", calls.Load())
	}
}

func TestPublishDetachesCancellation(t *testing.T) {
	bus := NewInMemoryBus(logger.Nop())
	var sawCancelled atomic.Bool
	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, _ Event) error {
		if ctx.Err() != nil {
			sawCancelled.Store(true)
		}
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bus.Publish(ctx, pingEvent{BaseEvent: NewBaseEvent()})
	bus.Wait()

	if sawCancelled.Load() {
		t.Fatal("handler should not observe the publisher's cancellation")
	}
}

func TestBaseEventsAreDistinct(t *testing.T) {
	a, b := NewBaseEvent(), NewBaseEvent()
	if a.EventID() == uuid.Nil || a.EventID() == b.EventID() {
		t.Fatalf("expected distinct ids, got %s and %s", a.EventID(), b.EventID())
	}
	if a.OccurredAt().IsZero() {
		t.Fatal("expected a timestamp")
	}
}

func TestSubscribeAllUsesSampleNames(t *testing.T) {
	bus := NewInMemoryBus(logger.Nop())
	var seen []string
	SubscribeAll(bus, HandlerFunc(func(_ context.Context, e Event) error {
		seen = append(seen, e.EventName())
		return nil
	}), pingEvent{}, pongEvent{})

	_ = bus.PublishSync(context.Background(), pongEvent{BaseEvent: NewBaseEvent()})
	_ = bus.PublishSync(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})

	if len(seen) != 2 || seen[0] != "test.pong" || seen[1] != "test.ping" {
		t.Fatalf("unexpected deliveries %v", seen)
	}
}

func TestLogAttrsIdentifyEvent(t *testing.T) {
	franchiseID := uuid.New()
	e := pingEvent{BaseEvent: NewBaseEvent(), franchiseID: franchiseID}

	attrs := LogAttrs(e)
	want := []any{"event", "test.ping", "eventId", e.ID, "franchiseId", franchiseID}
	if len(attrs) != len(want) {
		t.Fatalf("got %v", attrs)
	}
	for i := range want {
		if attrs[i] != want[i] {
			t.Fatalf("attr %d: got %v, want %v", i, attrs[i], want[i])
		}
	}
}
