// Package events is the in-process event layer. Every event belongs to one
// franchise and carries its own id so handlers and logs can correlate the
// side effects of a single lead, task or tour change.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is a fact about one franchise, published after the write it
// describes has committed.
type Event interface {
	// EventName is the subscription key, e.g. "tours.tour.booked".
	EventName() string
	EventID() uuid.UUID
	OccurredAt() time.Time
	// Franchise is the tenant the event belongs to.
	Franchise() uuid.UUID
}

// BaseEvent is embedded by concrete events. They add EventName and Franchise.
type BaseEvent struct {
	ID        uuid.UUID `json:"eventId"`
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) EventID() uuid.UUID    { return e.ID }
func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent stamps a fresh id and the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{ID: uuid.New(), Timestamp: time.Now()}
}

// Handler reacts to published events.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus routes events to handlers by EventName.
type Bus interface {
	// Publish hands the event to its handlers without waiting.
	Publish(ctx context.Context, event Event)
	// PublishSync waits for every handler and joins their errors.
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}

// SubscribeAll registers handler for the name of each sample event.
func SubscribeAll(bus Bus, handler Handler, samples ...Event) {
	for _, e := range samples {
		bus.Subscribe(e.EventName(), handler)
	}
}

// LogAttrs returns the key/value pairs that identify event in log lines.
func LogAttrs(event Event) []any {
	return []any{
		"event", event.EventName(),
		"eventId", event.EventID(),
		"franchiseId", event.Franchise(),
	}
}
