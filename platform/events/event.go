// Package events is the in-process publish/subscribe layer modules use to
// learn about pool reloads and finished snapshot exports without importing
// each other. This is part of the platform layer and contains no business logic.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is implemented by every published value.
type Event interface {
	// EventName is the subscription key, e.g. "entities.pool.changed".
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent carries the identity and time of an occurrence. Embed it.
type BaseEvent struct {
	ID        uuid.UUID `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a fresh id and the current UTC time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{ID: uuid.New(), Timestamp: time.Now().UTC()}
}

// Handler reacts to one event.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, event Event) error

func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus routes events to the handlers subscribed to their name.
type Bus interface {
	// Publish delivers asynchronously; handler errors are only logged.
	Publish(ctx context.Context, event Event)
	// PublishSync delivers in subscription order and returns the joined errors.
	PublishSync(ctx context.Context, event Event) error
	Subscribe(eventName string, handler Handler)
}
