// Package events provides the in-process event bus the modules use to talk
// to each other without importing one another.
// This is part of the platform layer and contains no business logic.
package events

import (
	"context"
	"time"
)

// Event is implemented by every domain event.
type Event interface {
	// EventName returns the unique identifier handlers subscribe on.
	EventName() string
	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time
}

// BaseEvent carries the fields shared by all events. Embed it and implement
// EventName on the concrete type.
type BaseEvent struct {
	Timestamp time.Time `json:"timestamp"`
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// NewBaseEvent stamps a base event with the current time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{Timestamp: time.Now()}
}

// Handler processes events of a single type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc adapts a plain function into a Handler.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls the underlying function.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus publishes domain events to subscribed handlers.
type Bus interface {
	// Publish dispatches the event to its handlers asynchronously.
	Publish(ctx context.Context, event Event)

	// PublishSync dispatches the event and waits for every handler.
	PublishSync(ctx context.Context, event Event) error

	// Subscribe registers a handler for the named event type. The name must
	// match the concrete event's EventName.
	Subscribe(eventName string, handler Handler)
}
