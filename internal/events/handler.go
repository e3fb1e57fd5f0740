// internal/events/handler.go
package events

import (
	"context"
	"fmt"
)

// Handler processes events of a specific type.
type Handler interface {
	// Handle processes an event. Should not block for long: the bus delivers
	// queued events one at a time.
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc is an adapter to allow the use of ordinary functions as event handlers.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls f(ctx, event).
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// On adapts a function over a concrete event type. Events of any other
// type are reported as an error.
func On[T Event](fn func(ctx context.Context, event T) error) Handler {
	return HandlerFunc(func(ctx context.Context, event Event) error {
		typed, ok := event.(T)
		if !ok {
			return fmt.Errorf("unexpected event %T for %s", event, event.Type())
		}
		return fn(ctx, typed)
	})
}

// Subscription represents a subscription to events.
type Subscription interface {
	// Unsubscribe removes the subscription.
	Unsubscribe()
}

type subscription struct {
	id       string
	eventBus *Bus
	typ      EventType
}

// Unsubscribe removes this subscription from the event bus.
func (s *subscription) Unsubscribe() {
	s.eventBus.unsubscribe(s.id, s.typ)
}
