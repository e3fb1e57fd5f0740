// internal/events/bus.go
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrBusClosed = errors.New("event bus is shutting down")
	ErrBusFull   = errors.New("event channel full")
)

// Publisher is the fire-and-forget side of the bus.
type Publisher interface {
	Publish(event Event) error
}

// Bus is an in-memory event bus implementation.
type Bus struct {
	mu         sync.RWMutex
	handlers   map[EventType]map[string]Handler
	logger     *zap.Logger
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
	eventChan  chan Event
	bufferSize int

	published atomic.Uint64
	dropped   atomic.Uint64
	failed    atomic.Uint64
}

// NewBus creates a new event bus.
func NewBus(logger *zap.Logger, bufferSize int) *Bus {
	if bufferSize <= 0 {
		bufferSize = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	bus := &Bus{
		handlers:   make(map[EventType]map[string]Handler),
		logger:     logger.Named("event_bus"),
		ctx:        ctx,
		cancel:     cancel,
		eventChan:  make(chan Event, bufferSize),
		bufferSize: bufferSize,
	}

	bus.wg.Add(1)
	go bus.processEvents()

	return bus
}

// Subscribe registers a handler for a specific event type.
func (b *Bus) Subscribe(eventType EventType, handler Handler) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := uuid.New().String()

	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[string]Handler)
	}
	b.handlers[eventType][id] = handler

	b.logger.Debug("Handler subscribed",
		zap.String("event_type", string(eventType)),
		zap.String("subscription_id", id))

	return &subscription{
		id:       id,
		eventBus: b,
		typ:      eventType,
	}
}

// SubscribeFunc is a convenience method for subscribing with a function.
func (b *Bus) SubscribeFunc(eventType EventType, fn func(context.Context, Event) error) Subscription {
	return b.Subscribe(eventType, HandlerFunc(fn))
}

// Publish queues an event for asynchronous delivery. It never blocks.
func (b *Bus) Publish(event Event) error {
	select {
	case <-b.ctx.Done():
		return ErrBusClosed
	default:
	}

	select {
	case b.eventChan <- event:
		b.published.Add(1)
		return nil
	default:
		b.dropped.Add(1)
		b.logger.Warn("Event channel full, dropping event",
			zap.String("event_type", string(event.Type())))
		return fmt.Errorf("%w: %s", ErrBusFull, event.Type())
	}
}

// PublishSync delivers an event to all handlers of its type on the calling
// goroutine and joins their errors.
func (b *Bus) PublishSync(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := b.handlers[event.Type()]
	handlersCopy := make(map[string]Handler, len(handlers))
	for id, h := range handlers {
		handlersCopy[id] = h
	}
	b.mu.RUnlock()

	if len(handlersCopy) == 0 {
		return nil
	}

	var errs []error
	for id, handler := range handlersCopy {
		if err := handler.Handle(ctx, event); err != nil {
			b.logger.Error("Handler error",
				zap.String("event_type", string(event.Type())),
				zap.String("handler_id", id),
				zap.Error(err))
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		b.failed.Add(1)
		return fmt.Errorf("handlers failed for %s: %w", event.Type(), errors.Join(errs...))
	}
	return nil
}

// processEvents delivers queued events in publish order.
func (b *Bus) processEvents() {
	defer b.wg.Done()

	for {
		select {
		case <-b.ctx.Done():
			// Drain remaining events
			for {
				select {
				case event := <-b.eventChan:
					_ = b.PublishSync(context.Background(), event)
				default:
					return
				}
			}
		case event := <-b.eventChan:
			if err := b.PublishSync(b.ctx, event); err != nil {
				b.logger.Error("Failed to process event",
					zap.String("event_type", string(event.Type())),
					zap.Error(err))
			}
		}
	}
}

// unsubscribe removes a handler subscription.
func (b *Bus) unsubscribe(id string, eventType EventType) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if handlers, ok := b.handlers[eventType]; ok {
		delete(handlers, id)
		if len(handlers) == 0 {
			delete(b.handlers, eventType)
		}
	}

	b.logger.Debug("Handler unsubscribed",
		zap.String("event_type", string(eventType)),
		zap.String("subscription_id", id))
}

// Shutdown stops accepting events, drains the queue and waits for delivery.
func (b *Bus) Shutdown(ctx context.Context) error {
	b.logger.Info("Shutting down event bus")

	b.cancel()

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.logger.Info("Event bus shutdown complete",
			zap.Uint64("published", b.published.Load()),
			zap.Uint64("dropped", b.dropped.Load()))
		return nil
	case <-ctx.Done():
		b.logger.Warn("Event bus shutdown timeout")
		return ctx.Err()
	}
}

// Stats is a point-in-time view of the bus.
type Stats struct {
	BufferSize      int
	Pending         int
	Published       uint64
	Dropped         uint64
	Failed          uint64
	HandlersPerType map[EventType]int
}

// Stats returns statistics about the event bus.
func (b *Bus) Stats() Stats {
	b.mu.RLock()
	defer b.mu.RUnlock()

	counts := make(map[EventType]int, len(b.handlers))
	for eventType, handlers := range b.handlers {
		counts[eventType] = len(handlers)
	}

	return Stats{
		BufferSize:      b.bufferSize,
		Pending:         len(b.eventChan),
		Published:       b.published.Load(),
		Dropped:         b.dropped.Load(),
		Failed:          b.failed.Load(),
		HandlersPerType: counts,
	}
}
