package events

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/uniedit/reelgen/internal/port/outbound"
)

// Bus is a synchronous in-process event bus.
type Bus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   *zap.Logger
}

// NewBus creates a new event bus.
func NewBus(logger *zap.Logger) *Bus {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bus{
		handlers: make(map[string][]Handler),
		logger:   logger.Named("events"),
	}
}

// Register registers a handler for the events it handles.
func (b *Bus) Register(handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, eventType := range handler.Handles() {
		b.handlers[eventType] = append(b.handlers[eventType], handler)
		b.logger.Debug("registered event handler",
			zap.String("event_type", eventType),
		)
	}
}

// Dispatch delivers an event to its handlers in registration order, then
// to wildcard handlers. A failing handler is logged and the rest still run.
func (b *Bus) Dispatch(ctx context.Context, event Event) {
	b.mu.RLock()
	handlers := append([]Handler(nil), b.handlers[event.EventType()]...)
	handlers = append(handlers, b.handlers[Wildcard]...)
	b.mu.RUnlock()

	if len(handlers) == 0 {
		b.logger.Debug("no handlers registered for event",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
		)
		return
	}

	for _, handler := range handlers {
		if err := handler.Handle(ctx, event); err != nil {
			b.logger.Error("event handler failed",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.Error(err),
			)
		}
	}
}

// Publish implements EventPublisherPort. Only values implementing Event
// can be published.
func (b *Bus) Publish(ctx context.Context, event any) error {
	ev, ok := event.(Event)
	if !ok {
		return fmt.Errorf("publish: %T is not an event", event)
	}
	b.Dispatch(ctx, ev)
	return nil
}

// Compile-time interface check
var _ outbound.EventPublisherPort = (*Bus)(nil)
