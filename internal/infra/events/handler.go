package events

import "context"

// Handler is the interface for event handlers.
type Handler interface {
	// Handles returns the event types this handler processes. The wildcard
	// "*" subscribes to every type.
	Handles() []string

	// Handle processes the given event.
	Handle(ctx context.Context, event Event) error
}

// Wildcard subscribes a handler to all event types.
const Wildcard = "*"

// HandlerFunc adapts a function to Handler.
type HandlerFunc struct {
	eventTypes []string
	fn         func(context.Context, Event) error
}

// NewHandlerFunc creates a new HandlerFunc.
func NewHandlerFunc(eventTypes []string, fn func(context.Context, Event) error) *HandlerFunc {
	return &HandlerFunc{
		eventTypes: eventTypes,
		fn:         fn,
	}
}

// Handles returns the event types this handler processes.
func (h *HandlerFunc) Handles() []string {
	return h.eventTypes
}

// Handle processes the given event.
func (h *HandlerFunc) Handle(ctx context.Context, event Event) error {
	return h.fn(ctx, event)
}
