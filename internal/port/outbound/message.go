package outbound

import "context"

// EventPublisherPort hands progress events to the progress bus.
type EventPublisherPort interface {
	Publish(ctx context.Context, event any) error
}

// MessagePort is a keyed message producer. Messages sharing a key keep
// their order.
type MessagePort interface {
	Publish(ctx context.Context, topic, key string, message []byte) error
	Close() error
}
