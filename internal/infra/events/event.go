package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is a progress notification flowing through the bus.
type Event interface {
	EventID() uuid.UUID

	// EventType is the dotted type name, e.g. "generation.batch_completed".
	EventType() string

	OccurredAt() time.Time

	// PartitionKey groups events that must be delivered in order. Progress
	// events use their project ID.
	PartitionKey() string
}
