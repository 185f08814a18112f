package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/uniedit/reelgen/internal/port/outbound"
)

// NewLogHandler logs every event at debug level.
func NewLogHandler(logger *zap.Logger) Handler {
	return NewHandlerFunc([]string{Wildcard}, func(_ context.Context, event Event) error {
		logger.Debug("event",
			zap.String("event_type", event.EventType()),
			zap.String("event_id", event.EventID().String()),
			zap.String("partition_key", event.PartitionKey()),
			zap.Time("occurred_at", event.OccurredAt()),
		)
		return nil
	})
}

// MessageHandler forwards events as JSON to a message topic, keyed by
// partition key so each project's events stay ordered.
type MessageHandler struct {
	messages outbound.MessagePort
	topic    string
	timeout  time.Duration
}

// NewMessageHandler creates a handler publishing to topic.
func NewMessageHandler(messages outbound.MessagePort, topic string, timeout time.Duration) *MessageHandler {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &MessageHandler{messages: messages, topic: topic, timeout: timeout}
}

// Handles subscribes to every event type.
func (h *MessageHandler) Handles() []string {
	return []string{Wildcard}
}

// Handle publishes the event.
func (h *MessageHandler) Handle(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", event.EventType(), err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.timeout)
	defer cancel()

	return h.messages.Publish(ctx, h.topic, event.PartitionKey(), payload)
}
