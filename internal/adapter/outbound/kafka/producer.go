package kafka

import (
	"context"
	"fmt"
	"time"

	"github.com/IBM/sarama"

	"github.com/uniedit/reelgen/internal/port/outbound"
)

// ProducerConfig holds Kafka producer configuration.
type ProducerConfig struct {
	Brokers  []string
	ClientID string
	Timeout  time.Duration
}

// Producer implements MessagePort on a synchronous Kafka producer.
type Producer struct {
	producer sarama.SyncProducer
}

// NewProducer dials the brokers and creates a producer.
func NewProducer(config ProducerConfig) (*Producer, error) {
	saramaConfig := sarama.NewConfig()
	saramaConfig.Version = sarama.V3_6_0_0
	saramaConfig.Producer.RequiredAcks = sarama.WaitForLocal
	saramaConfig.Producer.Return.Successes = true
	saramaConfig.Producer.Partitioner = sarama.NewHashPartitioner
	if config.ClientID != "" {
		saramaConfig.ClientID = config.ClientID
	}
	if config.Timeout > 0 {
		saramaConfig.Producer.Timeout = config.Timeout
	}

	producer, err := sarama.NewSyncProducer(config.Brokers, saramaConfig)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return NewProducerFromSync(producer), nil
}

// NewProducerFromSync wraps an existing sync producer.
func NewProducerFromSync(producer sarama.SyncProducer) *Producer {
	return &Producer{producer: producer}
}

// Publish sends one message. Messages sharing a key land on the same
// partition, so a project's progress stays ordered.
func (p *Producer) Publish(ctx context.Context, topic, key string, message []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Value: sarama.ByteEncoder(message),
	}
	if key != "" {
		msg.Key = sarama.StringEncoder(key)
	}

	if _, _, err := p.producer.SendMessage(msg); err != nil {
		return fmt.Errorf("send to %s: %w", topic, err)
	}
	return nil
}

// Close flushes and closes the producer.
func (p *Producer) Close() error {
	return p.producer.Close()
}

// Compile-time interface check
var _ outbound.MessagePort = (*Producer)(nil)
