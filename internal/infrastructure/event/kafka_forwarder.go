package event

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marketplace/backend/internal/domain/shared"
	"github.com/marketplace/backend/internal/infrastructure/config"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// MessageWriter is the subset of *kafka.Writer the forwarder needs
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaForwarder is a wildcard handler that copies every domain event to a
// Kafka topic, keyed by aggregate so events of one order stay in order.
type KafkaForwarder struct {
	writer       MessageWriter
	writeTimeout time.Duration
	logger       *zap.Logger
}

// NewKafkaForwarder creates a forwarder writing to cfg.KafkaTopic
func NewKafkaForwarder(cfg config.EventConfig, logger *zap.Logger) (*KafkaForwarder, error) {
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.KafkaTopic == "" {
		return nil, errors.New("kafka topic is required")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(cfg.KafkaBrokers...),
		Topic:                  cfg.KafkaTopic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           cfg.WriteTimeout,
		AllowAutoTopicCreation: true,
	}
	return NewKafkaForwarderWithWriter(w, cfg.WriteTimeout, logger), nil
}

// NewKafkaForwarderWithWriter creates a forwarder over an existing writer
func NewKafkaForwarderWithWriter(w MessageWriter, writeTimeout time.Duration, logger *zap.Logger) *KafkaForwarder {
	if logger == nil {
		logger = zap.NewNop()
	}
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &KafkaForwarder{writer: w, writeTimeout: writeTimeout, logger: logger}
}

// Handle writes the event envelope. The request context may already be done
// once a response is sent, so the write gets its own deadline.
func (f *KafkaForwarder) Handle(ctx context.Context, event shared.DomainEvent) error {
	env, err := NewEnvelope(event)
	if err != nil {
		return err
	}
	value, err := env.Marshal()
	if err != nil {
		return fmt.Errorf("failed to marshal envelope: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), f.writeTimeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(env.AggregateID.String()),
		Value: value,
		Time:  env.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(env.Type)},
			{Key: "event_id", Value: []byte(env.ID.String())},
		},
	}
	if err := f.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to forward %s to kafka: %w", env.Type, err)
	}
	f.logger.Debug("event forwarded", zap.String("event_type", env.Type), zap.String("event_id", env.ID.String()))
	return nil
}

// EventTypes subscribes the forwarder to all events
func (f *KafkaForwarder) EventTypes() []string {
	return nil
}

// Close flushes and closes the writer
func (f *KafkaForwarder) Close() error {
	return f.writer.Close()
}

var _ shared.EventHandler = (*KafkaForwarder)(nil)
