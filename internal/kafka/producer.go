package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
)

// ContentTypeHeader carries the payload encoding of every published message.
const ContentTypeHeader = "content-type"

var (
	ErrNoTopic = errors.New("kafka: topic is required")
	ErrNoKey   = errors.New("kafka: message key is required")
)

// Producer publishes JSON payloads keyed by the record they describe.
type Producer interface {
	Publish(ctx context.Context, topic, key string, value []byte) error
	Close() error
}

type producer struct {
	writer *kafka.Writer
}

// ProducerOption tunes the underlying writer.
type ProducerOption func(*kafka.Writer)

// WithBatchTimeout bounds how long a message may wait for a batch to fill.
func WithBatchTimeout(d time.Duration) ProducerOption {
	return func(w *kafka.Writer) { w.BatchTimeout = d }
}

// WithRequireAll waits for every in-sync replica before a publish succeeds.
func WithRequireAll() ProducerOption {
	return func(w *kafka.Writer) { w.RequiredAcks = kafka.RequireAll }
}

// NewProducer returns a producer for brokers. Keys are hashed to partitions,
// so every activity about one record lands on the same partition and is
// consumed in order. Publishing without a key is rejected for that reason.
func NewProducer(brokers []string, opts ...ProducerOption) Producer {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		MaxAttempts:            3,
		BatchTimeout:           10 * time.Millisecond,
		WriteTimeout:           10 * time.Second,
		ReadTimeout:            10 * time.Second,
		AllowAutoTopicCreation: true,
	}
	for _, opt := range opts {
		opt(w)
	}
	return &producer{writer: w}
}

func (p *producer) Publish(ctx context.Context, topic, key string, value []byte) error {
	if topic == "" {
		return ErrNoTopic
	}
	if key == "" {
		return fmt.Errorf("publish to %s: %w", topic, ErrNoKey)
	}

	headers := HeaderCarrier{{Key: ContentTypeHeader, Value: []byte("application/json")}}
	otel.GetTextMapPropagator().Inject(ctx, &headers)

	err := p.writer.WriteMessages(ctx, kafka.Message{
		Topic:   topic,
		Key:     []byte(key),
		Value:   value,
		Headers: headers,
		Time:    time.Now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("kafka publish to %s: %w", topic, err)
	}
	return nil
}

func (p *producer) Close() error {
	return p.writer.Close()
}
