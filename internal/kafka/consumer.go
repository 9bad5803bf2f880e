package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"

	"github.com/SharanBarfa/ERM-server/pkg/retry"
)

// Message wraps a Kafka message with the fields services need.
type Message struct {
	Topic   string
	Key     []byte
	Value   []byte
	Offset  int64
	Headers []kafka.Header
	Time    time.Time
}

// HandlerFunc processes a single Kafka message.
// Return nil to commit the offset. Return an error to have the same message
// handed back after a backoff; later messages wait behind it.
type HandlerFunc func(ctx context.Context, msg Message) error

// Consumer reads messages from a Kafka topic.
type Consumer interface {
	Subscribe(ctx context.Context, handler HandlerFunc) error
	Close() error
}

type consumer struct {
	reader     *kafka.Reader
	logger     *slog.Logger
	redelivery retry.Config
}

// NewConsumer creates a Kafka consumer for the given topic and consumer group.
func NewConsumer(brokers []string, topic, groupID string, logger *slog.Logger) Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10 MB
		MaxWait:        500 * time.Millisecond,
		CommitInterval: 0, // manual commit only
		StartOffset:    kafka.FirstOffset,
	})
	return &consumer{
		reader: r,
		logger: logger,
		redelivery: retry.Config{
			MaxAttempts: retry.Unlimited,
			BaseDelay:   200 * time.Millisecond,
			MaxDelay:    30 * time.Second,
		},
	}
}

// Subscribe reads messages in a loop until ctx is cancelled.
// Offsets are committed only after the handler returns nil (at-least-once delivery).
func (c *consumer) Subscribe(ctx context.Context, handler HandlerFunc) error {
	for {
		m, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil // normal shutdown
			}
			return fmt.Errorf("kafka fetch: %w", err)
		}

		msg := Message{
			Topic:   m.Topic,
			Key:     m.Key,
			Value:   m.Value,
			Offset:  m.Offset,
			Headers: m.Headers,
			Time:    m.Time,
		}

		carrier := HeaderCarrier(m.Headers)
		msgCtx := otel.GetTextMapPropagator().Extract(ctx, &carrier)

		cfg := c.redelivery
		cfg.OnRetry = func(attempt int, err error) {
			c.logger.Error("message handler failed, redelivering",
				slog.String("topic", m.Topic),
				slog.Int64("offset", m.Offset),
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
		}
		if err := retry.Do(ctx, cfg, func() error { return handler(msgCtx, msg) }); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("handle offset %d: %w", m.Offset, err)
		}

		if err := c.reader.CommitMessages(ctx, m); err != nil {
			c.logger.Error("failed to commit kafka offset",
				slog.String("topic", m.Topic),
				slog.Int64("offset", m.Offset),
				slog.String("error", err.Error()),
			)
		}
	}
}

func (c *consumer) Close() error {
	return c.reader.Close()
}
