// Package activity builds activity-log entries and ships them to the
// activity-logger over Kafka.
package activity

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/SharanBarfa/ERM-server/internal/domain"
	"github.com/SharanBarfa/ERM-server/internal/kafka"
	"github.com/SharanBarfa/ERM-server/pkg/telemetry"
)

// DefaultTopic carries activity events from the API to the activity-logger.
const DefaultTopic = "erm.activity"

// New returns an activity with a fresh id and timestamp.
func New(typ domain.ActivityType, subject, description string, related domain.RelatedRecord) *domain.Activity {
	return &domain.Activity{
		ID:          uuid.New().String(),
		Type:        typ,
		Subject:     subject,
		Description: description,
		RelatedTo:   related,
		CreatedAt:   time.Now().UTC(),
	}
}

// Publisher serialises activities onto a Kafka topic.
type Publisher struct {
	producer kafka.Producer
	topic    string
}

// NewPublisher returns a Publisher writing to topic (DefaultTopic if empty).
func NewPublisher(producer kafka.Producer, topic string) *Publisher {
	if topic == "" {
		topic = DefaultTopic
	}
	return &Publisher{producer: producer, topic: topic}
}

// Publish keys the message by the related record so entries about the same
// record stay ordered.
func (p *Publisher) Publish(ctx context.Context, a *domain.Activity) error {
	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal activity %s: %w", a.ID, err)
	}
	if err := p.producer.Publish(ctx, p.topic, a.RelatedTo.ID, payload); err != nil {
		return fmt.Errorf("publish activity %s: %w", a.ID, err)
	}
	telemetry.ActivitiesPublished.WithLabelValues(string(a.Type)).Inc()
	return nil
}
