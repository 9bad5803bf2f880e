// Package activitylogger persists activity events from Kafka into the
// activity log and fans them out to notifiers.
package activitylogger

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/SharanBarfa/ERM-server/internal/domain"
	"github.com/SharanBarfa/ERM-server/internal/kafka"
	"github.com/SharanBarfa/ERM-server/internal/notify"
	"github.com/SharanBarfa/ERM-server/pkg/retry"
	"github.com/SharanBarfa/ERM-server/pkg/telemetry"
)

// Store is the part of the activity repository the recorder writes to.
type Store interface {
	Record(ctx context.Context, a *domain.Activity) error
	RecordNotification(ctx context.Context, activityID, notifier string, sendErr error) error
}

// Recorder consumes activity events and records them.
type Recorder struct {
	consumer      kafka.Consumer
	store         Store
	registry      *notify.Registry
	maxRetries    int
	baseDelay     time.Duration
	notifyTimeout time.Duration
	logger        *slog.Logger
}

// Option configures a Recorder.
type Option func(*Recorder)

func WithRetries(n int) Option                 { return func(r *Recorder) { r.maxRetries = n } }
func WithBaseDelay(d time.Duration) Option     { return func(r *Recorder) { r.baseDelay = d } }
func WithNotifyTimeout(d time.Duration) Option { return func(r *Recorder) { r.notifyTimeout = d } }
func WithLogger(l *slog.Logger) Option         { return func(r *Recorder) { r.logger = l } }

// NewRecorder constructs a Recorder. registry may be nil when no notifier
// is configured.
func NewRecorder(consumer kafka.Consumer, store Store, registry *notify.Registry, opts ...Option) *Recorder {
	r := &Recorder{
		consumer:      consumer,
		store:         store,
		registry:      registry,
		maxRetries:    3,
		baseDelay:     time.Second,
		notifyTimeout: 15 * time.Second,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.registry == nil {
		r.registry = notify.NewRegistry()
	}
	return r
}

// Run consumes until ctx is cancelled.
func (r *Recorder) Run(ctx context.Context) error {
	return r.consumer.Subscribe(ctx, r.processMessage)
}

// processMessage is the Kafka HandlerFunc. Malformed events are dropped.
// A persistence failure that survives the local retries is returned so the
// consumer redelivers the message instead of committing past it.
func (r *Recorder) processMessage(ctx context.Context, msg kafka.Message) error {
	var a domain.Activity
	if err := json.Unmarshal(msg.Value, &a); err != nil || a.ID == "" || !a.Type.Valid() {
		reason := "missing id or unknown type"
		if err != nil {
			reason = err.Error()
		}
		r.logger.Error("malformed activity message, discarding",
			slog.Int64("offset", msg.Offset),
			slog.String("error", reason),
			slog.String("raw", string(msg.Value)),
		)
		telemetry.ActivitiesProcessed.WithLabelValues("unknown", "malformed").Inc()
		return nil
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = msg.Time
	}

	ctx, span := otel.Tracer("activity-logger").Start(ctx, "activity_logger.record")
	defer span.End()
	span.SetAttributes(
		attribute.String("activity.id", a.ID),
		attribute.String("activity.type", string(a.Type)),
	)

	log := r.logger.With(
		slog.String("activity_id", a.ID),
		slog.String("activity_type", string(a.Type)),
	)

	err := retry.Do(ctx, retry.Config{
		MaxAttempts: r.maxRetries + 1,
		BaseDelay:   r.baseDelay,
		MaxDelay:    10 * time.Second,
		OnRetry: func(attempt int, err error) {
			telemetry.ActivityPersistRetries.Inc()
			log.Warn("persist failed, retrying",
				slog.Int("attempt", attempt),
				slog.String("error", err.Error()),
			)
		},
	}, func() error {
		return r.store.Record(ctx, &a)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist failed")
		telemetry.ActivitiesProcessed.WithLabelValues(string(a.Type), "error").Inc()
		return fmt.Errorf("record activity %s: %w", a.ID, err)
	}

	r.notify(ctx, &a, log)
	telemetry.ActivitiesProcessed.WithLabelValues(string(a.Type), "ok").Inc()
	log.Info("activity recorded")
	return nil
}

// notify is best effort: failures are logged and stored next to the
// activity, never retried.
func (r *Recorder) notify(ctx context.Context, a *domain.Activity, log *slog.Logger) {
	for _, n := range r.registry.For(a.Type) {
		nctx, cancel := context.WithTimeout(ctx, r.notifyTimeout)
		sendErr := n.Notify(nctx, a)
		cancel()

		result := "ok"
		if sendErr != nil {
			result = "error"
			log.Warn("notification failed",
				slog.String("notifier", n.Name()),
				slog.String("error", sendErr.Error()),
			)
		}
		telemetry.NotificationsSent.WithLabelValues(n.Name(), result).Inc()

		if err := r.store.RecordNotification(ctx, a.ID, n.Name(), sendErr); err != nil {
			log.Error("failed to record notification",
				slog.String("notifier", n.Name()),
				slog.String("error", err.Error()),
			)
		}
	}
}
