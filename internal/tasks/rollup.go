package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/SharanBarfa/ERM-server/internal/domain"
	"github.com/SharanBarfa/ERM-server/pkg/telemetry"
)

// Counter counts a project's tasks.
type Counter interface {
	CountByProject(ctx context.Context, projectID primitive.ObjectID) (total, completed int64, err error)
}

// ProgressWriter persists a project's derived progress.
type ProgressWriter interface {
	SetProgress(ctx context.Context, projectID primitive.ObjectID, progress int) error
}

// Rollup keeps Project.progress consistent with the status of its tasks.
// Recomputations for the same project never overlap: the recount happens
// under the project's lock, after the triggering task write has committed.
//
// Inline, it runs only when a task is completed (or a completed task changes
// project). Re-opened and deleted tasks are picked up by the reconciler,
// which calls Recompute for every project on its schedule; between runs
// progress is eventually consistent with the task set.
type Rollup struct {
	counter  Counter
	projects ProgressWriter
	locker   Locker
	logger   *slog.Logger
}

// NewRollup wires a Rollup. A nil locker falls back to an in-process KeyedMutex.
func NewRollup(counter Counter, projects ProgressWriter, locker Locker, logger *slog.Logger) *Rollup {
	if locker == nil {
		locker = NewKeyedMutex()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Rollup{counter: counter, projects: projects, locker: locker, logger: logger}
}

func lockKey(projectID primitive.ObjectID) string { return "project:" + projectID.Hex() }

// Recompute recounts the project's tasks and writes the resulting progress.
// A project that no longer exists is skipped.
func (r *Rollup) Recompute(ctx context.Context, projectID primitive.ObjectID) (int, error) {
	ctx, span := otel.Tracer("tasks").Start(ctx, "tasks.rollup")
	defer span.End()
	span.SetAttributes(attribute.String("project.id", projectID.Hex()))

	start := time.Now()
	defer func() {
		telemetry.RollupDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	unlock, err := r.locker.Lock(ctx, lockKey(projectID))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "lock failed")
		telemetry.RollupsTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("lock project %s: %w", projectID.Hex(), err)
	}
	defer unlock()

	total, completed, err := r.counter.CountByProject(ctx, projectID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "count failed")
		telemetry.RollupsTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("count tasks of project %s: %w", projectID.Hex(), err)
	}
	progress := domain.Progress(completed, total)

	if err := r.projects.SetProgress(ctx, projectID, progress); err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			r.logger.Warn("rollup target project missing",
				slog.String("project_id", projectID.Hex()),
			)
			telemetry.RollupsTotal.WithLabelValues("skipped").Inc()
			return progress, nil
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		telemetry.RollupsTotal.WithLabelValues("error").Inc()
		return 0, fmt.Errorf("set progress of project %s: %w", projectID.Hex(), err)
	}

	span.SetAttributes(attribute.Int("project.progress", progress))
	telemetry.RollupsTotal.WithLabelValues("ok").Inc()
	r.logger.Debug("project progress recomputed",
		slog.String("project_id", projectID.Hex()),
		slog.Int64("completed", completed),
		slog.Int64("total", total),
		slog.Int("progress", progress),
	)
	return progress, nil
}
