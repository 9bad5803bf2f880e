// Package tasks implements the task lifecycle: CRUD, status transitions with
// completedAt stamping, and the project progress rollup.
package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/SharanBarfa/ERM-server/internal/activity"
	"github.com/SharanBarfa/ERM-server/internal/domain"
	"github.com/SharanBarfa/ERM-server/pkg/telemetry"
)

// Store abstracts task persistence.
type Store interface {
	Counter
	Insert(ctx context.Context, task *domain.Task) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Task, error)
	Find(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error)
	// Update applies patch as a single partial write and returns the new document.
	Update(ctx context.Context, id primitive.ObjectID, patch domain.TaskPatch, now time.Time) (*domain.Task, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*domain.Task, error)
}

// Cache holds task documents by id. Get returns a NotFoundError on a miss.
type Cache interface {
	Get(ctx context.Context, id string) (*domain.Task, error)
	Set(ctx context.Context, task *domain.Task) error
	Invalidate(ctx context.Context, id string) error
}

// Publisher sends activity-log entries.
type Publisher interface {
	Publish(ctx context.Context, a *domain.Activity) error
}

// CompletedAtPolicy decides what happens to completedAt when a task leaves
// the completed status.
type CompletedAtPolicy int

const (
	// ClearOnReopen nulls completedAt on every write that sets a non-completed status.
	ClearOnReopen CompletedAtPolicy = iota
	// KeepOnReopen leaves a previous completedAt in place.
	KeepOnReopen
)

// ParseCompletedAtPolicy maps a config value onto a policy. Unknown values
// select ClearOnReopen.
func ParseCompletedAtPolicy(s string) CompletedAtPolicy {
	if s == "keep" {
		return KeepOnReopen
	}
	return ClearOnReopen
}

// Service is the single task mutation component used by every caller.
type Service struct {
	store  Store
	dir    Directory
	rollup *Rollup
	cache  Cache     // nil = disabled
	events Publisher // nil = disabled
	policy CompletedAtPolicy
	now    func() time.Time
	logger *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *slog.Logger) Option                 { return func(s *Service) { s.logger = l } }
func WithCache(c Cache) Option                         { return func(s *Service) { s.cache = c } }
func WithPublisher(p Publisher) Option                 { return func(s *Service) { s.events = p } }
func WithCompletedAtPolicy(p CompletedAtPolicy) Option { return func(s *Service) { s.policy = p } }
func WithClock(now func() time.Time) Option            { return func(s *Service) { s.now = now } }

// NewService constructs a Service.
func NewService(store Store, dir Directory, rollup *Rollup, opts ...Option) *Service {
	s := &Service{
		store:  store,
		dir:    dir,
		rollup: rollup,
		policy: ClearOnReopen,
		now:    func() time.Time { return time.Now().UTC() },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create inserts a new task owned by createdBy. No rollup is triggered.
func (s *Service) Create(ctx context.Context, in domain.NewTask, createdBy primitive.ObjectID, proj Projection) (*domain.TaskView, error) {
	task, err := in.Build(createdBy, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.store.Insert(ctx, task); err != nil {
		return nil, fmt.Errorf("insert task: %w", err)
	}
	telemetry.TasksCreated.Inc()
	s.logger.Info("task created",
		slog.String("task_id", task.ID.Hex()),
		slog.String("project_id", task.Project.Hex()),
	)
	return s.view(ctx, task, proj)
}

// Get returns a populated task, reading through the cache when enabled.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID, proj Projection) (*domain.TaskView, error) {
	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, task, proj)
}

// List returns populated tasks matching filter.
func (s *Service) List(ctx context.Context, filter domain.TaskFilter, proj Projection) ([]*domain.TaskView, error) {
	found, err := s.store.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find tasks: %w", err)
	}
	return s.views(ctx, found, proj)
}

// Update applies a partial update. Status changes go through the same
// transition rules as SetStatus, including the rollup on completion. Moving a
// task that is or was completed to another project recomputes both projects.
func (s *Service) Update(ctx context.Context, id primitive.ObjectID, patch domain.TaskPatch, proj Projection) (*domain.TaskView, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}

	var before *domain.Task
	if patch.Project != nil {
		prev, err := s.store.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		before = prev
	}

	now := s.now()
	s.applyStatusRules(&patch, now)

	task, err := s.store.Update(ctx, id, patch, now)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	completed := patch.Status != nil && *patch.Status == domain.TaskCompleted
	if patch.Status != nil {
		telemetry.TaskStatusTransitions.WithLabelValues(string(*patch.Status)).Inc()
	}

	var recompute []primitive.ObjectID
	if before != nil && before.Project != task.Project &&
		(before.Status == domain.TaskCompleted || task.Status == domain.TaskCompleted) {
		recompute = append(recompute, before.Project, task.Project)
	} else if completed {
		recompute = append(recompute, task.Project)
	}
	for _, projectID := range recompute {
		if _, err := s.rollup.Recompute(ctx, projectID); err != nil {
			return nil, err
		}
	}
	if completed {
		s.publishCompleted(ctx, task)
	}
	return s.view(ctx, task, proj)
}

// SetStatus moves a task to status. On completion the owning project's
// progress is recomputed in a second write that is not rolled back if it fails.
// Any other status leaves progress as written; the reconciler's periodic
// recount later reflects re-opened tasks.
func (s *Service) SetStatus(ctx context.Context, id primitive.ObjectID, status domain.TaskStatus, proj Projection) (*domain.TaskView, error) {
	if status == "" {
		return nil, domain.Invalid("status", "Please provide a status")
	}
	if !status.Valid() {
		return nil, domain.Invalid("status", "%q is not a valid task status", status)
	}
	if _, err := s.store.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return s.Update(ctx, id, domain.TaskPatch{Status: &status}, proj)
}

// Assign sets the task's assignee.
func (s *Service) Assign(ctx context.Context, id, employeeID primitive.ObjectID, proj Projection) (*domain.TaskView, error) {
	if employeeID.IsZero() {
		return nil, domain.Invalid("employeeId", "Please provide an employee")
	}
	task, err := s.store.Update(ctx, id, domain.TaskPatch{AssignedTo: &employeeID}, s.now())
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return s.view(ctx, task, proj)
}

// Delete removes a task and returns it. Progress is not recomputed here, so
// it stays stale until the reconciler's next periodic recount of every
// project, after which it matches the remaining tasks.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) (*domain.Task, error) {
	task, err := s.store.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	s.logger.Info("task deleted",
		slog.String("task_id", id.Hex()),
		slog.String("project_id", task.Project.Hex()),
	)
	return task, nil
}

func (s *Service) applyStatusRules(p *domain.TaskPatch, now time.Time) {
	if p.Status == nil {
		return
	}
	if *p.Status == domain.TaskCompleted {
		if p.CompletedAt == nil {
			stamp := now
			p.CompletedAt = &stamp
		}
		p.ClearCompletedAt = false
		return
	}
	if s.policy == ClearOnReopen {
		p.CompletedAt = nil
		p.ClearCompletedAt = true
	}
}

func (s *Service) load(ctx context.Context, id primitive.ObjectID) (*domain.Task, error) {
	if s.cache != nil {
		task, err := s.cache.Get(ctx, id.Hex())
		if err == nil {
			return task, nil
		}
		if domain.KindOf(err) != domain.KindNotFound {
			s.logger.Warn("task cache read failed", slog.String("task_id", id.Hex()), slog.String("error", err.Error()))
		}
	}

	task, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, task); err != nil {
			s.logger.Warn("task cache write failed", slog.String("task_id", id.Hex()), slog.String("error", err.Error()))
		}
	}
	return task, nil
}

func (s *Service) invalidate(ctx context.Context, id primitive.ObjectID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id.Hex()); err != nil {
		s.logger.Warn("task cache invalidation failed", slog.String("task_id", id.Hex()), slog.String("error", err.Error()))
	}
}

func (s *Service) publishCompleted(ctx context.Context, task *domain.Task) {
	if s.events == nil {
		return
	}
	a := activity.New(domain.ActivityTaskCompleted,
		"Task Completed",
		fmt.Sprintf("Task %q has been completed", task.Title),
		domain.RelatedRecord{Model: "Task", ID: task.ID.Hex()},
	)
	a.Metadata = map[string]any{
		"taskTitle": task.Title,
		"project":   task.Project.Hex(),
	}
	if err := s.events.Publish(ctx, a); err != nil {
		s.logger.Error("failed to publish activity",
			slog.String("task_id", task.ID.Hex()),
			slog.String("error", err.Error()),
		)
	}
}
