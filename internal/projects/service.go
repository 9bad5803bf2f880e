// Package projects manages projects and their presentation views.
package projects

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/SharanBarfa/ERM-server/internal/domain"
)

// Store abstracts project persistence.
type Store interface {
	Insert(ctx context.Context, p *domain.Project) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Project, error)
	Find(ctx context.Context, filter domain.ProjectFilter) ([]*domain.Project, error)
	Update(ctx context.Context, id primitive.ObjectID, patch domain.ProjectPatch, now time.Time) (*domain.Project, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*domain.Project, error)
	SetProgress(ctx context.Context, id primitive.ObjectID, progress int) error
}

// TaskFinder lists the tasks nested in a single-project view.
type TaskFinder interface {
	Find(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error)
}

// Directory resolves manager, team and department references.
type Directory interface {
	Employees(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.EmployeeRef, error)
	Teams(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.NamedRef, error)
	Departments(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.NamedRef, error)
}

type Service struct {
	store  Store
	tasks  TaskFinder
	dir    Directory
	now    func() time.Time
	logger *slog.Logger
}

func NewService(store Store, tasks TaskFinder, dir Directory, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		tasks:  tasks,
		dir:    dir,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

func (s *Service) Create(ctx context.Context, p *domain.Project) (*domain.ProjectView, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	if err := s.store.Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("insert project: %w", err)
	}
	s.logger.Info("project created", slog.String("project_id", p.ID.Hex()))
	return s.view(ctx, p)
}

func (s *Service) List(ctx context.Context, filter domain.ProjectFilter) ([]*domain.ProjectView, error) {
	found, err := s.store.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find projects: %w", err)
	}
	return s.views(ctx, found)
}

func (s *Service) ListByDepartment(ctx context.Context, departmentID primitive.ObjectID) ([]*domain.ProjectView, error) {
	return s.List(ctx, domain.ProjectFilter{Department: &departmentID})
}

func (s *Service) ListByManager(ctx context.Context, managerID primitive.ObjectID) ([]*domain.ProjectView, error) {
	return s.List(ctx, domain.ProjectFilter{Manager: &managerID})
}

// Get returns the project with its tasks, each task's assignee populated.
func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*domain.ProjectDetail, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	v, err := s.view(ctx, p)
	if err != nil {
		return nil, err
	}

	list, err := s.tasks.Find(ctx, domain.TaskFilter{Project: &id})
	if err != nil {
		return nil, fmt.Errorf("find project tasks: %w", err)
	}
	var assignees []primitive.ObjectID
	for _, t := range list {
		if t.AssignedTo != nil {
			assignees = append(assignees, *t.AssignedTo)
		}
	}
	employees, err := s.dir.Employees(ctx, assignees)
	if err != nil {
		return nil, fmt.Errorf("populate assignees: %w", err)
	}
	d := &domain.ProjectDetail{ProjectView: v, Tasks: make([]*domain.ProjectTask, 0, len(list))}
	for _, t := range list {
		pt := &domain.ProjectTask{
			ID:          t.ID,
			Title:       t.Title,
			Status:      t.Status,
			Priority:    t.Priority,
			DueDate:     t.DueDate,
			CompletedAt: t.CompletedAt,
		}
		if t.AssignedTo != nil {
			pt.AssignedTo = employees[*t.AssignedTo]
		}
		d.Tasks = append(d.Tasks, pt)
	}
	return d, nil
}

func (s *Service) Update(ctx context.Context, id primitive.ObjectID, patch domain.ProjectPatch) (*domain.ProjectView, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	p, err := s.store.Update(ctx, id, patch, s.now())
	if err != nil {
		return nil, err
	}
	return s.view(ctx, p)
}

// Delete removes the project. Its tasks are kept.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) (*domain.Project, error) {
	p, err := s.store.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	s.logger.Info("project deleted", slog.String("project_id", id.Hex()))
	return p, nil
}

// SetProgress overrides the derived progress. The next task completion or
// reconciler run recomputes it from the tasks again.
func (s *Service) SetProgress(ctx context.Context, id primitive.ObjectID, progress *int) (*domain.ProjectView, error) {
	if progress == nil {
		return nil, domain.Invalid("progress", "Please provide a progress value")
	}
	if err := domain.ValidateProgress(*progress); err != nil {
		return nil, err
	}
	if err := s.store.SetProgress(ctx, id, *progress); err != nil {
		return nil, err
	}
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, p)
}

func (s *Service) view(ctx context.Context, p *domain.Project) (*domain.ProjectView, error) {
	views, err := s.views(ctx, []*domain.Project{p})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *Service) views(ctx context.Context, list []*domain.Project) ([]*domain.ProjectView, error) {
	out := make([]*domain.ProjectView, 0, len(list))
	if len(list) == 0 {
		return out, nil
	}
	var managers, teams, departments []primitive.ObjectID
	for _, p := range list {
		if p.Manager != nil {
			managers = append(managers, *p.Manager)
		}
		if p.Team != nil {
			teams = append(teams, *p.Team)
		}
		if p.Department != nil {
			departments = append(departments, *p.Department)
		}
	}
	employees, err := s.dir.Employees(ctx, managers)
	if err != nil {
		return nil, fmt.Errorf("populate managers: %w", err)
	}
	teamRefs, err := s.dir.Teams(ctx, teams)
	if err != nil {
		return nil, fmt.Errorf("populate teams: %w", err)
	}
	deptRefs, err := s.dir.Departments(ctx, departments)
	if err != nil {
		return nil, fmt.Errorf("populate departments: %w", err)
	}

	for _, p := range list {
		v := &domain.ProjectView{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Status:      p.Status,
			StartDate:   p.StartDate,
			EndDate:     p.EndDate,
			Budget:      p.Budget,
			Progress:    p.Progress,
			CreatedAt:   p.CreatedAt,
			UpdatedAt:   p.UpdatedAt,
		}
		if p.Manager != nil {
			v.Manager = employees[*p.Manager]
		}
		if p.Team != nil {
			v.Team = teamRefs[*p.Team]
		}
		if p.Department != nil {
			v.Department = deptRefs[*p.Department]
		}
		out = append(out, v)
	}
	return out, nil
}
