package tasks

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/SharanBarfa/ERM-server/internal/domain"
)

// Projection selects which reference fields a task view carries.
type Projection int

const (
	// Basic populates the project name and the creator name.
	Basic Projection = iota
	// Extended adds the project status and the creator email.
	Extended
)

// ParseProjection maps the ?view= query value onto a Projection.
func ParseProjection(s string) Projection {
	if s == "extended" {
		return Extended
	}
	return Basic
}

func (p Projection) String() string {
	if p == Extended {
		return "extended"
	}
	return "basic"
}

// Directory resolves references to documents owned by other collections.
// Missing ids are simply absent from the returned maps.
type Directory interface {
	Projects(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.ProjectRef, error)
	Employees(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.EmployeeRef, error)
	Users(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.UserRef, error)
}

func (s *Service) view(ctx context.Context, task *domain.Task, proj Projection) (*domain.TaskView, error) {
	views, err := s.views(ctx, []*domain.Task{task}, proj)
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *Service) views(ctx context.Context, list []*domain.Task, proj Projection) ([]*domain.TaskView, error) {
	out := make([]*domain.TaskView, 0, len(list))
	if len(list) == 0 {
		return out, nil
	}

	var projectIDs, employeeIDs, userIDs idSet
	for _, t := range list {
		projectIDs.add(t.Project)
		userIDs.add(t.CreatedBy)
		if t.AssignedTo != nil {
			employeeIDs.add(*t.AssignedTo)
		}
	}

	projects, err := s.dir.Projects(ctx, projectIDs.ids)
	if err != nil {
		return nil, fmt.Errorf("populate projects: %w", err)
	}
	employees, err := s.dir.Employees(ctx, employeeIDs.ids)
	if err != nil {
		return nil, fmt.Errorf("populate employees: %w", err)
	}
	users, err := s.dir.Users(ctx, userIDs.ids)
	if err != nil {
		return nil, fmt.Errorf("populate users: %w", err)
	}

	for _, t := range list {
		v := &domain.TaskView{
			ID:          t.ID,
			Title:       t.Title,
			Description: t.Description,
			Status:      t.Status,
			Priority:    t.Priority,
			DueDate:     t.DueDate,
			CompletedAt: t.CompletedAt,
			CreatedAt:   t.CreatedAt,
			UpdatedAt:   t.UpdatedAt,
		}
		if ref, ok := projects[t.Project]; ok {
			p := domain.ProjectRef{ID: ref.ID, Name: ref.Name}
			if proj == Extended {
				p.Status = ref.Status
			}
			v.Project = &p
		}
		if t.AssignedTo != nil {
			v.AssignedTo = employees[*t.AssignedTo]
		}
		if ref, ok := users[t.CreatedBy]; ok {
			u := domain.UserRef{ID: ref.ID, Name: ref.Name}
			if proj == Extended {
				u.Email = ref.Email
			}
			v.CreatedBy = &u
		}
		out = append(out, v)
	}
	return out, nil
}

// idSet collects distinct ids in insertion order.
type idSet struct {
	seen map[primitive.ObjectID]struct{}
	ids  []primitive.ObjectID
}

func (s *idSet) add(id primitive.ObjectID) {
	if id.IsZero() {
		return
	}
	if s.seen == nil {
		s.seen = make(map[primitive.ObjectID]struct{})
	}
	if _, ok := s.seen[id]; ok {
		return
	}
	s.seen[id] = struct{}{}
	s.ids = append(s.ids, id)
}
