// Package events manages company calendar events.
package events

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/SharanBarfa/ERM-server/internal/activity"
	"github.com/SharanBarfa/ERM-server/internal/domain"
)

// DefaultUpcomingLimit is used when the caller does not ask for a limit.
const DefaultUpcomingLimit = 5

type Store interface {
	Insert(ctx context.Context, e *domain.Event) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*domain.Event, error)
	// Find returns events matching filter sorted by date ascending.
	Find(ctx context.Context, filter domain.EventFilter) ([]*domain.Event, error)
	Update(ctx context.Context, id primitive.ObjectID, patch domain.EventPatch) (*domain.Event, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// Users resolves event creators.
type Users interface {
	Users(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*domain.UserRef, error)
}

type Publisher interface {
	Publish(ctx context.Context, a *domain.Activity) error
}

type Service struct {
	store  Store
	users  Users
	events Publisher
	now    func() time.Time
	logger *slog.Logger
}

// NewService returns a Service. events may be nil to disable the activity log.
func NewService(store Store, users Users, events Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		users:  users,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// Create stores e on behalf of createdBy and logs a new_event activity.
func (s *Service) Create(ctx context.Context, e *domain.Event, createdBy primitive.ObjectID) (*domain.EventView, error) {
	e.CreatedBy = createdBy
	if err := e.Validate(); err != nil {
		return nil, err
	}
	e.CreatedAt = s.now()
	if err := s.store.Insert(ctx, e); err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}

	if s.events != nil {
		a := activity.New(domain.ActivityNewEvent,
			"New Event Created",
			fmt.Sprintf("New event %q has been created", e.Title),
			domain.RelatedRecord{Model: "Event", ID: e.ID.Hex()},
		)
		a.User = createdBy.Hex()
		a.Metadata = map[string]any{
			"eventTitle": e.Title,
			"eventDate":  e.Date,
		}
		if err := s.events.Publish(ctx, a); err != nil {
			s.logger.Error("failed to publish activity",
				slog.String("event_id", e.ID.Hex()),
				slog.String("error", err.Error()),
			)
		}
	}
	return s.view(ctx, e)
}

func (s *Service) List(ctx context.Context, filter domain.EventFilter) ([]*domain.EventView, error) {
	if filter.Type != "" && !filter.Type.Valid() {
		return nil, domain.Invalid("type", "%q is not a valid event type", filter.Type)
	}
	list, err := s.store.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("find events: %w", err)
	}
	return s.views(ctx, list)
}

// Upcoming returns at most limit events dated now or later.
func (s *Service) Upcoming(ctx context.Context, limit int) ([]*domain.EventView, error) {
	if limit <= 0 {
		limit = DefaultUpcomingLimit
	}
	now := s.now()
	return s.List(ctx, domain.EventFilter{From: &now, Limit: limit})
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (*domain.EventView, error) {
	e, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, e)
}

func (s *Service) Update(ctx context.Context, id primitive.ObjectID, patch domain.EventPatch) (*domain.EventView, error) {
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	e, err := s.store.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, e)
}

func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	return s.store.Delete(ctx, id)
}

func (s *Service) view(ctx context.Context, e *domain.Event) (*domain.EventView, error) {
	views, err := s.views(ctx, []*domain.Event{e})
	if err != nil {
		return nil, err
	}
	return views[0], nil
}

func (s *Service) views(ctx context.Context, list []*domain.Event) ([]*domain.EventView, error) {
	out := make([]*domain.EventView, 0, len(list))
	if len(list) == 0 {
		return out, nil
	}
	ids := make([]primitive.ObjectID, 0, len(list))
	for _, e := range list {
		ids = append(ids, e.CreatedBy)
	}
	users, err := s.users.Users(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("populate creators: %w", err)
	}
	for _, e := range list {
		v := &domain.EventView{
			ID:           e.ID,
			Title:        e.Title,
			Description:  e.Description,
			Date:         e.Date,
			EndDate:      e.EndDate,
			Location:     e.Location,
			Participants: e.Participants,
			Type:         e.Type,
			CreatedAt:    e.CreatedAt,
		}
		if ref, ok := users[e.CreatedBy]; ok {
			// Events only expose the creator's name.
			v.CreatedBy = &domain.UserRef{ID: ref.ID, Name: ref.Name}
		}
		out = append(out, v)
	}
	return out, nil
}
