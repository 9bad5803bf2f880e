// Package contacts handles messages left through the public contact form.
package contacts

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/SharanBarfa/ERM-server/internal/activity"
	"github.com/SharanBarfa/ERM-server/internal/domain"
)

type Store interface {
	Insert(ctx context.Context, c *domain.Contact) error
	// List returns every contact, newest first.
	List(ctx context.Context) ([]*domain.Contact, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.ContactStatus) (*domain.Contact, error)
}

type Publisher interface {
	Publish(ctx context.Context, a *domain.Activity) error
}

type Service struct {
	store  Store
	events Publisher
	now    func() time.Time
	logger *slog.Logger
}

// NewService returns a Service. events may be nil to disable the activity log.
func NewService(store Store, events Publisher, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		events: events,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

// Create stores the contact and logs a new_contact activity.
func (s *Service) Create(ctx context.Context, c *domain.Contact) (*domain.Contact, error) {
	c.Status = ""
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.CreatedAt = s.now()
	if err := s.store.Insert(ctx, c); err != nil {
		return nil, fmt.Errorf("insert contact: %w", err)
	}

	if s.events != nil {
		a := activity.New(domain.ActivityNewContact,
			"New Contact Message",
			fmt.Sprintf("New contact message received from %s", c.Name),
			domain.RelatedRecord{Model: "Contact", ID: c.ID.Hex()},
		)
		a.Metadata = map[string]any{
			"contactName":  c.Name,
			"contactEmail": c.Email,
		}
		if err := s.events.Publish(ctx, a); err != nil {
			s.logger.Error("failed to publish activity",
				slog.String("contact_id", c.ID.Hex()),
				slog.String("error", err.Error()),
			)
		}
	}
	return c, nil
}

func (s *Service) List(ctx context.Context) ([]*domain.Contact, error) {
	list, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return list, nil
}

func (s *Service) UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.ContactStatus) (*domain.Contact, error) {
	if status == "" {
		return nil, domain.Invalid("status", "Please provide a status")
	}
	if !status.Valid() {
		return nil, domain.Invalid("status", "%q is not a valid contact status", status)
	}
	return s.store.UpdateStatus(ctx, id, status)
}
