// Package handler implements the api-gateway's REST surface.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/SharanBarfa/ERM-server/internal/domain"
	"github.com/SharanBarfa/ERM-server/internal/tasks"
	"github.com/SharanBarfa/ERM-server/pkg/telemetry"
)

type TaskService interface {
	Create(ctx context.Context, in domain.NewTask, createdBy primitive.ObjectID, proj tasks.Projection) (*domain.TaskView, error)
	Get(ctx context.Context, id primitive.ObjectID, proj tasks.Projection) (*domain.TaskView, error)
	List(ctx context.Context, filter domain.TaskFilter, proj tasks.Projection) ([]*domain.TaskView, error)
	Update(ctx context.Context, id primitive.ObjectID, patch domain.TaskPatch, proj tasks.Projection) (*domain.TaskView, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, status domain.TaskStatus, proj tasks.Projection) (*domain.TaskView, error)
	Assign(ctx context.Context, id, employeeID primitive.ObjectID, proj tasks.Projection) (*domain.TaskView, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*domain.Task, error)
}

type ProjectService interface {
	Create(ctx context.Context, p *domain.Project) (*domain.ProjectView, error)
	List(ctx context.Context, filter domain.ProjectFilter) ([]*domain.ProjectView, error)
	ListByDepartment(ctx context.Context, departmentID primitive.ObjectID) ([]*domain.ProjectView, error)
	ListByManager(ctx context.Context, managerID primitive.ObjectID) ([]*domain.ProjectView, error)
	Get(ctx context.Context, id primitive.ObjectID) (*domain.ProjectDetail, error)
	Update(ctx context.Context, id primitive.ObjectID, patch domain.ProjectPatch) (*domain.ProjectView, error)
	Delete(ctx context.Context, id primitive.ObjectID) (*domain.Project, error)
	SetProgress(ctx context.Context, id primitive.ObjectID, progress *int) (*domain.ProjectView, error)
}

type ContactService interface {
	Create(ctx context.Context, c *domain.Contact) (*domain.Contact, error)
	List(ctx context.Context) ([]*domain.Contact, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status domain.ContactStatus) (*domain.Contact, error)
}

type EventService interface {
	Create(ctx context.Context, e *domain.Event, createdBy primitive.ObjectID) (*domain.EventView, error)
	List(ctx context.Context, filter domain.EventFilter) ([]*domain.EventView, error)
	Upcoming(ctx context.Context, limit int) ([]*domain.EventView, error)
	Get(ctx context.Context, id primitive.ObjectID) (*domain.EventView, error)
	Update(ctx context.Context, id primitive.ObjectID, patch domain.EventPatch) (*domain.EventView, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ActivityLister reads the activity log.
type ActivityLister interface {
	List(ctx context.Context, f domain.ActivityFilter) ([]*domain.Activity, error)
}

// Services bundles what the REST handlers call into.
type Services struct {
	Tasks      TaskService
	Projects   ProjectService
	Contacts   ContactService
	Events     EventService
	Activities ActivityLister
}

// REST handles HTTP requests for the API Gateway.
type REST struct {
	svc    Services
	logger *slog.Logger
	checks []telemetry.ReadyCheck
	now    func() time.Time
}

// NewREST creates a new REST handler. checks back /readyz.
func NewREST(svc Services, logger *slog.Logger, checks ...telemetry.ReadyCheck) *REST {
	return &REST{
		svc:    svc,
		logger: logger,
		checks: checks,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Healthz handles GET /healthz.
func (h *REST) Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Readyz handles GET /readyz by running every configured dependency check.
func (h *REST) Readyz(w http.ResponseWriter, r *http.Request) {
	telemetry.ReadyHandler(h.logger, h.checks...).ServeHTTP(w, r)
}

// startSpan opens a server span named after the operation and returns the
// request bound to the span's context.
func startSpan(r *http.Request, name string) (*http.Request, trace.Span) {
	ctx, span := otel.Tracer("api-gateway").Start(r.Context(), "api_gateway."+name)
	return r.WithContext(ctx), span
}
