package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/SharanBarfa/ERM-server/services/api-gateway/middleware"
)

// Middleware is a standard net/http middleware.
type Middleware = func(http.Handler) http.Handler

// Mount registers the probes and every /api/v1 route on r. authn guards all
// routes except the probes and the public contact form, which contactLimit
// guards instead.
func (h *REST) Mount(r chi.Router, authn, contactLimit Middleware) {
	admin := middleware.RequireAdmin

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)

	r.Route("/api/v1", func(r chi.Router) {
		r.With(contactLimit).Post("/contacts", h.CreateContact)

		r.Group(func(r chi.Router) {
			r.Use(authn)

			r.Route("/tasks", func(r chi.Router) {
				r.Get("/", h.ListTasks)
				r.Post("/", h.CreateTask)
				r.Get("/project/{projectId}", h.ListProjectTasks)
				r.Get("/employee/{employeeId}", h.ListEmployeeTasks)
				r.Get("/{id}", h.GetTask)
				r.Put("/{id}", h.UpdateTask)
				r.With(admin).Delete("/{id}", h.DeleteTask)
				r.Put("/{id}/status", h.SetTaskStatus)
				r.With(admin).Put("/{id}/assign", h.AssignTask)
			})

			r.Route("/projects", func(r chi.Router) {
				r.Get("/", h.ListProjects)
				r.With(admin).Post("/", h.CreateProject)
				r.Get("/department/{id}", h.ListDepartmentProjects)
				r.Get("/manager/{id}", h.ListManagerProjects)
				r.Get("/{id}", h.GetProject)
				r.With(admin).Put("/{id}", h.UpdateProject)
				r.With(admin).Delete("/{id}", h.DeleteProject)
				r.With(admin).Put("/{id}/progress", h.SetProjectProgress)
				r.Get("/{id}/tasks/export", h.ExportProjectTasks)
			})

			// Flat routes: a /contacts sub-router would swallow the public POST.
			r.With(admin).Get("/contacts", h.ListContacts)
			r.With(admin).Put("/contacts/{id}", h.UpdateContactStatus)

			r.Route("/events", func(r chi.Router) {
				r.Get("/", h.ListEvents)
				r.With(admin).Post("/", h.CreateEvent)
				r.Get("/upcoming", h.UpcomingEvents)
				r.Get("/{id}", h.GetEvent)
				r.With(admin).Put("/{id}", h.UpdateEvent)
				r.With(admin).Delete("/{id}", h.DeleteEvent)
			})

			r.With(admin).Get("/activities", h.ListActivities)
		})
	})
}
