package handler

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/SharanBarfa/ERM-server/internal/domain"
	"github.com/SharanBarfa/ERM-server/internal/export"
	"github.com/SharanBarfa/ERM-server/internal/tasks"
)

func (h *REST) ListProjects(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Projects.List(r.Context(), domain.ProjectFilter{})
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	writeList(w, list)
}

// ListDepartmentProjects handles GET /api/v1/projects/department/{id}.
func (h *REST) ListDepartmentProjects(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Department")
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	list, err := h.svc.Projects.ListByDepartment(r.Context(), id)
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	writeList(w, list)
}

// ListManagerProjects handles GET /api/v1/projects/manager/{id}.
func (h *REST) ListManagerProjects(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Manager")
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	list, err := h.svc.Projects.ListByManager(r.Context(), id)
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	writeList(w, list)
}

func (h *REST) CreateProject(w http.ResponseWriter, r *http.Request) {
	var p domain.Project
	if err := decode(r, &p); err != nil {
		h.fail(w, r, nil, err)
		return
	}
	p.ID = primitive.NilObjectID
	view, err := h.svc.Projects.Create(r.Context(), &p)
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// GetProject handles GET /api/v1/projects/{id}; the view nests the project's tasks.
func (h *REST) GetProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Project")
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	view, err := h.svc.Projects.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *REST) UpdateProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Project")
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	var patch domain.ProjectPatch
	if err := decode(r, &patch); err != nil {
		h.fail(w, r, nil, err)
		return
	}
	view, err := h.svc.Projects.Update(r.Context(), id, patch)
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *REST) DeleteProject(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Project")
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	project, err := h.svc.Projects.Delete(r.Context(), id)
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, project)
}

// SetProjectProgress handles PUT /api/v1/projects/{id}/progress.
func (h *REST) SetProjectProgress(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Project")
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	var body struct {
		Progress *int `json:"progress"`
	}
	if err := decode(r, &body); err != nil {
		h.fail(w, r, nil, err)
		return
	}
	view, err := h.svc.Projects.SetProgress(r.Context(), id, body.Progress)
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ExportProjectTasks handles GET /api/v1/projects/{id}/tasks/export. The
// workbook is rendered in memory so a failure can still be answered as JSON.
func (h *REST) ExportProjectTasks(w http.ResponseWriter, r *http.Request) {
	r, span := startSpan(r, "export_project_tasks")
	defer span.End()

	id, err := pathID(r, "id", "Project")
	if err != nil {
		h.fail(w, r, span, err)
		return
	}
	project, err := h.svc.Projects.Get(r.Context(), id)
	if err != nil {
		h.fail(w, r, span, err)
		return
	}
	list, err := h.svc.Tasks.List(r.Context(), domain.TaskFilter{Project: &id}, tasks.Basic)
	if err != nil {
		h.fail(w, r, span, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteTasks(&buf, list); err != nil {
		h.fail(w, r, span, fmt.Errorf("export project %s: %w", id.Hex(), err))
		return
	}

	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(project.Name, h.now())))
	w.WriteHeader(http.StatusOK)
	if _, err := buf.WriteTo(w); err != nil {
		h.logger.Warn("export write interrupted",
			slog.String("project_id", id.Hex()),
			slog.String("error", err.Error()),
		)
	}
}
