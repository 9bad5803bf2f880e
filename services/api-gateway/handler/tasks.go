package handler

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel/attribute"

	"github.com/SharanBarfa/ERM-server/internal/domain"
	"github.com/SharanBarfa/ERM-server/internal/tasks"
)

func projection(r *http.Request) tasks.Projection {
	return tasks.ParseProjection(r.URL.Query().Get("view"))
}

// ListTasks handles GET /api/v1/tasks?project=&employee=&view=.
func (h *REST) ListTasks(w http.ResponseWriter, r *http.Request) {
	var filter domain.TaskFilter
	var err error
	if filter.Project, err = queryID(r, "project"); err != nil {
		h.fail(w, r, nil, err)
		return
	}
	if filter.AssignedTo, err = queryID(r, "employee"); err != nil {
		h.fail(w, r, nil, err)
		return
	}
	h.listTasks(w, r, filter)
}

// ListProjectTasks handles GET /api/v1/tasks/project/{projectId}.
func (h *REST) ListProjectTasks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "projectId", "Project")
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	h.listTasks(w, r, domain.TaskFilter{Project: &id})
}

// ListEmployeeTasks handles GET /api/v1/tasks/employee/{employeeId}.
func (h *REST) ListEmployeeTasks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "employeeId", "Employee")
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	h.listTasks(w, r, domain.TaskFilter{AssignedTo: &id})
}

func (h *REST) listTasks(w http.ResponseWriter, r *http.Request, filter domain.TaskFilter) {
	list, err := h.svc.Tasks.List(r.Context(), filter, projection(r))
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	writeList(w, list)
}

// CreateTask handles POST /api/v1/tasks. The creator is always the caller.
func (h *REST) CreateTask(w http.ResponseWriter, r *http.Request) {
	r, span := startSpan(r, "create_task")
	defer span.End()

	var in domain.NewTask
	if err := decode(r, &in); err != nil {
		h.fail(w, r, span, err)
		return
	}
	view, err := h.svc.Tasks.Create(r.Context(), in, caller(r).UserID, projection(r))
	if err != nil {
		h.fail(w, r, span, err)
		return
	}
	span.SetAttributes(attribute.String("task.id", view.ID.Hex()))
	writeJSON(w, http.StatusCreated, view)
}

// GetTask handles GET /api/v1/tasks/{id}.
func (h *REST) GetTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Task")
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	view, err := h.svc.Tasks.Get(r.Context(), id, projection(r))
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// UpdateTask handles PUT /api/v1/tasks/{id}.
func (h *REST) UpdateTask(w http.ResponseWriter, r *http.Request) {
	r, span := startSpan(r, "update_task")
	defer span.End()

	id, err := pathID(r, "id", "Task")
	if err != nil {
		h.fail(w, r, span, err)
		return
	}
	span.SetAttributes(attribute.String("task.id", id.Hex()))
	var patch domain.TaskPatch
	if err := decode(r, &patch); err != nil {
		h.fail(w, r, span, err)
		return
	}
	view, err := h.svc.Tasks.Update(r.Context(), id, patch, projection(r))
	if err != nil {
		h.fail(w, r, span, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// SetTaskStatus handles PUT /api/v1/tasks/{id}/status.
func (h *REST) SetTaskStatus(w http.ResponseWriter, r *http.Request) {
	r, span := startSpan(r, "set_task_status")
	defer span.End()

	id, err := pathID(r, "id", "Task")
	if err != nil {
		h.fail(w, r, span, err)
		return
	}
	var body struct {
		Status domain.TaskStatus `json:"status"`
	}
	if err := decode(r, &body); err != nil {
		h.fail(w, r, span, err)
		return
	}
	span.SetAttributes(
		attribute.String("task.id", id.Hex()),
		attribute.String("task.status", string(body.Status)),
	)
	view, err := h.svc.Tasks.SetStatus(r.Context(), id, body.Status, projection(r))
	if err != nil {
		h.fail(w, r, span, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// AssignTask handles PUT /api/v1/tasks/{id}/assign.
func (h *REST) AssignTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Task")
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	var body struct {
		EmployeeID primitive.ObjectID `json:"employeeId"`
	}
	if err := decode(r, &body); err != nil {
		h.fail(w, r, nil, err)
		return
	}
	view, err := h.svc.Tasks.Assign(r.Context(), id, body.EmployeeID, projection(r))
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// DeleteTask handles DELETE /api/v1/tasks/{id}.
func (h *REST) DeleteTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id", "Task")
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	task, err := h.svc.Tasks.Delete(r.Context(), id)
	if err != nil {
		h.fail(w, r, nil, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}
