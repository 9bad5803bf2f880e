package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TaskStatus represents the states a task can be in. Any transition is allowed.
type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskOnHold     TaskStatus = "on_hold"
)

// Valid reports whether s is one of the known statuses.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskInProgress, TaskCompleted, TaskOnHold:
		return true
	}
	return false
}

// Priority is the urgency of a task.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

const (
	maxTaskTitle       = 100
	maxTaskDescription = 1000
)

// Task is a unit of project work as stored in the tasks collection.
type Task struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Title       string              `bson:"title" json:"title"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Project     primitive.ObjectID  `bson:"project" json:"project"`
	AssignedTo  *primitive.ObjectID `bson:"assignedTo,omitempty" json:"assignedTo,omitempty"`
	Status      TaskStatus          `bson:"status" json:"status"`
	Priority    Priority            `bson:"priority" json:"priority"`
	DueDate     *time.Time          `bson:"dueDate,omitempty" json:"dueDate,omitempty"`
	CompletedAt *time.Time          `bson:"completedAt" json:"completedAt"`
	CreatedBy   primitive.ObjectID  `bson:"createdBy" json:"createdBy"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// NewTask is the caller-supplied part of a task on creation.
type NewTask struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Project     primitive.ObjectID  `json:"project"`
	AssignedTo  *primitive.ObjectID `json:"assignedTo"`
	Status      TaskStatus          `json:"status"`
	Priority    Priority            `json:"priority"`
	DueDate     *time.Time          `json:"dueDate"`
}

// Build validates n, applies defaults and returns the task to insert.
func (n NewTask) Build(createdBy primitive.ObjectID, now time.Time) (*Task, error) {
	title := strings.TrimSpace(n.Title)
	if title == "" {
		return nil, Invalid("title", "Please add a task title")
	}
	if len(title) > maxTaskTitle {
		return nil, Invalid("title", "Title cannot be more than %d characters", maxTaskTitle)
	}
	if len(n.Description) > maxTaskDescription {
		return nil, Invalid("description", "Description cannot be more than %d characters", maxTaskDescription)
	}
	if n.Project.IsZero() {
		return nil, Invalid("project", "Task must be associated with a project")
	}
	if createdBy.IsZero() {
		return nil, Invalid("createdBy", "Task creator is required")
	}
	status := n.Status
	if status == "" {
		status = TaskPending
	}
	if !status.Valid() {
		return nil, Invalid("status", "%q is not a valid task status", status)
	}
	priority := n.Priority
	if priority == "" {
		priority = PriorityMedium
	}
	if !priority.Valid() {
		return nil, Invalid("priority", "%q is not a valid task priority", priority)
	}

	t := &Task{
		Title:       title,
		Description: n.Description,
		Project:     n.Project,
		AssignedTo:  n.AssignedTo,
		Status:      status,
		Priority:    priority,
		DueDate:     n.DueDate,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if status == TaskCompleted {
		t.CompletedAt = &now
	}
	return t, nil
}

// TaskPatch is a partial update. Nil fields are left untouched.
// createdBy is deliberately absent: it cannot change after creation.
type TaskPatch struct {
	Title       *string             `json:"title,omitempty"`
	Description *string             `json:"description,omitempty"`
	Project     *primitive.ObjectID `json:"project,omitempty"`
	AssignedTo  *primitive.ObjectID `json:"assignedTo,omitempty"`
	Status      *TaskStatus         `json:"status,omitempty"`
	Priority    *Priority           `json:"priority,omitempty"`
	DueDate     *time.Time          `json:"dueDate,omitempty"`
	CompletedAt *time.Time          `json:"completedAt,omitempty"`

	// ClearCompletedAt writes completedAt = null. Set by the service, never decoded.
	ClearCompletedAt bool `json:"-"`
}

// Validate checks every field the patch sets.
func (p *TaskPatch) Validate() error {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return Invalid("title", "Please add a task title")
		}
		if len(title) > maxTaskTitle {
			return Invalid("title", "Title cannot be more than %d characters", maxTaskTitle)
		}
		p.Title = &title
	}
	if p.Description != nil && len(*p.Description) > maxTaskDescription {
		return Invalid("description", "Description cannot be more than %d characters", maxTaskDescription)
	}
	if p.Project != nil && p.Project.IsZero() {
		return Invalid("project", "Task must be associated with a project")
	}
	if p.Status != nil && !p.Status.Valid() {
		return Invalid("status", "%q is not a valid task status", *p.Status)
	}
	if p.Priority != nil && !p.Priority.Valid() {
		return Invalid("priority", "%q is not a valid task priority", *p.Priority)
	}
	return nil
}

// TaskFilter narrows a task listing. Zero fields match everything.
type TaskFilter struct {
	Project    *primitive.ObjectID
	AssignedTo *primitive.ObjectID
}

// TaskView is a task with its references populated for presentation.
type TaskView struct {
	ID          primitive.ObjectID `json:"_id"`
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	Project     *ProjectRef        `json:"project"`
	AssignedTo  *EmployeeRef       `json:"assignedTo"`
	Status      TaskStatus         `json:"status"`
	Priority    Priority           `json:"priority"`
	DueDate     *time.Time         `json:"dueDate,omitempty"`
	CompletedAt *time.Time         `json:"completedAt"`
	CreatedBy   *UserRef           `json:"createdBy"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}
