package domain_test

import (
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/SharanBarfa/ERM-server/internal/domain"
)

func TestTaskStatus_Valid(t *testing.T) {
	for _, s := range []domain.TaskStatus{
		domain.TaskPending, domain.TaskInProgress, domain.TaskCompleted, domain.TaskOnHold,
	} {
		if !s.Valid() {
			t.Errorf("Valid(%q) = false, want true", s)
		}
	}
	for _, s := range []domain.TaskStatus{"", "done", "PENDING"} {
		if s.Valid() {
			t.Errorf("Valid(%q) = true, want false", s)
		}
	}
}

func TestNewTask_Build_Defaults(t *testing.T) {
	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	creator := primitive.NewObjectID()
	n := domain.NewTask{Title: "  Draft plan  ", Project: primitive.NewObjectID()}

	task, err := n.Build(creator, now)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if task.Title != "Draft plan" {
		t.Errorf("Title = %q, want trimmed", task.Title)
	}
	if task.Status != domain.TaskPending {
		t.Errorf("Status = %q, want pending", task.Status)
	}
	if task.Priority != domain.PriorityMedium {
		t.Errorf("Priority = %q, want medium", task.Priority)
	}
	if task.CreatedBy != creator {
		t.Errorf("CreatedBy = %v, want %v", task.CreatedBy, creator)
	}
	if task.CompletedAt != nil {
		t.Errorf("CompletedAt = %v, want nil", task.CompletedAt)
	}
	if !task.CreatedAt.Equal(now) || !task.UpdatedAt.Equal(now) {
		t.Errorf("timestamps = %v/%v, want %v", task.CreatedAt, task.UpdatedAt, now)
	}
}

func TestNewTask_Build_Rejects(t *testing.T) {
	project := primitive.NewObjectID()
	tests := []struct {
		name  string
		in    domain.NewTask
		field string
	}{
		{"missing title", domain.NewTask{Project: project}, "title"},
		{"long title", domain.NewTask{Title: strings.Repeat("x", 101), Project: project}, "title"},
		{"long description", domain.NewTask{Title: "t", Description: strings.Repeat("x", 1001), Project: project}, "description"},
		{"missing project", domain.NewTask{Title: "t"}, "project"},
		{"bad status", domain.NewTask{Title: "t", Project: project, Status: "done"}, "status"},
		{"bad priority", domain.NewTask{Title: "t", Project: project, Priority: "asap"}, "priority"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.in.Build(primitive.NewObjectID(), time.Now())
			if err == nil {
				t.Fatal("Build() error = nil, want validation error")
			}
			if domain.KindOf(err) != domain.KindValidation {
				t.Fatalf("KindOf() = %v, want validation", domain.KindOf(err))
			}
			if verr := err.(*domain.ValidationError); verr.Field != tt.field {
				t.Errorf("Field = %q, want %q", verr.Field, tt.field)
			}
		})
	}
}

func TestNewTask_Build_CompletedStampsCompletedAt(t *testing.T) {
	now := time.Now().UTC()
	n := domain.NewTask{Title: "t", Project: primitive.NewObjectID(), Status: domain.TaskCompleted}
	task, err := n.Build(primitive.NewObjectID(), now)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if task.CompletedAt == nil || !task.CompletedAt.Equal(now) {
		t.Errorf("CompletedAt = %v, want %v", task.CompletedAt, now)
	}
}

func TestTaskPatch_Validate(t *testing.T) {
	bad := domain.TaskStatus("archived")
	if err := (&domain.TaskPatch{Status: &bad}).Validate(); err == nil {
		t.Error("expected error for unknown status")
	}

	title := "  renamed "
	p := &domain.TaskPatch{Title: &title}
	if err := p.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if *p.Title != "renamed" {
		t.Errorf("Title = %q, want trimmed", *p.Title)
	}

	zero := primitive.NilObjectID
	if err := (&domain.TaskPatch{Project: &zero}).Validate(); err == nil {
		t.Error("expected error for empty project")
	}
}
