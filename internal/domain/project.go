package domain

import (
	"math"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ProjectStatus is the lifecycle stage of a project.
type ProjectStatus string

const (
	ProjectPlanning   ProjectStatus = "planning"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectOnHold     ProjectStatus = "on_hold"
	ProjectCancelled  ProjectStatus = "cancelled"
)

func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectPlanning, ProjectInProgress, ProjectCompleted, ProjectOnHold, ProjectCancelled:
		return true
	}
	return false
}

const maxProjectName = 100

// Project groups tasks. Progress is derived from the project's tasks.
type Project struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Name        string              `bson:"name" json:"name"`
	Description string              `bson:"description,omitempty" json:"description,omitempty"`
	Status      ProjectStatus       `bson:"status" json:"status"`
	StartDate   *time.Time          `bson:"startDate,omitempty" json:"startDate,omitempty"`
	EndDate     *time.Time          `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Budget      float64             `bson:"budget,omitempty" json:"budget,omitempty"`
	Manager     *primitive.ObjectID `bson:"manager,omitempty" json:"manager,omitempty"`
	Team        *primitive.ObjectID `bson:"team,omitempty" json:"team,omitempty"`
	Department  *primitive.ObjectID `bson:"department,omitempty" json:"department,omitempty"`
	Progress    int                 `bson:"progress" json:"progress"`
	CreatedAt   time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time           `bson:"updatedAt" json:"updatedAt"`
}

// Validate normalises p and checks it can be stored.
func (p *Project) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return Invalid("name", "Please add a project name")
	}
	if len(p.Name) > maxProjectName {
		return Invalid("name", "Name cannot be more than %d characters", maxProjectName)
	}
	if p.Status == "" {
		p.Status = ProjectPlanning
	}
	if !p.Status.Valid() {
		return Invalid("status", "%q is not a valid project status", p.Status)
	}
	if err := ValidateProgress(p.Progress); err != nil {
		return err
	}
	if p.StartDate != nil && p.EndDate != nil && p.EndDate.Before(*p.StartDate) {
		return Invalid("endDate", "End date cannot be before start date")
	}
	return nil
}

// ProjectPatch is a partial project update. Progress is only changed through
// the dedicated progress operation or the task rollup.
type ProjectPatch struct {
	Name        *string             `json:"name,omitempty"`
	Description *string             `json:"description,omitempty"`
	Status      *ProjectStatus      `json:"status,omitempty"`
	StartDate   *time.Time          `json:"startDate,omitempty"`
	EndDate     *time.Time          `json:"endDate,omitempty"`
	Budget      *float64            `json:"budget,omitempty"`
	Manager     *primitive.ObjectID `json:"manager,omitempty"`
	Team        *primitive.ObjectID `json:"team,omitempty"`
	Department  *primitive.ObjectID `json:"department,omitempty"`
}

func (p *ProjectPatch) Validate() error {
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		if name == "" {
			return Invalid("name", "Please add a project name")
		}
		if len(name) > maxProjectName {
			return Invalid("name", "Name cannot be more than %d characters", maxProjectName)
		}
		p.Name = &name
	}
	if p.Status != nil && !p.Status.Valid() {
		return Invalid("status", "%q is not a valid project status", *p.Status)
	}
	if p.Budget != nil && *p.Budget < 0 {
		return Invalid("budget", "Budget cannot be negative")
	}
	return nil
}

// ProjectFilter narrows a project listing.
type ProjectFilter struct {
	Manager    *primitive.ObjectID
	Department *primitive.ObjectID
}

// ValidateProgress checks a percentage is within [0,100].
func ValidateProgress(progress int) error {
	if progress < 0 || progress > 100 {
		return Invalid("progress", "Progress must be between 0 and 100")
	}
	return nil
}

// Progress returns round(100 * completed / total). A project without tasks
// has progress 0.
func Progress(completed, total int64) int {
	if total <= 0 {
		return 0
	}
	if completed > total {
		completed = total
	}
	return int(math.Round(float64(completed) * 100 / float64(total)))
}

// ProjectView is a project with manager, team and department populated.
type ProjectView struct {
	ID          primitive.ObjectID `json:"_id"`
	Name        string             `json:"name"`
	Description string             `json:"description,omitempty"`
	Status      ProjectStatus      `json:"status"`
	StartDate   *time.Time         `json:"startDate,omitempty"`
	EndDate     *time.Time         `json:"endDate,omitempty"`
	Budget      float64            `json:"budget,omitempty"`
	Manager     *EmployeeRef       `json:"manager"`
	Team        *NamedRef          `json:"team"`
	Department  *NamedRef          `json:"department"`
	Progress    int                `json:"progress"`
	CreatedAt   time.Time          `json:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt"`
}

// ProjectDetail is a single-project read: the view plus its tasks. Tasks is
// always encoded, as [] for a project without tasks.
type ProjectDetail struct {
	*ProjectView
	Tasks []*ProjectTask `json:"tasks"`
}

// ProjectTask is a task nested inside a project view.
type ProjectTask struct {
	ID          primitive.ObjectID `json:"_id"`
	Title       string             `json:"title"`
	Status      TaskStatus         `json:"status"`
	Priority    Priority           `json:"priority"`
	AssignedTo  *EmployeeRef       `json:"assignedTo"`
	DueDate     *time.Time         `json:"dueDate,omitempty"`
	CompletedAt *time.Time         `json:"completedAt"`
}
