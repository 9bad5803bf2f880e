package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/SharanBarfa/ERM-server/internal/domain"
)

func TestWriteTasks(t *testing.T) {
	due := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	done := time.Date(2024, 4, 20, 15, 30, 0, 0, time.UTC)
	tasks := []*domain.TaskView{
		{
			Title:       "Write report",
			Status:      domain.TaskCompleted,
			Priority:    domain.PriorityHigh,
			AssignedTo:  &domain.EmployeeRef{FirstName: "Ada", LastName: "Lovelace"},
			DueDate:     &due,
			CompletedAt: &done,
		},
		{Title: "Review", Status: domain.TaskPending, Priority: domain.PriorityMedium},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteTasks(&buf, tasks))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Tasks"}, f.GetSheetList())
	rows, err := f.GetRows("Tasks")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Title", "Status", "Priority", "Assignee", "Due", "Completed"}, rows[0])
	assert.Equal(t, []string{"Write report", "completed", "high", "Ada Lovelace", "2024-05-01", "2024-04-20"}, rows[1])
	// GetRows trims trailing empty cells.
	assert.Equal(t, []string{"Review", "pending", "medium"}, rows[2])
}

func TestWriteTasks_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteTasks(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Tasks")
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFilename(t *testing.T) {
	now := time.Date(2024, 3, 9, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "Website_Redesign-tasks-2024-03-09.xlsx", Filename("Website Redesign!", now))
	assert.Equal(t, "project-tasks-2024-03-09.xlsx", Filename("???", now))
}
