// Package export renders task listings as spreadsheets.
package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/SharanBarfa/ERM-server/internal/domain"
)

// ContentType is the MIME type of the workbook written by WriteTasks.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	sheetName  = "Tasks"
	dateLayout = "2006-01-02"
)

type column struct {
	header string
	width  float64
	value  func(*domain.TaskView) any
}

var taskColumns = []column{
	{"Title", 40, func(t *domain.TaskView) any { return t.Title }},
	{"Status", 14, func(t *domain.TaskView) any { return string(t.Status) }},
	{"Priority", 10, func(t *domain.TaskView) any { return string(t.Priority) }},
	{"Assignee", 28, func(t *domain.TaskView) any { return assignee(t.AssignedTo) }},
	{"Due", 12, func(t *domain.TaskView) any { return day(t.DueDate) }},
	{"Completed", 12, func(t *domain.TaskView) any { return day(t.CompletedAt) }},
}

// WriteTasks streams tasks as a single-sheet xlsx workbook to w.
func WriteTasks(w io.Writer, tasks []*domain.TaskView) error {
	f := excelize.NewFile()
	defer f.Close()

	// NewFile starts with "Sheet1"; rename it rather than adding a second sheet.
	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(sheetName)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}

	header := make([]any, len(taskColumns))
	for i, col := range taskColumns {
		header[i] = col.header
		if err := sw.SetColWidth(i+1, i+1, col.width); err != nil {
			return fmt.Errorf("set column width: %w", err)
		}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for r, t := range tasks {
		row := make([]any, len(taskColumns))
		for i, col := range taskColumns {
			row[i] = col.value(t)
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := sw.SetRow(cell, row); err != nil {
			return fmt.Errorf("write row %d: %w", r+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Filename returns the attachment name for a project's export.
func Filename(projectName string, now time.Time) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		}
		return -1
	}, projectName)
	if name == "" {
		name = "project"
	}
	return fmt.Sprintf("%s-tasks-%s.xlsx", name, now.Format(dateLayout))
}

func assignee(e *domain.EmployeeRef) string {
	if e == nil {
		return ""
	}
	return strings.TrimSpace(e.FirstName + " " + e.LastName)
}

func day(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
