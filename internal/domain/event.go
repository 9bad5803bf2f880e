package domain

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventType categorises a calendar event.
type EventType string

const (
	EventMeeting  EventType = "meeting"
	EventTraining EventType = "training"
	EventHoliday  EventType = "holiday"
	EventGeneral  EventType = "event"
	EventOther    EventType = "other"
)

func (t EventType) Valid() bool {
	switch t {
	case EventMeeting, EventTraining, EventHoliday, EventGeneral, EventOther:
		return true
	}
	return false
}

// Event is a scheduled company event.
type Event struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Title        string             `bson:"title" json:"title"`
	Description  string             `bson:"description" json:"description"`
	Date         time.Time          `bson:"date" json:"date"`
	EndDate      *time.Time         `bson:"endDate,omitempty" json:"endDate,omitempty"`
	Location     string             `bson:"location,omitempty" json:"location,omitempty"`
	Participants int                `bson:"participants" json:"participants"`
	Type         EventType          `bson:"type" json:"type"`
	CreatedBy    primitive.ObjectID `bson:"createdBy" json:"createdBy"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// Validate normalises e and checks required fields.
func (e *Event) Validate() error {
	e.Title = strings.TrimSpace(e.Title)
	if e.Title == "" {
		return Invalid("title", "Event title is required")
	}
	if strings.TrimSpace(e.Description) == "" {
		return Invalid("description", "Event description is required")
	}
	if e.Date.IsZero() {
		return Invalid("date", "Event date is required")
	}
	if e.EndDate != nil && e.EndDate.Before(e.Date) {
		return Invalid("endDate", "End date cannot be before the event date")
	}
	if e.Participants < 0 {
		return Invalid("participants", "Participants cannot be negative")
	}
	if e.Type == "" {
		e.Type = EventGeneral
	}
	if !e.Type.Valid() {
		return Invalid("type", "%q is not a valid event type", e.Type)
	}
	if e.CreatedBy.IsZero() {
		return Invalid("createdBy", "Event creator is required")
	}
	return nil
}

// EventPatch is a partial event update.
type EventPatch struct {
	Title        *string    `json:"title,omitempty"`
	Description  *string    `json:"description,omitempty"`
	Date         *time.Time `json:"date,omitempty"`
	EndDate      *time.Time `json:"endDate,omitempty"`
	Location     *string    `json:"location,omitempty"`
	Participants *int       `json:"participants,omitempty"`
	Type         *EventType `json:"type,omitempty"`
}

func (p *EventPatch) Validate() error {
	if p.Title != nil {
		title := strings.TrimSpace(*p.Title)
		if title == "" {
			return Invalid("title", "Event title is required")
		}
		p.Title = &title
	}
	if p.Description != nil && strings.TrimSpace(*p.Description) == "" {
		return Invalid("description", "Event description is required")
	}
	if p.Date != nil && p.Date.IsZero() {
		return Invalid("date", "Event date is required")
	}
	if p.Participants != nil && *p.Participants < 0 {
		return Invalid("participants", "Participants cannot be negative")
	}
	if p.Type != nil && !p.Type.Valid() {
		return Invalid("type", "%q is not a valid event type", *p.Type)
	}
	return nil
}

// EventFilter narrows an event listing. From and To bound Date inclusively.
type EventFilter struct {
	From  *time.Time
	To    *time.Time
	Type  EventType
	Limit int
}

// EventView is an event with its creator populated.
type EventView struct {
	ID           primitive.ObjectID `json:"_id"`
	Title        string             `json:"title"`
	Description  string             `json:"description"`
	Date         time.Time          `json:"date"`
	EndDate      *time.Time         `json:"endDate,omitempty"`
	Location     string             `json:"location,omitempty"`
	Participants int                `json:"participants"`
	Type         EventType          `json:"type"`
	CreatedBy    *UserRef           `json:"createdBy"`
	CreatedAt    time.Time          `json:"createdAt"`
}
