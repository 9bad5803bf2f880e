package domain

import (
	"time"
)

// ActivityType names what happened.
type ActivityType string

const (
	ActivityNewContact    ActivityType = "new_contact"
	ActivityNewEvent      ActivityType = "new_event"
	ActivityTaskCompleted ActivityType = "task_completed"
)

// ActivityTypes lists every known type.
var ActivityTypes = []ActivityType{ActivityNewContact, ActivityNewEvent, ActivityTaskCompleted}

func (t ActivityType) Valid() bool {
	switch t {
	case ActivityNewContact, ActivityNewEvent, ActivityTaskCompleted:
		return true
	}
	return false
}

// RelatedRecord points at the record an activity is about.
type RelatedRecord struct {
	Model string `json:"model"`
	ID    string `json:"id"`
}

// Activity is an entry of the activity log.
type Activity struct {
	ID          string         `json:"id"`
	Type        ActivityType   `json:"type"`
	User        string         `json:"user,omitempty"`
	Subject     string         `json:"subject"`
	Description string         `json:"description"`
	RelatedTo   RelatedRecord  `json:"relatedTo"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}

// ActivityFilter narrows an activity listing.
type ActivityFilter struct {
	Model string
	ID    string
	Limit int
}
