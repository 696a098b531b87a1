package entities

import "time"

// EventType categorizes a life event. Unlisted values are accepted as-is.
type EventType string

const (
	EventBirth       EventType = "Birth"
	EventDeath       EventType = "Death"
	EventMarriage    EventType = "Marriage"
	EventDivorce     EventType = "Divorce"
	EventBaptism     EventType = "Baptism"
	EventBurial      EventType = "Burial"
	EventResidence   EventType = "Residence"
	EventOccupation  EventType = "Occupation"
	EventImmigration EventType = "Immigration"
	EventOther       EventType = "Other"
)

// Event is a dated occurrence in exactly one person's life.
type Event struct {
	ID          string     `json:"id"`
	Type        EventType  `json:"type"`
	Date        *time.Time `json:"date,omitempty"`
	Place       string     `json:"place,omitempty"`
	Description string     `json:"description"`
	PersonID    string     `json:"person_id"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
