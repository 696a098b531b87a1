package entities

import "time"

// SubjectKind names the kind of record a link points at.
type SubjectKind string

const (
	SubjectPerson       SubjectKind = "person"
	SubjectEvent        SubjectKind = "event"
	SubjectRelationship SubjectKind = "relationship"
)

// Source is a citation record used for provenance.
type Source struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Citation  string    `json:"citation"`
	URL       string    `json:"url,omitempty"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Citation records that a source backs a person, event or relationship.
type Citation struct {
	SourceID    string      `json:"source_id"`
	SubjectKind SubjectKind `json:"subject_kind"`
	SubjectID   string      `json:"subject_id"`
	CreatedAt   time.Time   `json:"created_at"`
}
