// Package parsers provides parsers for importing family trees from various formats.
package parsers

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
)

// RawPerson is a person parsed from an external source before validation.
type RawPerson struct {
	ID         string `json:"id,omitempty"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Gender     string `json:"gender,omitempty"`
	IsLiving   *bool  `json:"is_living,omitempty"` // Pointer to distinguish false from unset
	BirthDate  string `json:"birth_date,omitempty"`
	BirthPlace string `json:"birth_place,omitempty"`
	DeathDate  string `json:"death_date,omitempty"`
	DeathPlace string `json:"death_place,omitempty"`
	Notes      string `json:"notes,omitempty"`
	LineNum    int    `json:"-"` // Position in source file (set by parser)
}

// RawRelationship is an edge between two people referenced by ID. Only one
// direction needs to be listed; the reciprocal is created on import.
type RawRelationship struct {
	Type            string `json:"type"`
	PersonID        string `json:"person_id"`
	RelatedPersonID string `json:"related_person_id"`
	LineNum         int    `json:"-"`
}

// RawEvent is a life event parsed from an external source.
type RawEvent struct {
	ID          string `json:"id,omitempty"`
	Type        string `json:"type"`
	Date        string `json:"date,omitempty"`
	Place       string `json:"place,omitempty"`
	Description string `json:"description,omitempty"`
	PersonID    string `json:"person_id"`
	LineNum     int    `json:"-"`
}

// RawSource is a source parsed from an external source.
type RawSource struct {
	ID       string `json:"id,omitempty"`
	Type     string `json:"type,omitempty"`
	Title    string `json:"title"`
	Citation string `json:"citation,omitempty"`
	URL      string `json:"url,omitempty"`
	Notes    string `json:"notes,omitempty"`
	LineNum  int    `json:"-"`
}

// Document is a parsed family tree.
type Document struct {
	People        []RawPerson       `json:"people"`
	Relationships []RawRelationship `json:"relationships,omitempty"`
	Events        []RawEvent        `json:"events,omitempty"`
	Sources       []RawSource       `json:"sources,omitempty"`
}

// Len returns the number of records in the document.
func (d *Document) Len() int {
	return len(d.People) + len(d.Relationships) + len(d.Events) + len(d.Sources)
}

// Parser defines the interface for parsing family trees from various formats.
type Parser interface {
	Parse(r io.Reader) (*Document, error)
}

// ForFormat returns the appropriate parser for the given format.
// Supported formats: "json", "csv".
func ForFormat(format string) Parser {
	switch strings.ToLower(format) {
	case "json":
		return &JSONParser{}
	case "csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// ForFile returns the appropriate parser based on file extension.
func ForFile(filename string) Parser {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".json":
		return &JSONParser{}
	case ".csv":
		return &CSVParser{}
	default:
		return nil
	}
}

// DateLayouts are the accepted date formats, most specific first. Partial
// dates resolve to the first day of the period.
var DateLayouts = []string{time.RFC3339, "2006-01-02", "2006-01", "2006"}

// ParseDate parses a date in one of DateLayouts. An empty string yields nil.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, fmt.Errorf("invalid date %q (use YYYY-MM-DD, YYYY-MM or YYYY)", s)
}
