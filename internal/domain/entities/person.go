// Package entities contains core domain data structures.
package entities

import (
	"strings"
	"time"
)

// Gender tags a person. Values outside the constants are stored as given.
type Gender string

const (
	GenderMale    Gender = "male"
	GenderFemale  Gender = "female"
	GenderOther   Gender = "other"
	GenderUnknown Gender = "unknown"
)

// Person is the aggregation root of the family graph. Relationships, events,
// media and citations reference a person by ID.
type Person struct {
	ID         string     `json:"id"`
	FirstName  string     `json:"first_name"`
	LastName   string     `json:"last_name"`
	Gender     Gender     `json:"gender"`
	IsLiving   bool       `json:"is_living"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	BirthPlace string     `json:"birth_place,omitempty"`
	DeathDate  *time.Time `json:"death_date,omitempty"`
	DeathPlace string     `json:"death_place,omitempty"`
	Notes      string     `json:"notes,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// FullName joins the non-empty name parts with a space.
func (p *Person) FullName() string {
	parts := make([]string, 0, 2)
	if first := strings.TrimSpace(p.FirstName); first != "" {
		parts = append(parts, first)
	}
	if last := strings.TrimSpace(p.LastName); last != "" {
		parts = append(parts, last)
	}
	return strings.Join(parts, " ")
}

// Age returns the completed years between the birth date and either the death
// date or now. ok is false when the birth date is unknown.
func (p *Person) Age(now time.Time) (age int, ok bool) {
	if p.BirthDate == nil {
		return 0, false
	}
	end := now
	if p.DeathDate != nil {
		end = *p.DeathDate
	}
	birth := *p.BirthDate
	age = end.Year() - birth.Year()
	if end.Month() < birth.Month() || (end.Month() == birth.Month() && end.Day() < birth.Day()) {
		age--
	}
	if age < 0 {
		age = 0
	}
	return age, true
}

// BornBefore reports whether p's birth date is strictly earlier than other's.
// known is false when either date is missing.
func (p *Person) BornBefore(other *Person) (before bool, known bool) {
	if p.BirthDate == nil || other.BirthDate == nil {
		return false, false
	}
	return p.BirthDate.Before(*other.BirthDate), true
}
