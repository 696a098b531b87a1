package entities

import (
	"fmt"
	"strings"
	"time"
)

// RelationType defines the kind of edge between two people.
type RelationType string

// An edge (P -> R, RelationParent) reads "P is a parent of R".
const (
	RelationParent  RelationType = "Parent"
	RelationChild   RelationType = "Child"
	RelationSpouse  RelationType = "Spouse"
	RelationSibling RelationType = "Sibling"
)

// reciprocals maps each relation type to the type of its paired edge.
var reciprocals = map[RelationType]RelationType{
	RelationParent:  RelationChild,
	RelationChild:   RelationParent,
	RelationSpouse:  RelationSpouse,
	RelationSibling: RelationSibling,
}

// RelationTypes lists every valid relation type in display order.
var RelationTypes = []RelationType{RelationParent, RelationChild, RelationSpouse, RelationSibling}

// IsValid reports whether t is one of the closed set of relation types.
func (t RelationType) IsValid() bool {
	_, ok := reciprocals[t]
	return ok
}

// Reciprocal returns the type of the inverse edge. Parent and Child swap,
// Spouse and Sibling map to themselves.
func (t RelationType) Reciprocal() RelationType {
	if r, ok := reciprocals[t]; ok {
		return r
	}
	return t
}

// ParseRelationType accepts a relation type name in any letter case.
func ParseRelationType(s string) (RelationType, error) {
	for _, t := range RelationTypes {
		if strings.EqualFold(string(t), strings.TrimSpace(s)) {
			return t, nil
		}
	}
	return "", fmt.Errorf("invalid relationship type: %s (valid: parent, child, spouse, sibling)", s)
}

// Relationship is one directed half of a reciprocal pair.
type Relationship struct {
	ID              string       `json:"id"`
	Type            RelationType `json:"type"`
	PersonID        string       `json:"person_id"`
	RelatedPersonID string       `json:"related_person_id"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

// IsReciprocalOf reports whether r is the inverse half of other.
func (r *Relationship) IsReciprocalOf(other *Relationship) bool {
	return r.PersonID == other.RelatedPersonID &&
		r.RelatedPersonID == other.PersonID &&
		r.Type == other.Type.Reciprocal()
}
