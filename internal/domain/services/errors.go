package services

import (
	"errors"

	"github.com/ersonp/roots-core/internal/domain/ports"
)

var (
	// ErrInvalidRelationship is returned when an edge would break a structural
	// or temporal rule: a self-relationship or a parent younger than a child.
	ErrInvalidRelationship = errors.New("invalid relationship")

	// ErrDuplicateRelationship names an edge that already exists. Create never
	// returns it: an existing edge between the same two people is returned
	// instead.
	ErrDuplicateRelationship = errors.New("relationship already exists")

	// ErrInvalidData is returned when a record fails field validation.
	ErrInvalidData = errors.New("invalid data")

	// ErrNotFound is returned when an addressed record does not exist.
	ErrNotFound = ports.ErrNotFound
)
