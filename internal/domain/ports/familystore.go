// Package ports defines interfaces for external service communication.
package ports

import (
	"context"
	"errors"

	"github.com/ersonp/roots-core/internal/domain/entities"
)

// ErrNotFound is returned (wrapped) when a record addressed by ID does not exist.
var ErrNotFound = errors.New("not found")

// StoreError reports a persistence failure (I/O, constraint, disk full).
// Retrying the same logical operation is safe: validation already passed and
// the failed transaction left nothing behind.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return e.Op + ": " + e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// PersonFilter selects and pages people. Results are ordered by folded last
// name, folded first name, then ID.
type PersonFilter struct {
	// Search matches a folded substring of the first or last name. Empty matches all.
	Search string
	// Limit caps the number of results. Zero means no cap.
	Limit  int
	Offset int
}

// FamilyReader is the read side of the family store. Find methods return
// (nil, nil) when nothing matches.
type FamilyReader interface {
	FindPerson(ctx context.Context, id string) (*entities.Person, error)
	ListPeople(ctx context.Context, filter PersonFilter) ([]entities.Person, error)
	CountPeople(ctx context.Context) (int, error)

	FindRelationship(ctx context.Context, id string) (*entities.Relationship, error)
	// FindRelationshipsByPerson returns the edges owned by the person, in store order.
	FindRelationshipsByPerson(ctx context.Context, personID string) ([]entities.Relationship, error)
	// FindRelationshipsBetween returns the edges owned by personID that point at relatedID.
	FindRelationshipsBetween(ctx context.Context, personID, relatedID string) ([]entities.Relationship, error)
	ListRelationships(ctx context.Context) ([]entities.Relationship, error)
	CountRelationships(ctx context.Context) (int, error)

	FindEvent(ctx context.Context, id string) (*entities.Event, error)
	FindEventsByPerson(ctx context.Context, personID string) ([]entities.Event, error)

	FindMedia(ctx context.Context, id string) (*entities.Media, error)
	FindMediaBySubject(ctx context.Context, kind entities.SubjectKind, subjectID string) ([]entities.Media, error)
	FindMediaLinks(ctx context.Context, mediaID string) ([]entities.MediaLink, error)

	FindSource(ctx context.Context, id string) (*entities.Source, error)
	ListSources(ctx context.Context) ([]entities.Source, error)
	FindCitationsBySubject(ctx context.Context, kind entities.SubjectKind, subjectID string) ([]entities.Citation, error)
	FindCitationsBySource(ctx context.Context, sourceID string) ([]entities.Citation, error)

	// FindAuditLog returns audit entries for a subject, newest first.
	FindAuditLog(ctx context.Context, subjectID string) ([]entities.AuditEntry, error)
}

// FamilyTx is a single writable unit of work. Every write made through it
// commits or rolls back together.
type FamilyTx interface {
	FamilyReader

	SavePerson(ctx context.Context, person *entities.Person) error
	DeletePerson(ctx context.Context, id string) error

	SaveRelationship(ctx context.Context, rel *entities.Relationship) error
	DeleteRelationship(ctx context.Context, id string) error
	// DeleteRelationshipsByPerson removes every edge where the person is either end.
	DeleteRelationshipsByPerson(ctx context.Context, personID string) error

	SaveEvent(ctx context.Context, event *entities.Event) error
	DeleteEvent(ctx context.Context, id string) error
	DeleteEventsByPerson(ctx context.Context, personID string) error

	SaveMedia(ctx context.Context, media *entities.Media) error
	DeleteMedia(ctx context.Context, id string) error
	LinkMedia(ctx context.Context, link entities.MediaLink) error
	UnlinkMedia(ctx context.Context, link entities.MediaLink) error
	DeleteMediaLinks(ctx context.Context, mediaID string) error
	DeleteMediaLinksBySubject(ctx context.Context, kind entities.SubjectKind, subjectID string) error
	ClearMediaSource(ctx context.Context, sourceID string) error

	SaveSource(ctx context.Context, source *entities.Source) error
	DeleteSource(ctx context.Context, id string) error
	SaveCitation(ctx context.Context, citation *entities.Citation) error
	DeleteCitation(ctx context.Context, citation entities.Citation) error
	DeleteCitationsBySubject(ctx context.Context, kind entities.SubjectKind, subjectID string) error
	DeleteCitationsBySource(ctx context.Context, sourceID string) error

	// LogAction appends an audit entry as part of the transaction.
	LogAction(ctx context.Context, action string, subjectID string, details map[string]any) error
}

// FamilyStore is the durable entity store. Reads outside a transaction may
// run concurrently with a writer and observe the last committed state.
type FamilyStore interface {
	FamilyReader

	// EnsureSchema creates the schema if it doesn't exist.
	EnsureSchema(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error

	// WithTx runs fn in one transaction. The transaction commits when fn
	// returns nil and rolls back otherwise.
	WithTx(ctx context.Context, fn func(tx FamilyTx) error) error
}
