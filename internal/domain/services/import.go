package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/ersonp/roots-core/internal/domain/entities"
	"github.com/ersonp/roots-core/internal/domain/ports"
	"github.com/ersonp/roots-core/internal/infrastructure/parsers"
)

// ConflictStrategy defines how to handle existing records during import.
type ConflictStrategy string

const (
	// ConflictSkip skips records that already exist (by ID).
	ConflictSkip ConflictStrategy = "skip"
	// ConflictOverwrite overwrites existing records with new data.
	ConflictOverwrite ConflictStrategy = "overwrite"
)

// ImportOptions controls import behavior.
type ImportOptions struct {
	DryRun     bool             // Validate without saving
	OnConflict ConflictStrategy // How to handle existing records
}

// ImportError represents an error for a specific record during import.
type ImportError struct {
	Section string // people, relationships, events or sources
	Line    int    // Line number (1-indexed, 0 if unknown)
	Field   string // Which field has the error
	Value   string // The invalid value
	Message string // Human-readable error message
}

func (e ImportError) Error() string {
	prefix := e.Section
	if e.Line > 0 {
		prefix = fmt.Sprintf("%s line %d", e.Section, e.Line)
	}
	if prefix == "" {
		return e.Message
	}
	return prefix + ": " + e.Message
}

// ImportResult contains the result of an import operation.
type ImportResult struct {
	Imported int
	Skipped  int
	Errors   []ImportError
}

// ImportService loads parsed family trees. Relationships pass through the
// same pairing and validation as RelationshipService.Create, so an import
// cannot leave a one-sided edge.
type ImportService struct {
	store  ports.FamilyStore
	writer *Writer
}

// NewImportService creates a new import service.
func NewImportService(store ports.FamilyStore, writer *Writer) *ImportService {
	return &ImportService{store: store, writer: writer}
}

type importBatch struct {
	people  []entities.Person
	sources []entities.Source
	events  []lineEvent
	rels    []parsers.RawRelationship
}

type lineEvent struct {
	event entities.Event
	line  int
}

// Import validates and imports a parsed document in one transaction. Records
// that fail validation are reported and left out; a store failure aborts the
// whole import.
func (s *ImportService) Import(ctx context.Context, doc *parsers.Document, opts ImportOptions) (*ImportResult, error) {
	result := &ImportResult{}
	batch := s.convert(doc, result)

	if opts.DryRun {
		result.Imported = len(batch.people) + len(batch.sources) + len(batch.events) + len(batch.rels)
		return result, nil
	}

	err := s.writer.Mutate(ctx, func(tx ports.FamilyTx, m *Mutation) error {
		res := ImportResult{Errors: append([]ImportError(nil), result.Errors...)}

		for i := range batch.people {
			imported, err := s.importPerson(ctx, tx, m, &batch.people[i], opts.OnConflict)
			if err != nil {
				return err
			}
			tally(&res, imported)
		}
		for i := range batch.sources {
			imported, err := s.importSource(ctx, tx, m, &batch.sources[i], opts.OnConflict)
			if err != nil {
				return err
			}
			tally(&res, imported)
		}
		for i := range batch.events {
			imported, err := s.importEvent(ctx, tx, m, &batch.events[i].event, opts.OnConflict)
			if err != nil {
				if isRecordError(err) {
					res.Errors = append(res.Errors, ImportError{Section: "events", Line: batch.events[i].line, Message: err.Error()})
					continue
				}
				return err
			}
			tally(&res, imported)
		}
		for _, raw := range batch.rels {
			relType, _ := entities.ParseRelationType(raw.Type)
			rel, created, err := createPair(ctx, tx, m, relType, raw.PersonID, raw.RelatedPersonID)
			if err != nil {
				if isRecordError(err) {
					res.Errors = append(res.Errors, ImportError{Section: "relationships", Line: raw.LineNum, Message: err.Error()})
					continue
				}
				return err
			}
			if created {
				m.Record(ChangeCreated, EntityRelationship, rel.ID)
				res.Imported++
			} else {
				res.Skipped++
			}
		}

		if err := tx.LogAction(ctx, "tree_imported", "", map[string]any{
			"imported": res.Imported,
			"skipped":  res.Skipped,
			"errors":   len(res.Errors),
		}); err != nil {
			return fmt.Errorf("logging action: %w", err)
		}
		*result = res
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("importing: %w", err)
	}
	return result, nil
}

func tally(res *ImportResult, imported bool) {
	if imported {
		res.Imported++
	} else {
		res.Skipped++
	}
}

func isRecordError(err error) bool {
	return errors.Is(err, ErrInvalidRelationship) ||
		errors.Is(err, ErrInvalidData) ||
		errors.Is(err, ErrNotFound)
}

// convert validates raw records and turns the valid ones into entities.
func (s *ImportService) convert(doc *parsers.Document, result *ImportResult) *importBatch {
	batch := &importBatch{}

	for i := range doc.People {
		raw := &doc.People[i]
		person, ie := convertPerson(raw, lineOf(raw.LineNum, i))
		if ie != nil {
			result.Errors = append(result.Errors, *ie)
			continue
		}
		batch.people = append(batch.people, *person)
	}

	for i := range doc.Sources {
		raw := &doc.Sources[i]
		line := lineOf(raw.LineNum, i)
		source := entities.Source{
			ID:       strings.TrimSpace(raw.ID),
			Type:     strings.ToLower(strings.TrimSpace(raw.Type)),
			Title:    strings.TrimSpace(raw.Title),
			Citation: raw.Citation,
			URL:      raw.URL,
			Notes:    raw.Notes,
		}
		if source.Type == "" {
			source.Type = "other"
		}
		if err := validateSource(&source); err != nil {
			result.Errors = append(result.Errors, ImportError{Section: "sources", Line: line, Field: "title", Message: err.Error()})
			continue
		}
		batch.sources = append(batch.sources, source)
	}

	for i := range doc.Events {
		raw := &doc.Events[i]
		line := lineOf(raw.LineNum, i)
		if strings.TrimSpace(raw.PersonID) == "" {
			result.Errors = append(result.Errors, ImportError{Section: "events", Line: line, Field: "person_id", Message: "missing required field: person_id"})
			continue
		}
		date, err := parsers.ParseDate(raw.Date)
		if err != nil {
			result.Errors = append(result.Errors, ImportError{Section: "events", Line: line, Field: "date", Value: raw.Date, Message: err.Error()})
			continue
		}
		eventType := entities.EventType(strings.TrimSpace(raw.Type))
		if eventType == "" {
			eventType = entities.EventOther
		}
		batch.events = append(batch.events, lineEvent{
			event: entities.Event{
				ID:          strings.TrimSpace(raw.ID),
				Type:        eventType,
				Date:        date,
				Place:       raw.Place,
				Description: raw.Description,
				PersonID:    strings.TrimSpace(raw.PersonID),
			},
			line: line,
		})
	}

	for i := range doc.Relationships {
		raw := doc.Relationships[i]
		raw.LineNum = lineOf(raw.LineNum, i)
		if _, err := entities.ParseRelationType(raw.Type); err != nil {
			result.Errors = append(result.Errors, ImportError{Section: "relationships", Line: raw.LineNum, Field: "type", Value: raw.Type, Message: err.Error()})
			continue
		}
		if raw.PersonID == "" || raw.RelatedPersonID == "" {
			result.Errors = append(result.Errors, ImportError{Section: "relationships", Line: raw.LineNum, Field: "person_id", Message: "missing required field: person_id or related_person_id"})
			continue
		}
		batch.rels = append(batch.rels, raw)
	}

	return batch
}

func lineOf(lineNum, index int) int {
	if lineNum == 0 {
		return index + 1
	}
	return lineNum
}

// convertPerson validates a single raw person.
func convertPerson(raw *parsers.RawPerson, line int) (*entities.Person, *ImportError) {
	person := &entities.Person{
		ID:         strings.TrimSpace(raw.ID),
		FirstName:  strings.TrimSpace(raw.FirstName),
		LastName:   strings.TrimSpace(raw.LastName),
		Gender:     entities.Gender(strings.ToLower(strings.TrimSpace(raw.Gender))),
		BirthPlace: raw.BirthPlace,
		DeathPlace: raw.DeathPlace,
		Notes:      raw.Notes,
	}
	if person.Gender == "" {
		person.Gender = entities.GenderUnknown
	}

	birth, err := parsers.ParseDate(raw.BirthDate)
	if err != nil {
		return nil, &ImportError{Section: "people", Line: line, Field: "birth_date", Value: raw.BirthDate, Message: err.Error()}
	}
	death, err := parsers.ParseDate(raw.DeathDate)
	if err != nil {
		return nil, &ImportError{Section: "people", Line: line, Field: "death_date", Value: raw.DeathDate, Message: err.Error()}
	}
	person.BirthDate = birth
	person.DeathDate = death

	// Without an explicit flag, a recorded death means not living.
	person.IsLiving = death == nil
	if raw.IsLiving != nil {
		person.IsLiving = *raw.IsLiving
	}

	if err := validatePerson(person); err != nil {
		return nil, &ImportError{Section: "people", Line: line, Field: "first_name", Message: err.Error()}
	}
	return person, nil
}

func (s *ImportService) importPerson(ctx context.Context, tx ports.FamilyTx, m *Mutation, person *entities.Person, onConflict ConflictStrategy) (bool, error) {
	if person.ID != "" {
		existing, err := tx.FindPerson(ctx, person.ID)
		if err != nil {
			return false, fmt.Errorf("finding person: %w", err)
		}
		if existing != nil {
			if onConflict == ConflictSkip {
				return false, nil
			}
			person.CreatedAt = existing.CreatedAt
			person.UpdatedAt = m.Now
			if err := tx.SavePerson(ctx, person); err != nil {
				return false, fmt.Errorf("saving person: %w", err)
			}
			m.Record(ChangeUpdated, EntityPerson, person.ID)
			return true, nil
		}
	}
	if err := createPerson(ctx, tx, m, person); err != nil {
		return false, err
	}
	return true, nil
}

func (s *ImportService) importSource(ctx context.Context, tx ports.FamilyTx, m *Mutation, source *entities.Source, onConflict ConflictStrategy) (bool, error) {
	if source.ID != "" {
		existing, err := tx.FindSource(ctx, source.ID)
		if err != nil {
			return false, fmt.Errorf("finding source: %w", err)
		}
		if existing != nil {
			if onConflict == ConflictSkip {
				return false, nil
			}
			source.CreatedAt = existing.CreatedAt
			source.UpdatedAt = m.Now
			if err := tx.SaveSource(ctx, source); err != nil {
				return false, fmt.Errorf("saving source: %w", err)
			}
			m.Record(ChangeUpdated, EntitySource, source.ID)
			return true, nil
		}
	}
	if err := createSource(ctx, tx, m, source); err != nil {
		return false, err
	}
	return true, nil
}

func (s *ImportService) importEvent(ctx context.Context, tx ports.FamilyTx, m *Mutation, event *entities.Event, onConflict ConflictStrategy) (bool, error) {
	if event.ID != "" {
		existing, err := tx.FindEvent(ctx, event.ID)
		if err != nil {
			return false, fmt.Errorf("finding event: %w", err)
		}
		if existing != nil {
			if onConflict == ConflictSkip {
				return false, nil
			}
			if _, err := mustFindPerson(ctx, tx, event.PersonID); err != nil {
				return false, err
			}
			event.CreatedAt = existing.CreatedAt
			event.UpdatedAt = m.Now
			if err := tx.SaveEvent(ctx, event); err != nil {
				return false, fmt.Errorf("saving event: %w", err)
			}
			m.Record(ChangeUpdated, EntityEvent, event.ID)
			return true, nil
		}
	}
	if err := createEvent(ctx, tx, m, event); err != nil {
		return false, err
	}
	return true, nil
}
