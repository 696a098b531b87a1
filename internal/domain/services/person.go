package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ersonp/roots-core/internal/domain/entities"
	"github.com/ersonp/roots-core/internal/domain/ports"
)

// PersonInput holds the fields of a new person.
type PersonInput struct {
	FirstName  string
	LastName   string
	Gender     entities.Gender
	IsLiving   bool
	BirthDate  *time.Time
	BirthPlace string
	DeathDate  *time.Time
	DeathPlace string
	Notes      string
}

// PersonUpdate is a partial update. Nil fields are left unchanged. Dates are
// cleared with ClearBirthDate and ClearDeathDate.
type PersonUpdate struct {
	FirstName      *string
	LastName       *string
	Gender         *entities.Gender
	IsLiving       *bool
	BirthDate      *time.Time
	ClearBirthDate bool
	BirthPlace     *string
	DeathDate      *time.Time
	ClearDeathDate bool
	DeathPlace     *string
	Notes          *string
}

// IsEmpty reports whether the update changes nothing.
func (u *PersonUpdate) IsEmpty() bool {
	return u.FirstName == nil && u.LastName == nil && u.Gender == nil && u.IsLiving == nil &&
		u.BirthDate == nil && !u.ClearBirthDate && u.BirthPlace == nil &&
		u.DeathDate == nil && !u.ClearDeathDate && u.DeathPlace == nil && u.Notes == nil
}

// PersonService manages person records.
type PersonService struct {
	store  ports.FamilyStore
	writer *Writer
	logger *zap.Logger
}

// NewPersonService creates a new PersonService.
func NewPersonService(store ports.FamilyStore, writer *Writer) *PersonService {
	return &PersonService{
		store:  store,
		writer: writer,
		logger: writer.Logger(),
	}
}

// Create stores a new person.
func (s *PersonService) Create(ctx context.Context, input PersonInput) (*entities.Person, error) {
	person := &entities.Person{
		FirstName:  strings.TrimSpace(input.FirstName),
		LastName:   strings.TrimSpace(input.LastName),
		Gender:     input.Gender,
		IsLiving:   input.IsLiving,
		BirthDate:  input.BirthDate,
		BirthPlace: input.BirthPlace,
		DeathDate:  input.DeathDate,
		DeathPlace: input.DeathPlace,
		Notes:      input.Notes,
	}
	if person.Gender == "" {
		person.Gender = entities.GenderUnknown
	}
	if err := validatePerson(person); err != nil {
		return nil, err
	}

	err := s.writer.Mutate(ctx, func(tx ports.FamilyTx, m *Mutation) error {
		return createPerson(ctx, tx, m, person)
	})
	if err != nil {
		return nil, err
	}
	return person, nil
}

// createPerson stamps and saves person inside tx. A preset ID is kept.
func createPerson(ctx context.Context, tx ports.FamilyTx, m *Mutation, person *entities.Person) error {
	if person.ID == "" {
		person.ID = m.NewID()
	}
	person.CreatedAt = m.Now
	person.UpdatedAt = m.Now
	if err := tx.SavePerson(ctx, person); err != nil {
		return fmt.Errorf("saving person: %w", err)
	}
	if err := tx.LogAction(ctx, "person_created", person.ID, map[string]any{"name": person.FullName()}); err != nil {
		return fmt.Errorf("logging action: %w", err)
	}
	m.Record(ChangeCreated, EntityPerson, person.ID)
	return nil
}

// Update applies a partial update and refreshes UpdatedAt.
func (s *PersonService) Update(ctx context.Context, id string, update PersonUpdate) (*entities.Person, error) {
	var result *entities.Person
	err := s.writer.Mutate(ctx, func(tx ports.FamilyTx, m *Mutation) error {
		person, err := mustFindPerson(ctx, tx, id)
		if err != nil {
			return err
		}

		changed := applyPersonUpdate(person, &update)
		if err := validatePerson(person); err != nil {
			return err
		}
		person.UpdatedAt = m.Now

		if err := tx.SavePerson(ctx, person); err != nil {
			return fmt.Errorf("saving person: %w", err)
		}
		if err := tx.LogAction(ctx, "person_updated", person.ID, map[string]any{"fields": changed}); err != nil {
			return fmt.Errorf("logging action: %w", err)
		}
		m.Record(ChangeUpdated, EntityPerson, person.ID)
		result = person
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func applyPersonUpdate(p *entities.Person, u *PersonUpdate) []string {
	var changed []string
	if u.FirstName != nil {
		p.FirstName = strings.TrimSpace(*u.FirstName)
		changed = append(changed, "first_name")
	}
	if u.LastName != nil {
		p.LastName = strings.TrimSpace(*u.LastName)
		changed = append(changed, "last_name")
	}
	if u.Gender != nil {
		p.Gender = *u.Gender
		changed = append(changed, "gender")
	}
	if u.IsLiving != nil {
		p.IsLiving = *u.IsLiving
		changed = append(changed, "is_living")
	}
	if u.ClearBirthDate {
		p.BirthDate = nil
		changed = append(changed, "birth_date")
	} else if u.BirthDate != nil {
		d := *u.BirthDate
		p.BirthDate = &d
		changed = append(changed, "birth_date")
	}
	if u.BirthPlace != nil {
		p.BirthPlace = *u.BirthPlace
		changed = append(changed, "birth_place")
	}
	if u.ClearDeathDate {
		p.DeathDate = nil
		changed = append(changed, "death_date")
	} else if u.DeathDate != nil {
		d := *u.DeathDate
		p.DeathDate = &d
		changed = append(changed, "death_date")
	}
	if u.DeathPlace != nil {
		p.DeathPlace = *u.DeathPlace
		changed = append(changed, "death_place")
	}
	if u.Notes != nil {
		p.Notes = *u.Notes
		changed = append(changed, "notes")
	}
	return changed
}

func validatePerson(p *entities.Person) error {
	if p.FirstName == "" && p.LastName == "" {
		return fmt.Errorf("%w: a person needs a first or last name", ErrInvalidData)
	}
	if p.BirthDate != nil && p.DeathDate != nil && p.DeathDate.Before(*p.BirthDate) {
		return fmt.Errorf("%w: death date is before birth date", ErrInvalidData)
	}
	return nil
}

// Delete removes the person together with every edge touching them, their
// events, and their media links and citations. Media and sources survive.
func (s *PersonService) Delete(ctx context.Context, id string) error {
	return s.writer.Mutate(ctx, func(tx ports.FamilyTx, m *Mutation) error {
		person, err := mustFindPerson(ctx, tx, id)
		if err != nil {
			return err
		}

		events, err := tx.FindEventsByPerson(ctx, id)
		if err != nil {
			return fmt.Errorf("finding events: %w", err)
		}
		for i := range events {
			if err := deleteEventLinks(ctx, tx, events[i].ID); err != nil {
				return err
			}
		}
		if err := tx.DeleteEventsByPerson(ctx, id); err != nil {
			return fmt.Errorf("deleting events: %w", err)
		}

		rels, err := tx.FindRelationshipsByPerson(ctx, id)
		if err != nil {
			return fmt.Errorf("finding relationships: %w", err)
		}
		edgeIDs := make([]string, 0, 2*len(rels))
		for i := range rels {
			edgeIDs = append(edgeIDs, rels[i].ID)
			back, err := tx.FindRelationshipsBetween(ctx, rels[i].RelatedPersonID, id)
			if err != nil {
				return fmt.Errorf("finding reciprocal: %w", err)
			}
			for j := range back {
				edgeIDs = append(edgeIDs, back[j].ID)
			}
		}
		for _, edgeID := range edgeIDs {
			if err := tx.DeleteCitationsBySubject(ctx, entities.SubjectRelationship, edgeID); err != nil {
				return fmt.Errorf("deleting relationship citations: %w", err)
			}
		}
		if err := tx.DeleteRelationshipsByPerson(ctx, id); err != nil {
			return fmt.Errorf("deleting relationships: %w", err)
		}

		if err := tx.DeleteMediaLinksBySubject(ctx, entities.SubjectPerson, id); err != nil {
			return fmt.Errorf("deleting media links: %w", err)
		}
		if err := tx.DeleteCitationsBySubject(ctx, entities.SubjectPerson, id); err != nil {
			return fmt.Errorf("deleting citations: %w", err)
		}
		if err := tx.DeletePerson(ctx, id); err != nil {
			return fmt.Errorf("deleting person: %w", err)
		}

		if err := tx.LogAction(ctx, "person_deleted", id, map[string]any{
			"name":          person.FullName(),
			"events":        len(events),
			"relationships": len(rels),
		}); err != nil {
			return fmt.Errorf("logging action: %w", err)
		}
		m.Record(ChangeDeleted, EntityPerson, id)
		return nil
	})
}

// Get returns a person by ID.
func (s *PersonService) Get(ctx context.Context, id string) (*entities.Person, error) {
	return mustFindPerson(ctx, s.store, id)
}

// FetchPeople returns people whose first or last name contains term, ignoring
// case and accents, ordered by last name then first name. An empty term
// returns everyone. Store failures are logged and yield an empty list.
func (s *PersonService) FetchPeople(ctx context.Context, term string) []entities.Person {
	people, err := s.store.ListPeople(ctx, ports.PersonFilter{Search: strings.TrimSpace(term)})
	if err != nil {
		s.logger.Warn("fetching people failed", zap.String("term", term), zap.Error(err))
		return []entities.Person{}
	}
	return people
}

// Search is FetchPeople with paging and error reporting.
func (s *PersonService) Search(ctx context.Context, term string, limit, offset int) ([]entities.Person, error) {
	people, err := s.store.ListPeople(ctx, ports.PersonFilter{
		Search: strings.TrimSpace(term),
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, fmt.Errorf("searching people: %w", err)
	}
	return people, nil
}

// Count returns the number of people.
func (s *PersonService) Count(ctx context.Context) (int, error) {
	return s.store.CountPeople(ctx)
}

// History returns the audit entries for a person, newest first.
func (s *PersonService) History(ctx context.Context, id string) ([]entities.AuditEntry, error) {
	entries, err := s.store.FindAuditLog(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding audit log: %w", err)
	}
	return entries, nil
}
