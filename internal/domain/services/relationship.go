package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/ersonp/roots-core/internal/domain/entities"
	"github.com/ersonp/roots-core/internal/domain/ports"
)

// RelationshipService maintains the reciprocal relationship graph. Every edge
// it writes is paired with its reciprocal in the same transaction.
type RelationshipService struct {
	store  ports.FamilyStore
	writer *Writer
}

// NewRelationshipService creates a new RelationshipService.
func NewRelationshipService(store ports.FamilyStore, writer *Writer) *RelationshipService {
	return &RelationshipService{
		store:  store,
		writer: writer,
	}
}

// Create links person to related with relType and writes the reciprocal edge
// from related back to person.
//
// An existing edge from person to related is returned unchanged whatever its
// type, and nothing is written.
func (s *RelationshipService) Create(
	ctx context.Context,
	relType entities.RelationType,
	personID string,
	relatedPersonID string,
) (*entities.Relationship, error) {
	rel, _, err := s.Ensure(ctx, relType, personID, relatedPersonID)
	return rel, err
}

// Ensure is Create that also reports whether a new edge was written.
func (s *RelationshipService) Ensure(
	ctx context.Context,
	relType entities.RelationType,
	personID string,
	relatedPersonID string,
) (rel *entities.Relationship, created bool, err error) {
	if !relType.IsValid() {
		return nil, false, fmt.Errorf("%w: unknown type %q", ErrInvalidRelationship, relType)
	}

	err = s.writer.Mutate(ctx, func(tx ports.FamilyTx, m *Mutation) error {
		r, isNew, err := createPair(ctx, tx, m, relType, personID, relatedPersonID)
		if err != nil {
			return err
		}
		rel, created = r, isNew
		if created {
			m.Record(ChangeCreated, EntityRelationship, r.ID)
		}
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return rel, created, nil
}

// createPair writes the edge and its reciprocal inside tx. created is false
// when person already had an edge to related.
func createPair(
	ctx context.Context,
	tx ports.FamilyTx,
	m *Mutation,
	relType entities.RelationType,
	personID string,
	relatedPersonID string,
) (rel *entities.Relationship, created bool, err error) {
	if personID == relatedPersonID {
		return nil, false, fmt.Errorf("%w: a person cannot be related to themselves", ErrInvalidRelationship)
	}
	person, err := mustFindPerson(ctx, tx, personID)
	if err != nil {
		return nil, false, err
	}
	related, err := mustFindPerson(ctx, tx, relatedPersonID)
	if err != nil {
		return nil, false, err
	}
	if err := validateRelationship(relType, person, related); err != nil {
		return nil, false, err
	}

	existing, err := findExisting(ctx, tx, personID, relatedPersonID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	reciprocalType := relType.Reciprocal()
	back, err := tx.FindRelationshipsBetween(ctx, relatedPersonID, personID)
	if err != nil {
		return nil, false, fmt.Errorf("finding reciprocal: %w", err)
	}
	haveReciprocal := false
	for i := range back {
		if back[i].Type == reciprocalType {
			haveReciprocal = true
		}
	}

	rel = &entities.Relationship{
		ID:              m.NewID(),
		Type:            relType,
		PersonID:        personID,
		RelatedPersonID: relatedPersonID,
		CreatedAt:       m.Now,
		UpdatedAt:       m.Now,
	}
	if err := tx.SaveRelationship(ctx, rel); err != nil {
		return nil, false, fmt.Errorf("saving relationship: %w", err)
	}

	details := map[string]any{
		"type":              string(relType),
		"related_person_id": relatedPersonID,
	}
	if !haveReciprocal {
		reciprocal := &entities.Relationship{
			ID:              m.NewID(),
			Type:            reciprocalType,
			PersonID:        relatedPersonID,
			RelatedPersonID: personID,
			CreatedAt:       m.Now,
			UpdatedAt:       m.Now,
		}
		if err := tx.SaveRelationship(ctx, reciprocal); err != nil {
			return nil, false, fmt.Errorf("saving reciprocal relationship: %w", err)
		}
		details["reciprocal_id"] = reciprocal.ID
	}

	if err := tx.LogAction(ctx, "relationship_created", personID, details); err != nil {
		return nil, false, fmt.Errorf("logging action: %w", err)
	}
	return rel, true, nil
}

// validateRelationship applies the structural and temporal rules. Missing
// birth dates never block an edge.
func validateRelationship(relType entities.RelationType, person, related *entities.Person) error {
	if person.ID == related.ID {
		return fmt.Errorf("%w: a person cannot be related to themselves", ErrInvalidRelationship)
	}

	switch relType {
	case entities.RelationParent:
		if before, known := person.BornBefore(related); known && !before {
			return fmt.Errorf("%w: parent %s must be born before child %s",
				ErrInvalidRelationship, person.FullName(), related.FullName())
		}
	case entities.RelationChild:
		if before, known := related.BornBefore(person); known && !before {
			return fmt.Errorf("%w: child %s must be born after parent %s",
				ErrInvalidRelationship, person.FullName(), related.FullName())
		}
	case entities.RelationSpouse, entities.RelationSibling:
	}
	return nil
}

// Delete removes the edge and every edge its related person holds back to
// its person. A missing reciprocal does not block the delete.
func (s *RelationshipService) Delete(ctx context.Context, id string) error {
	return s.writer.Mutate(ctx, func(tx ports.FamilyTx, m *Mutation) error {
		rel, err := tx.FindRelationship(ctx, id)
		if err != nil {
			return fmt.Errorf("finding relationship: %w", err)
		}
		if rel == nil {
			return fmt.Errorf("relationship %s: %w", id, ErrNotFound)
		}

		back, err := tx.FindRelationshipsBetween(ctx, rel.RelatedPersonID, rel.PersonID)
		if err != nil {
			return fmt.Errorf("finding reciprocal: %w", err)
		}

		if err := tx.DeleteRelationship(ctx, rel.ID); err != nil {
			return fmt.Errorf("deleting relationship: %w", err)
		}
		deleted := []string{rel.ID}
		for i := range back {
			if err := tx.DeleteRelationship(ctx, back[i].ID); err != nil {
				return fmt.Errorf("deleting reciprocal relationship: %w", err)
			}
			deleted = append(deleted, back[i].ID)
		}
		for _, relID := range deleted {
			if err := tx.DeleteCitationsBySubject(ctx, entities.SubjectRelationship, relID); err != nil {
				return fmt.Errorf("deleting citations: %w", err)
			}
		}

		if err := tx.LogAction(ctx, "relationship_deleted", rel.PersonID, map[string]any{
			"type":              string(rel.Type),
			"related_person_id": rel.RelatedPersonID,
			"deleted":           len(deleted),
		}); err != nil {
			return fmt.Errorf("logging action: %w", err)
		}
		m.Record(ChangeDeleted, EntityRelationship, deleted...)
		return nil
	})
}

// FindExisting returns the first edge owned by person that points at other,
// of any type, or nil.
func (s *RelationshipService) FindExisting(ctx context.Context, personID, otherID string) (*entities.Relationship, error) {
	return findExisting(ctx, s.store, personID, otherID)
}

func findExisting(ctx context.Context, r ports.FamilyReader, personID, otherID string) (*entities.Relationship, error) {
	rels, err := r.FindRelationshipsBetween(ctx, personID, otherID)
	if err != nil {
		return nil, fmt.Errorf("finding existing relationship: %w", err)
	}
	if len(rels) == 0 {
		return nil, nil
	}
	return &rels[0], nil
}

// List returns the edges owned by person, sorted by type then related person.
func (s *RelationshipService) List(ctx context.Context, personID string) ([]entities.Relationship, error) {
	rels, err := s.store.FindRelationshipsByPerson(ctx, personID)
	if err != nil {
		return nil, fmt.Errorf("listing relationships: %w", err)
	}
	sortRelationships(rels)
	return rels, nil
}

func sortRelationships(rels []entities.Relationship) {
	sort.SliceStable(rels, func(i, j int) bool {
		if rels[i].Type != rels[j].Type {
			return rels[i].Type < rels[j].Type
		}
		return rels[i].RelatedPersonID < rels[j].RelatedPersonID
	})
}

// Get returns a relationship by ID.
func (s *RelationshipService) Get(ctx context.Context, id string) (*entities.Relationship, error) {
	rel, err := s.store.FindRelationship(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding relationship: %w", err)
	}
	if rel == nil {
		return nil, fmt.Errorf("relationship %s: %w", id, ErrNotFound)
	}
	return rel, nil
}

// Count returns the total number of edges. Each pair counts twice.
func (s *RelationshipService) Count(ctx context.Context) (int, error) {
	return s.store.CountRelationships(ctx)
}

// ReciprocityProblem classifies an inconsistent edge.
type ReciprocityProblem string

const (
	// ProblemMissing means the related person has no edge back.
	ProblemMissing ReciprocityProblem = "missing_reciprocal"
	// ProblemMismatch means the edge back has the wrong type.
	ProblemMismatch ReciprocityProblem = "type_mismatch"
	// ProblemDangling means one end of the edge no longer exists.
	ProblemDangling ReciprocityProblem = "dangling"
)

// ReciprocityIssue is one edge that breaks the pairing invariant.
type ReciprocityIssue struct {
	Relationship entities.Relationship  `json:"relationship"`
	Problem      ReciprocityProblem     `json:"problem"`
	Found        *entities.Relationship `json:"found,omitempty"`
}

// CheckReciprocity scans every edge and reports those without a correct
// reciprocal. Run it after records were merged from outside this process.
func (s *RelationshipService) CheckReciprocity(ctx context.Context) ([]ReciprocityIssue, error) {
	return checkReciprocity(ctx, s.store)
}

func checkReciprocity(ctx context.Context, r ports.FamilyReader) ([]ReciprocityIssue, error) {
	rels, err := r.ListRelationships(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing relationships: %w", err)
	}

	type pairKey struct{ from, to string }
	byPair := make(map[pairKey][]entities.Relationship, len(rels))
	for _, rel := range rels {
		k := pairKey{rel.PersonID, rel.RelatedPersonID}
		byPair[k] = append(byPair[k], rel)
	}

	exists := make(map[string]bool)
	personExists := func(id string) (bool, error) {
		if ok, seen := exists[id]; seen {
			return ok, nil
		}
		p, err := r.FindPerson(ctx, id)
		if err != nil {
			return false, fmt.Errorf("finding person: %w", err)
		}
		exists[id] = p != nil
		return p != nil, nil
	}

	var issues []ReciprocityIssue
	for _, rel := range rels {
		fromOK, err := personExists(rel.PersonID)
		if err != nil {
			return nil, err
		}
		toOK, err := personExists(rel.RelatedPersonID)
		if err != nil {
			return nil, err
		}
		if !fromOK || !toOK {
			issues = append(issues, ReciprocityIssue{Relationship: rel, Problem: ProblemDangling})
			continue
		}

		back := byPair[pairKey{rel.RelatedPersonID, rel.PersonID}]
		if len(back) == 0 {
			issues = append(issues, ReciprocityIssue{Relationship: rel, Problem: ProblemMissing})
			continue
		}
		matched := false
		for i := range back {
			if rel.IsReciprocalOf(&back[i]) {
				matched = true
				break
			}
		}
		if !matched {
			found := back[0]
			issues = append(issues, ReciprocityIssue{Relationship: rel, Problem: ProblemMismatch, Found: &found})
		}
	}
	return issues, nil
}

// RepairResult summarizes a repair run.
type RepairResult struct {
	Created    int                `json:"created"`
	Removed    int                `json:"removed"`
	Unresolved []ReciprocityIssue `json:"unresolved,omitempty"`
}

// RepairReciprocity writes missing reciprocal halves and removes dangling
// edges in one transaction. Type mismatches need a human decision and are
// returned as unresolved.
func (s *RelationshipService) RepairReciprocity(ctx context.Context) (*RepairResult, error) {
	result := &RepairResult{}
	err := s.writer.Mutate(ctx, func(tx ports.FamilyTx, m *Mutation) error {
		*result = RepairResult{}
		issues, err := checkReciprocity(ctx, tx)
		if err != nil {
			return err
		}

		var created, removed []string
		for _, issue := range issues {
			rel := issue.Relationship
			switch issue.Problem {
			case ProblemDangling:
				if err := tx.DeleteRelationship(ctx, rel.ID); err != nil {
					return fmt.Errorf("deleting dangling relationship: %w", err)
				}
				removed = append(removed, rel.ID)
			case ProblemMissing:
				// An earlier issue in this run may have written it already.
				back, err := tx.FindRelationshipsBetween(ctx, rel.RelatedPersonID, rel.PersonID)
				if err != nil {
					return fmt.Errorf("finding reciprocal: %w", err)
				}
				if len(back) > 0 {
					continue
				}
				reciprocal := &entities.Relationship{
					ID:              m.NewID(),
					Type:            rel.Type.Reciprocal(),
					PersonID:        rel.RelatedPersonID,
					RelatedPersonID: rel.PersonID,
					CreatedAt:       m.Now,
					UpdatedAt:       m.Now,
				}
				if err := tx.SaveRelationship(ctx, reciprocal); err != nil {
					return fmt.Errorf("saving reciprocal relationship: %w", err)
				}
				created = append(created, reciprocal.ID)
			case ProblemMismatch:
				result.Unresolved = append(result.Unresolved, issue)
			}
		}

		if len(created) == 0 && len(removed) == 0 {
			return nil
		}
		if err := tx.LogAction(ctx, "relationships_repaired", "", map[string]any{
			"created": len(created),
			"removed": len(removed),
		}); err != nil {
			return fmt.Errorf("logging action: %w", err)
		}
		result.Created = len(created)
		result.Removed = len(removed)
		if len(created) > 0 {
			m.Record(ChangeCreated, EntityRelationship, created...)
		}
		if len(removed) > 0 {
			m.Record(ChangeDeleted, EntityRelationship, removed...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func mustFindPerson(ctx context.Context, r ports.FamilyReader, id string) (*entities.Person, error) {
	person, err := r.FindPerson(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding person: %w", err)
	}
	if person == nil {
		return nil, fmt.Errorf("person %s: %w", id, ErrNotFound)
	}
	return person, nil
}
