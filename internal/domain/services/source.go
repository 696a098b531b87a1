package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/ersonp/roots-core/internal/domain/entities"
	"github.com/ersonp/roots-core/internal/domain/ports"
)

// SourceTypes lists the recognised source types.
var SourceTypes = []string{"book", "record", "census", "website", "other"}

// SourceInput holds the fields of a new source.
type SourceInput struct {
	Type     string
	Title    string
	Citation string
	URL      string
	Notes    string
}

// SourceUpdate is a partial update. Nil fields are left unchanged.
type SourceUpdate struct {
	Type     *string
	Title    *string
	Citation *string
	URL      *string
	Notes    *string
}

// SourceService manages sources and the citations that attach them to
// people, events and relationships.
type SourceService struct {
	store  ports.FamilyStore
	writer *Writer
}

// NewSourceService creates a new SourceService.
func NewSourceService(store ports.FamilyStore, writer *Writer) *SourceService {
	return &SourceService{store: store, writer: writer}
}

// Create stores a new source.
func (s *SourceService) Create(ctx context.Context, input SourceInput) (*entities.Source, error) {
	source := &entities.Source{
		Type:     strings.ToLower(strings.TrimSpace(input.Type)),
		Title:    strings.TrimSpace(input.Title),
		Citation: input.Citation,
		URL:      input.URL,
		Notes:    input.Notes,
	}
	if source.Type == "" {
		source.Type = "other"
	}
	if err := validateSource(source); err != nil {
		return nil, err
	}

	err := s.writer.Mutate(ctx, func(tx ports.FamilyTx, m *Mutation) error {
		return createSource(ctx, tx, m, source)
	})
	if err != nil {
		return nil, err
	}
	return source, nil
}

func createSource(ctx context.Context, tx ports.FamilyTx, m *Mutation, source *entities.Source) error {
	if source.ID == "" {
		source.ID = m.NewID()
	}
	source.CreatedAt = m.Now
	source.UpdatedAt = m.Now
	if err := tx.SaveSource(ctx, source); err != nil {
		return fmt.Errorf("saving source: %w", err)
	}
	if err := tx.LogAction(ctx, "source_created", source.ID, map[string]any{"title": source.Title}); err != nil {
		return fmt.Errorf("logging action: %w", err)
	}
	m.Record(ChangeCreated, EntitySource, source.ID)
	return nil
}

func validateSource(source *entities.Source) error {
	if source.Title == "" {
		return fmt.Errorf("%w: source needs a title", ErrInvalidData)
	}
	for _, t := range SourceTypes {
		if source.Type == t {
			return nil
		}
	}
	return fmt.Errorf("%w: unknown source type %q (valid: %s)", ErrInvalidData, source.Type, strings.Join(SourceTypes, ", "))
}

// Update applies a partial update and refreshes UpdatedAt.
func (s *SourceService) Update(ctx context.Context, id string, update SourceUpdate) (*entities.Source, error) {
	var result *entities.Source
	err := s.writer.Mutate(ctx, func(tx ports.FamilyTx, m *Mutation) error {
		source, err := mustFindSource(ctx, tx, id)
		if err != nil {
			return err
		}
		if update.Type != nil {
			source.Type = strings.ToLower(strings.TrimSpace(*update.Type))
		}
		if update.Title != nil {
			source.Title = strings.TrimSpace(*update.Title)
		}
		if update.Citation != nil {
			source.Citation = *update.Citation
		}
		if update.URL != nil {
			source.URL = *update.URL
		}
		if update.Notes != nil {
			source.Notes = *update.Notes
		}
		if err := validateSource(source); err != nil {
			return err
		}
		source.UpdatedAt = m.Now

		if err := tx.SaveSource(ctx, source); err != nil {
			return fmt.Errorf("saving source: %w", err)
		}
		if err := tx.LogAction(ctx, "source_updated", source.ID, nil); err != nil {
			return fmt.Errorf("logging action: %w", err)
		}
		m.Record(ChangeUpdated, EntitySource, source.ID)
		result = source
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Delete removes the source and its citations, and detaches it from media.
func (s *SourceService) Delete(ctx context.Context, id string) error {
	return s.writer.Mutate(ctx, func(tx ports.FamilyTx, m *Mutation) error {
		if _, err := mustFindSource(ctx, tx, id); err != nil {
			return err
		}
		if err := tx.DeleteCitationsBySource(ctx, id); err != nil {
			return fmt.Errorf("deleting citations: %w", err)
		}
		if err := tx.ClearMediaSource(ctx, id); err != nil {
			return fmt.Errorf("detaching media: %w", err)
		}
		if err := tx.DeleteSource(ctx, id); err != nil {
			return fmt.Errorf("deleting source: %w", err)
		}
		if err := tx.LogAction(ctx, "source_deleted", id, nil); err != nil {
			return fmt.Errorf("logging action: %w", err)
		}
		m.Record(ChangeDeleted, EntitySource, id)
		return nil
	})
}

// Get returns a source by ID.
func (s *SourceService) Get(ctx context.Context, id string) (*entities.Source, error) {
	return mustFindSource(ctx, s.store, id)
}

// List returns all sources ordered by title.
func (s *SourceService) List(ctx context.Context) ([]entities.Source, error) {
	sources, err := s.store.ListSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}
	return sources, nil
}

// Cite attaches a source to a person, event or relationship. Citing twice is
// a no-op.
func (s *SourceService) Cite(ctx context.Context, sourceID string, kind entities.SubjectKind, subjectID string) (*entities.Citation, error) {
	var result *entities.Citation
	err := s.writer.Mutate(ctx, func(tx ports.FamilyTx, m *Mutation) error {
		if _, err := mustFindSource(ctx, tx, sourceID); err != nil {
			return err
		}
		if err := mustFindSubject(ctx, tx, kind, subjectID); err != nil {
			return err
		}
		citation := &entities.Citation{
			SourceID:    sourceID,
			SubjectKind: kind,
			SubjectID:   subjectID,
			CreatedAt:   m.Now,
		}
		if err := tx.SaveCitation(ctx, citation); err != nil {
			return fmt.Errorf("saving citation: %w", err)
		}
		if err := tx.LogAction(ctx, "source_cited", subjectID, map[string]any{
			"source_id":    sourceID,
			"subject_kind": string(kind),
		}); err != nil {
			return fmt.Errorf("logging action: %w", err)
		}
		m.Record(ChangeCreated, EntityCitation, sourceID, subjectID)
		result = citation
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Uncite removes a citation.
func (s *SourceService) Uncite(ctx context.Context, citation entities.Citation) error {
	return s.writer.Mutate(ctx, func(tx ports.FamilyTx, m *Mutation) error {
		if err := tx.DeleteCitation(ctx, citation); err != nil {
			return fmt.Errorf("deleting citation: %w", err)
		}
		if err := tx.LogAction(ctx, "source_uncited", citation.SubjectID, map[string]any{
			"source_id": citation.SourceID,
		}); err != nil {
			return fmt.Errorf("logging action: %w", err)
		}
		m.Record(ChangeDeleted, EntityCitation, citation.SourceID, citation.SubjectID)
		return nil
	})
}

// ListCitations returns the citations attached to a subject.
func (s *SourceService) ListCitations(ctx context.Context, kind entities.SubjectKind, subjectID string) ([]entities.Citation, error) {
	citations, err := s.store.FindCitationsBySubject(ctx, kind, subjectID)
	if err != nil {
		return nil, fmt.Errorf("finding citations: %w", err)
	}
	return citations, nil
}

func mustFindSubject(ctx context.Context, r ports.FamilyReader, kind entities.SubjectKind, id string) error {
	switch kind {
	case entities.SubjectPerson:
		_, err := mustFindPerson(ctx, r, id)
		return err
	case entities.SubjectEvent:
		_, err := mustFindEvent(ctx, r, id)
		return err
	case entities.SubjectRelationship:
		rel, err := r.FindRelationship(ctx, id)
		if err != nil {
			return fmt.Errorf("finding relationship: %w", err)
		}
		if rel == nil {
			return fmt.Errorf("relationship %s: %w", id, ErrNotFound)
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown subject kind %q", ErrInvalidData, kind)
	}
}

func mustFindSource(ctx context.Context, r ports.FamilyReader, id string) (*entities.Source, error) {
	source, err := r.FindSource(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("finding source: %w", err)
	}
	if source == nil {
		return nil, fmt.Errorf("source %s: %w", id, ErrNotFound)
	}
	return source, nil
}
