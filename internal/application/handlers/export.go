package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/ersonp/roots-core/internal/domain/entities"
	"github.com/ersonp/roots-core/internal/domain/ports"
	"github.com/ersonp/roots-core/internal/infrastructure/parsers"
)

// ExportHandler turns the stored tree back into an importable document.
type ExportHandler struct {
	store ports.FamilyReader
}

// NewExportHandler creates a new ExportHandler.
func NewExportHandler(store ports.FamilyReader) *ExportHandler {
	return &ExportHandler{store: store}
}

// Handle builds a document holding every person, source and event, and one
// edge per relationship pair. Importing it recreates the reciprocals.
func (h *ExportHandler) Handle(ctx context.Context) (*parsers.Document, error) {
	people, err := h.store.ListPeople(ctx, ports.PersonFilter{})
	if err != nil {
		return nil, fmt.Errorf("listing people: %w", err)
	}
	rels, err := h.store.ListRelationships(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing relationships: %w", err)
	}
	sources, err := h.store.ListSources(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sources: %w", err)
	}

	doc := &parsers.Document{
		People:        make([]parsers.RawPerson, 0, len(people)),
		Relationships: pairHalves(rels),
		Sources:       make([]parsers.RawSource, 0, len(sources)),
	}

	for i := range people {
		p := &people[i]
		living := p.IsLiving
		doc.People = append(doc.People, parsers.RawPerson{
			ID:         p.ID,
			FirstName:  p.FirstName,
			LastName:   p.LastName,
			Gender:     string(p.Gender),
			IsLiving:   &living,
			BirthDate:  formatDate(p.BirthDate),
			BirthPlace: p.BirthPlace,
			DeathDate:  formatDate(p.DeathDate),
			DeathPlace: p.DeathPlace,
			Notes:      p.Notes,
		})

		events, err := h.store.FindEventsByPerson(ctx, p.ID)
		if err != nil {
			return nil, fmt.Errorf("finding events: %w", err)
		}
		for _, e := range events {
			doc.Events = append(doc.Events, parsers.RawEvent{
				ID:          e.ID,
				Type:        string(e.Type),
				Date:        formatDate(e.Date),
				Place:       e.Place,
				Description: e.Description,
				PersonID:    e.PersonID,
			})
		}
	}

	for _, s := range sources {
		doc.Sources = append(doc.Sources, parsers.RawSource{
			ID:       s.ID,
			Type:     s.Type,
			Title:    s.Title,
			Citation: s.Citation,
			URL:      s.URL,
			Notes:    s.Notes,
		})
	}

	return doc, nil
}

// pairHalves keeps one edge of every reciprocal pair. One-sided edges are
// kept as they are.
func pairHalves(rels []entities.Relationship) []parsers.RawRelationship {
	type key struct {
		from, to string
		relType  entities.RelationType
	}
	emitted := make(map[key]bool, len(rels))
	out := make([]parsers.RawRelationship, 0, len(rels)/2)

	for _, rel := range rels {
		if emitted[key{rel.RelatedPersonID, rel.PersonID, rel.Type.Reciprocal()}] {
			continue
		}
		emitted[key{rel.PersonID, rel.RelatedPersonID, rel.Type}] = true
		out = append(out, parsers.RawRelationship{
			Type:            string(rel.Type),
			PersonID:        rel.PersonID,
			RelatedPersonID: rel.RelatedPersonID,
		})
	}
	return out
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}
