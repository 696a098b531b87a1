package services

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ersonp/roots-core/internal/domain/entities"
	"github.com/ersonp/roots-core/internal/domain/ports"
)

const (
	reindexBatchSize = 64
	matchQueueSize   = 256
)

// MatchService finds people who are probably recorded twice by comparing
// embeddings of their name, dates and places.
type MatchService struct {
	store    ports.FamilyReader
	index    ports.PersonIndex
	embedder ports.Embedder
	logger   *zap.Logger
}

// NewMatchService creates a new MatchService.
func NewMatchService(store ports.FamilyReader, index ports.PersonIndex, embedder ports.Embedder, logger *zap.Logger) *MatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MatchService{
		store:    store,
		index:    index,
		embedder: embedder,
		logger:   logger,
	}
}

// Summary renders the text that is embedded for a person.
func Summary(p *entities.Person) string {
	var b strings.Builder
	b.WriteString(p.FullName())
	if p.BirthDate != nil || p.BirthPlace != "" {
		b.WriteString("; born")
		if p.BirthDate != nil {
			b.WriteString(" " + p.BirthDate.Format("2006-01-02"))
		}
		if p.BirthPlace != "" {
			b.WriteString(" in " + p.BirthPlace)
		}
	}
	if p.DeathDate != nil || p.DeathPlace != "" {
		b.WriteString("; died")
		if p.DeathDate != nil {
			b.WriteString(" " + p.DeathDate.Format("2006-01-02"))
		}
		if p.DeathPlace != "" {
			b.WriteString(" in " + p.DeathPlace)
		}
	}
	if p.Gender != "" && p.Gender != entities.GenderUnknown {
		b.WriteString("; " + string(p.Gender))
	}
	return b.String()
}

// Index embeds and stores one person.
func (s *MatchService) Index(ctx context.Context, person *entities.Person) error {
	summary := Summary(person)
	embedding, err := s.embedder.Embed(ctx, summary)
	if err != nil {
		return fmt.Errorf("generating embedding: %w", err)
	}
	if err := s.index.Upsert(ctx, ports.PersonDocument{
		PersonID:  person.ID,
		Name:      person.FullName(),
		Summary:   summary,
		Embedding: embedding,
	}); err != nil {
		return fmt.Errorf("indexing person: %w", err)
	}
	return nil
}

// IndexByID loads a person and indexes them. A person deleted in the
// meantime is skipped.
func (s *MatchService) IndexByID(ctx context.Context, personID string) error {
	person, err := s.store.FindPerson(ctx, personID)
	if err != nil {
		return fmt.Errorf("finding person: %w", err)
	}
	if person == nil {
		return nil
	}
	return s.Index(ctx, person)
}

// Remove drops a person from the index.
func (s *MatchService) Remove(ctx context.Context, personID string) error {
	if err := s.index.Delete(ctx, personID); err != nil {
		return fmt.Errorf("removing person from index: %w", err)
	}
	return nil
}

// Reindex embeds every person in batches and returns how many were indexed.
func (s *MatchService) Reindex(ctx context.Context) (int, error) {
	people, err := s.store.ListPeople(ctx, ports.PersonFilter{})
	if err != nil {
		return 0, fmt.Errorf("listing people: %w", err)
	}

	indexed := 0
	for start := 0; start < len(people); start += reindexBatchSize {
		end := min(start+reindexBatchSize, len(people))
		batch := people[start:end]

		summaries := make([]string, len(batch))
		for i := range batch {
			summaries[i] = Summary(&batch[i])
		}
		embeddings, err := s.embedder.EmbedBatch(ctx, summaries)
		if err != nil {
			return indexed, fmt.Errorf("generating embeddings: %w", err)
		}

		for i := range batch {
			if err := s.index.Upsert(ctx, ports.PersonDocument{
				PersonID:  batch[i].ID,
				Name:      batch[i].FullName(),
				Summary:   summaries[i],
				Embedding: embeddings[i],
			}); err != nil {
				return indexed, fmt.Errorf("indexing person %s: %w", batch[i].ID, err)
			}
			indexed++
		}
	}
	return indexed, nil
}

// Candidates returns the people most similar to personID, excluding the
// person itself.
func (s *MatchService) Candidates(ctx context.Context, personID string, limit int) ([]ports.IndexMatch, error) {
	if limit <= 0 {
		limit = 5
	}
	person, err := mustFindPerson(ctx, s.store, personID)
	if err != nil {
		return nil, err
	}

	embedding, err := s.embedder.Embed(ctx, Summary(person))
	if err != nil {
		return nil, fmt.Errorf("generating embedding: %w", err)
	}
	matches, err := s.index.Search(ctx, embedding, limit+1)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	result := make([]ports.IndexMatch, 0, limit)
	for _, match := range matches {
		if match.PersonID == personID {
			continue
		}
		result = append(result, match)
		if len(result) == limit {
			break
		}
	}
	return result, nil
}

// Run keeps the index in step with committed person changes until ctx is
// done. Work happens off the writer's goroutine; events arriving while the
// queue is full are dropped and picked up by the next Reindex.
func (s *MatchService) Run(ctx context.Context, writer *Writer) {
	queue := make(chan ChangeEvent, matchQueueSize)
	unsubscribe := writer.Subscribe(func(ev ChangeEvent) {
		if ev.Entity != EntityPerson {
			return
		}
		select {
		case queue <- ev:
		default:
			s.logger.Warn("match queue full, dropping change", zap.Strings("ids", ev.IDs))
		}
	})
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-queue:
			s.apply(ctx, ev)
		}
	}
}

func (s *MatchService) apply(ctx context.Context, ev ChangeEvent) {
	for _, id := range ev.IDs {
		var err error
		if ev.Kind == ChangeDeleted {
			err = s.Remove(ctx, id)
		} else {
			err = s.IndexByID(ctx, id)
		}
		if err != nil {
			s.logger.Warn("updating match index failed",
				zap.String("person_id", id),
				zap.String("kind", string(ev.Kind)),
				zap.Error(err))
		}
	}
}
