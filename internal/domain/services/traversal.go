package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ersonp/roots-core/internal/domain/entities"
	"github.com/ersonp/roots-core/internal/domain/ports"
)

const defaultFetchConcurrency = 8

// Generation is one level of an ancestor or descendant walk.
type Generation struct {
	Depth  int               `json:"depth"`
	People []entities.Person `json:"people"`
}

// TraversalService walks the relationship graph across generations. It only
// reads, so it runs alongside the writer.
type TraversalService struct {
	store       ports.FamilyReader
	logger      *zap.Logger
	concurrency int
}

// NewTraversalService creates a new TraversalService.
func NewTraversalService(store ports.FamilyReader, logger *zap.Logger) *TraversalService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TraversalService{
		store:       store,
		logger:      logger,
		concurrency: defaultFetchConcurrency,
	}
}

// Ancestors returns the person's parents, grandparents and so on, up to
// generations levels. A value below 1 walks until no parents remain.
func (s *TraversalService) Ancestors(ctx context.Context, personID string, generations int) ([]Generation, error) {
	return s.walk(ctx, personID, generations, entities.RelationChild)
}

// Descendants returns the person's children, grandchildren and so on.
func (s *TraversalService) Descendants(ctx context.Context, personID string, generations int) ([]Generation, error) {
	return s.walk(ctx, personID, generations, entities.RelationParent)
}

// walk follows edges of relType owned by each frontier person. A Child edge
// (X -> R) means R is a parent of X, so following Child edges walks upward.
func (s *TraversalService) walk(ctx context.Context, rootID string, generations int, relType entities.RelationType) ([]Generation, error) {
	if _, err := mustFindPerson(ctx, s.store, rootID); err != nil {
		return nil, err
	}

	visited := map[string]bool{rootID: true}
	frontier := []string{rootID}
	var result []Generation

	for depth := 1; len(frontier) > 0 && (generations < 1 || depth <= generations); depth++ {
		edges, err := s.loadEdges(ctx, frontier)
		if err != nil {
			return nil, err
		}

		var next []string
		for _, id := range frontier {
			for _, rel := range edges[id] {
				if rel.Type != relType || visited[rel.RelatedPersonID] {
					continue
				}
				visited[rel.RelatedPersonID] = true
				next = append(next, rel.RelatedPersonID)
			}
		}
		if len(next) == 0 {
			break
		}

		people := make([]entities.Person, 0, len(next))
		for _, id := range next {
			p, err := s.store.FindPerson(ctx, id)
			if err != nil {
				return nil, fmt.Errorf("finding person: %w", err)
			}
			if p != nil {
				people = append(people, *p)
			}
		}
		sortPeople(people)
		result = append(result, Generation{Depth: depth, People: people})
		frontier = next
	}
	return result, nil
}

// loadEdges fetches the edge sets of ids concurrently. The first error aborts.
func (s *TraversalService) loadEdges(ctx context.Context, ids []string) (map[string][]entities.Relationship, error) {
	var mu sync.Mutex
	edges := make(map[string][]entities.Relationship, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			rels, err := s.store.FindRelationshipsByPerson(gctx, id)
			if err != nil {
				return fmt.Errorf("finding relationships for %s: %w", id, err)
			}
			mu.Lock()
			edges[id] = rels
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return edges, nil
}

// Prefetch loads edge sets for many people at once, sorted as List sorts
// them. A failed lookup yields an empty set for that person and a warning.
func (s *TraversalService) Prefetch(ctx context.Context, personIDs []string) map[string][]entities.Relationship {
	var mu sync.Mutex
	edges := make(map[string][]entities.Relationship, len(personIDs))

	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for _, id := range personIDs {
		g.Go(func() error {
			rels, err := s.store.FindRelationshipsByPerson(ctx, id)
			if err != nil {
				s.logger.Warn("prefetching relationships failed", zap.String("person_id", id), zap.Error(err))
				rels = []entities.Relationship{}
			}
			sortRelationships(rels)
			mu.Lock()
			edges[id] = rels
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return edges
}

func sortPeople(people []entities.Person) {
	sort.SliceStable(people, func(i, j int) bool {
		li, lj := entities.FoldName(people[i].LastName), entities.FoldName(people[j].LastName)
		if li != lj {
			return li < lj
		}
		fi, fj := entities.FoldName(people[i].FirstName), entities.FoldName(people[j].FirstName)
		if fi != fj {
			return fi < fj
		}
		return people[i].ID < people[j].ID
	})
}
