package mocks

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/ersonp/roots-core/internal/domain/ports"
)

// PersonIndex is an in-memory ports.PersonIndex using cosine similarity.
type PersonIndex struct {
	mu        sync.Mutex
	Docs      map[string]ports.PersonDocument
	UpsertErr error
	SearchErr error
}

// NewPersonIndex creates an empty index.
func NewPersonIndex() *PersonIndex {
	return &PersonIndex{Docs: make(map[string]ports.PersonDocument)}
}

// Upsert stores the document.
func (m *PersonIndex) Upsert(_ context.Context, doc ports.PersonDocument) error {
	if m.UpsertErr != nil {
		return m.UpsertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Docs[doc.PersonID] = doc
	return nil
}

// Delete removes the document.
func (m *PersonIndex) Delete(_ context.Context, personID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.Docs, personID)
	return nil
}

// Search ranks every document by cosine similarity.
func (m *PersonIndex) Search(_ context.Context, embedding []float32, limit int) ([]ports.IndexMatch, error) {
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	matches := make([]ports.IndexMatch, 0, len(m.Docs))
	for _, doc := range m.Docs {
		matches = append(matches, ports.IndexMatch{
			PersonID: doc.PersonID,
			Name:     doc.Name,
			Summary:  doc.Summary,
			Score:    cosine(embedding, doc.Embedding),
		})
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].PersonID < matches[j].PersonID
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Count returns the number of documents.
func (m *PersonIndex) Count(_ context.Context) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return uint64(len(m.Docs)), nil
}

// Has reports whether personID is indexed.
func (m *PersonIndex) Has(personID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.Docs[personID]
	return ok
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}
