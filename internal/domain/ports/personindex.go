package ports

import "context"

// PersonDocument is the searchable form of a person.
type PersonDocument struct {
	PersonID  string
	Name      string
	Summary   string
	Embedding []float32
}

// IndexMatch is a person returned by a similarity search.
type IndexMatch struct {
	PersonID string  `json:"person_id"`
	Name     string  `json:"name"`
	Summary  string  `json:"summary"`
	Score    float32 `json:"score"`
}

// PersonIndex stores person embeddings for similarity search.
type PersonIndex interface {
	// Upsert stores or replaces the document for a person.
	Upsert(ctx context.Context, doc PersonDocument) error

	// Delete removes a person's document. Missing documents are not an error.
	Delete(ctx context.Context, personID string) error

	// Search returns the closest documents to the embedding.
	Search(ctx context.Context, embedding []float32, limit int) ([]IndexMatch, error)

	// Count returns the number of indexed people.
	Count(ctx context.Context) (uint64, error)
}
