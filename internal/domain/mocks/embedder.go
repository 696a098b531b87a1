// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"

	"github.com/ersonp/roots-core/internal/domain/entities"
)

// LetterDimensions is the vector size produced by Embedder.
const LetterDimensions = 26

// Embedder is a mock implementation of ports.Embedder. Without a fixed
// result it returns letter-frequency vectors, so texts sharing letters land
// close together.
type Embedder struct {
	EmbeddingResult []float32
	Err             error
	Calls           int
}

// Embed returns the configured embedding or a letter-frequency vector.
func (m *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.Calls++
	if m.Err != nil {
		return nil, m.Err
	}
	if m.EmbeddingResult != nil {
		return m.EmbeddingResult, nil
	}
	return letterVector(text), nil
}

// EmbedBatch returns embeddings for multiple texts.
func (m *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i := range texts {
		vec, err := m.Embed(ctx, texts[i])
		if err != nil {
			return nil, err
		}
		result[i] = vec
	}
	return result, nil
}

// Dimensions returns the vector size.
func (m *Embedder) Dimensions() int {
	if m.EmbeddingResult != nil {
		return len(m.EmbeddingResult)
	}
	return LetterDimensions
}

func letterVector(text string) []float32 {
	vec := make([]float32, LetterDimensions)
	for _, r := range entities.FoldName(text) {
		if r >= 'a' && r <= 'z' {
			vec[r-'a']++
		}
	}
	return vec
}
