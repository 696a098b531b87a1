package ports

import "context"

// Embedder turns person summaries into vectors for the person index.
type Embedder interface {
	// Embed generates a vector embedding for one text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for several texts, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions is the length of every vector this embedder returns.
	Dimensions() int
}
