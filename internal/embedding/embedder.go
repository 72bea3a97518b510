// Package embedding provides text embedding clients for semantic scoring
// and memory indexing.
package embedding

import "context"

// Embedder converts text into fixed-dimensionality vectors.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
	// Dimension is the length of every vector this embedder produces.
	Dimension() int
}
