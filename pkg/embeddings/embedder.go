// Package embeddings defines the text embedding contract shared by the
// ingestion and query pipelines.
package embeddings

import (
	"context"
	"fmt"
)

// Embedder provides text embedding capabilities. One instance is resolved at
// startup and shared by ingestion and querying so both sides embed into the
// same space.
type Embedder interface {
	// Name identifies the provider, e.g. "openai" or "hash".
	Name() string

	// Dimensions is the fixed vector length this embedder produces.
	Dimensions() int

	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedMany converts each text into a vector, preserving order.
	EmbedMany(ctx context.Context, texts []string) ([][]float32, error)

	// Close releases any resources held by the embedder.
	Close() error
}

// CheckDimensions verifies that every vector has exactly dim entries.
func CheckDimensions(vectors [][]float32, dim int) error {
	for i, v := range vectors {
		if len(v) != dim {
			return fmt.Errorf("%w: vector %d has %d dimensions, expected %d", ErrUnavailable, i, len(v), dim)
		}
	}
	return nil
}
