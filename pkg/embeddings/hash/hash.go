// Package hash implements a deterministic, offline Embedder. Vectors carry no
// semantic meaning; identical text always maps to the identical vector, which
// keeps the pipeline runnable without provider credentials.
package hash

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"math/rand/v2"

	"github.com/papercomputeco/docrag/pkg/embeddings"
)

// DefaultDimensions is the vector length used when none is configured.
const DefaultDimensions = 256

// Embedder seeds a PCG generator from the SHA-256 digest of the text.
type Embedder struct {
	dimensions int
}

// NewEmbedder returns a hash embedder producing vectors of length dimensions.
func NewEmbedder(dimensions int) *Embedder {
	if dimensions <= 0 {
		dimensions = DefaultDimensions
	}
	return &Embedder{dimensions: dimensions}
}

func (e *Embedder) Name() string { return "hash" }

func (e *Embedder) Dimensions() int { return e.dimensions }

// Embed returns dimensions floats drawn uniformly from [-1, 1).
func (e *Embedder) Embed(_ context.Context, text string) ([]float32, error) {
	sum := sha256.Sum256([]byte(text))
	rng := rand.New(rand.NewPCG(
		binary.LittleEndian.Uint64(sum[0:8]),
		binary.LittleEndian.Uint64(sum[8:16]),
	))

	vec := make([]float32, e.dimensions)
	for i := range vec {
		vec[i] = float32(rng.Float64()*2 - 1)
	}
	return vec, nil
}

func (e *Embedder) EmbedMany(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := e.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (e *Embedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*Embedder)(nil)
