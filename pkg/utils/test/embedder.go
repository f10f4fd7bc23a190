package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/papercomputeco/docrag/pkg/embeddings"
)

// MockEmbedder is a test embedder that returns predictable embeddings
type MockEmbedder struct {
	mu sync.Mutex

	// Dims is the vector length returned for unknown texts.
	Dims int

	Embeddings map[string][]float32

	// FailOn causes Embed and EmbedMany to fail when an input matches.
	FailOn string

	// Calls counts EmbedMany invocations.
	Calls int
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Dims:       3,
		Embeddings: make(map[string][]float32),
	}
}

func (m *MockEmbedder) Name() string { return "mock" }

func (m *MockEmbedder) Dimensions() int { return m.Dims }

func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.embed(text)
}

func (m *MockEmbedder) EmbedMany(_ context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Calls++
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := m.embed(text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (m *MockEmbedder) embed(text string) ([]float32, error) {
	if m.FailOn != "" && text == m.FailOn {
		return nil, fmt.Errorf("%w: mock embedding failure for: %s", embeddings.ErrUnavailable, text)
	}

	if emb, ok := m.Embeddings[text]; ok {
		return emb, nil
	}

	// Return a default embedding for any text
	v := make([]float32, m.Dims)
	for i := range v {
		v[i] = 0.1 * float32(i+1)
	}
	return v, nil
}

func (m *MockEmbedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*MockEmbedder)(nil)
