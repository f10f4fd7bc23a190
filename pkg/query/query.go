// Package query answers questions from an owner's indexed documents.
package query

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/papercomputeco/docrag/pkg/embeddings"
	"github.com/papercomputeco/docrag/pkg/generator"
	"github.com/papercomputeco/docrag/pkg/utils"
	"github.com/papercomputeco/docrag/pkg/vector"
	"github.com/papercomputeco/docrag/pkg/worker"
)

const (
	// DefaultTopK is used when a caller asks for zero or fewer chunks.
	DefaultTopK = 4

	// DefaultSnippetChars bounds SourceInfo.Snippet, in runes.
	DefaultSnippetChars = 400
)

// ErrEmptyQuestion is returned for blank questions.
var ErrEmptyQuestion = errors.New("question is empty")

// SourceInfo attributes part of an answer to a retrieved chunk.
type SourceInfo struct {
	ChunkID      string   `json:"chunk_id"`
	DocumentID   string   `json:"document_id"`
	DocumentName string   `json:"document_name"`
	ChunkIndex   int      `json:"chunk_index"`
	Score        *float32 `json:"score"`
	Snippet      string   `json:"snippet"`
}

// Answer is the reply to a question.
type Answer struct {
	Answer  string       `json:"answer"`
	Sources []SourceInfo `json:"sources"`
}

// Config wires the coordinator's collaborators.
type Config struct {
	Index     *vector.Index
	Embedder  embeddings.Embedder
	Generator generator.Generator

	// Pool runs the blocking steps. A nil pool runs them inline.
	Pool *worker.Pool

	// SnippetChars defaults to DefaultSnippetChars.
	SnippetChars int

	Logger *slog.Logger
}

// Coordinator retrieves context and drafts answers.
type Coordinator struct {
	index        *vector.Index
	embedder     embeddings.Embedder
	generator    generator.Generator
	pool         *worker.Pool
	snippetChars int
	logger       *slog.Logger
}

// New validates c and returns a coordinator.
func New(c *Config) (*Coordinator, error) {
	if c.Index == nil {
		return nil, errors.New("vector index is required")
	}
	if c.Embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if c.Generator == nil {
		return nil, errors.New("generator is required")
	}

	snippet := c.SnippetChars
	if snippet <= 0 {
		snippet = DefaultSnippetChars
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return &Coordinator{
		index:        c.Index,
		embedder:     c.Embedder,
		generator:    c.Generator,
		pool:         c.Pool,
		snippetChars: snippet,
		logger:       logger,
	}, nil
}

// Answer embeds question, retrieves up to topK of owner's chunks and asks
// the generator to answer from them. Only a blank question or an embedding
// failure is returned as an error; generator failures degrade to a fixed
// message.
func (c *Coordinator) Answer(ctx context.Context, question, owner string, topK int) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, ErrEmptyQuestion
	}
	if topK <= 0 {
		topK = DefaultTopK
	}

	embedding, err := worker.Do(ctx, c.pool, func(ctx context.Context) ([]float32, error) {
		return c.embedder.Embed(ctx, question)
	})
	if err != nil {
		if !errors.Is(err, embeddings.ErrUnavailable) {
			err = fmt.Errorf("%w: %v", embeddings.ErrUnavailable, err)
		}
		return nil, err
	}

	chunks, _ := worker.Do(ctx, c.pool, func(ctx context.Context) ([]vector.SourceChunk, error) {
		return c.index.SimilaritySearch(ctx, owner, embedding, topK), nil
	})
	if len(chunks) == 0 {
		return &Answer{Answer: generator.NoRelevantDocumentsMessage, Sources: []SourceInfo{}}, nil
	}

	retrieved := BuildContext(chunks)
	text, err := worker.Do(ctx, c.pool, func(ctx context.Context) (string, error) {
		return c.generator.GenerateAnswer(ctx, question, retrieved)
	})
	switch {
	case err != nil:
		c.logger.Warn("answer generation unavailable",
			"generator", c.generator.Name(),
			"owner", owner,
			"error", err,
		)
		text = generator.UnavailableMessage
	case strings.TrimSpace(text) == "":
		text = generator.NoContentMessage
	}

	return &Answer{Answer: text, Sources: c.sources(chunks)}, nil
}

// Title proposes a short title for retrieved text.
func (c *Coordinator) Title(ctx context.Context, retrieved string) string {
	title, err := worker.Do(ctx, c.pool, func(ctx context.Context) (string, error) {
		return c.generator.GenerateTitle(ctx, retrieved)
	})
	if err != nil || strings.TrimSpace(title) == "" {
		if err != nil {
			c.logger.Warn("title generation unavailable", "error", err)
		}
		return generator.DefaultTitle
	}
	return title
}

// BuildContext groups chunks by document name in first-seen order. Each
// group is the name on its own line followed by its chunks, one per line;
// groups are separated by a blank line.
func BuildContext(chunks []vector.SourceChunk) string {
	var order []string
	groups := make(map[string][]string)
	for _, ch := range chunks {
		if _, ok := groups[ch.DocumentName]; !ok {
			order = append(order, ch.DocumentName)
		}
		groups[ch.DocumentName] = append(groups[ch.DocumentName], ch.Content)
	}

	parts := make([]string, len(order))
	for i, name := range order {
		parts[i] = name + "\n" + strings.Join(groups[name], "\n")
	}
	return strings.Join(parts, "\n\n")
}

func (c *Coordinator) sources(chunks []vector.SourceChunk) []SourceInfo {
	out := make([]SourceInfo, len(chunks))
	for i, ch := range chunks {
		out[i] = SourceInfo{
			ChunkID:      ch.ChunkID,
			DocumentID:   ch.DocumentID,
			DocumentName: ch.DocumentName,
			ChunkIndex:   ch.ChunkIndex,
			Score:        ch.Score,
			Snippet:      utils.Prefix(ch.Content, c.snippetChars),
		}
	}
	return out
}
