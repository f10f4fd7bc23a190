// Package catalog is the relational record of documents and their chunks.
package catalog

import (
	"context"
	"strings"
	"time"
)

// DefaultPageLimit applies when a list call does not set a limit.
const DefaultPageLimit = 100

// Document is one ingested file. It becomes ready once every chunk has a
// committed vector entry.
type Document struct {
	ID             string    `json:"id"`
	Owner          string    `json:"owner"`
	Filename       string    `json:"filename"`
	ContentType    string    `json:"content_type"`
	StoragePath    string    `json:"storage_path"`
	SizeBytes      int64     `json:"size_bytes"`
	ChunkCount     int       `json:"chunk_count"`
	EmbeddingCount int       `json:"embedding_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// Ready reports whether the document is fully searchable.
func (d *Document) Ready() bool {
	return d.ChunkCount > 0 && d.ChunkCount == d.EmbeddingCount
}

// Chunk is a persisted passage of a document. Its ID doubles as the vector
// entry key.
type Chunk struct {
	ID         string    `json:"id"`
	DocumentID string    `json:"document_id"`
	Index      int       `json:"chunk_index"`
	Content    string    `json:"content"`
	TokenCount int       `json:"token_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// Page bounds a list call.
type Page struct {
	Limit  int
	Offset int
}

// Normalize fills defaults and clamps negatives.
func (p Page) Normalize() Page {
	if p.Limit <= 0 {
		p.Limit = DefaultPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// TokenCount approximates token usage as whitespace-separated words.
func TokenCount(content string) int {
	return len(strings.Fields(content))
}

// Store persists documents and chunks.
type Store interface {
	// CreateDocument inserts the document and all of its chunks in one
	// transaction. Failures wrap ErrCatalogWrite and leave no rows behind.
	CreateDocument(ctx context.Context, doc *Document, chunks []*Chunk) error

	// MarkIndexed records how many embeddings the vector index holds for id.
	MarkIndexed(ctx context.Context, id string, embeddingCount int) error

	// GetDocument returns the document with id owned by owner, or a
	// NotFoundError.
	GetDocument(ctx context.Context, id, owner string) (*Document, error)

	// ListDocuments returns owner's documents newest first.
	ListDocuments(ctx context.Context, owner string, page Page) ([]*Document, error)

	// ListAll returns every document across owners, newest first.
	ListAll(ctx context.Context) ([]*Document, error)

	// ListChunks returns a document's chunks ordered by index.
	ListChunks(ctx context.Context, documentID string) ([]*Chunk, error)

	// DeleteDocument removes the document and its chunks. It reports whether
	// a document matching id and owner existed.
	DeleteDocument(ctx context.Context, id, owner string) (bool, error)

	Close() error
}
