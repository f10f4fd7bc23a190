// Package vector stores chunk embeddings and answers owner-scoped
// nearest-neighbor queries.
package vector

import "context"

// Entry is one chunk embedding plus the metadata needed to build a source
// citation without a catalog round trip.
type Entry struct {
	// ChunkID is the catalog chunk id and the entry key.
	ChunkID string

	Owner        string
	DocumentID   string
	DocumentName string
	ChunkIndex   int
	Content      string

	Embedding []float32
}

// SourceChunk is a retrieved chunk, best match first.
type SourceChunk struct {
	ChunkID      string
	DocumentID   string
	DocumentName string
	ChunkIndex   int
	Content      string

	// Score is the backend's native score. Distance-based backends return
	// lower-is-better values, similarity-based ones higher-is-better. It is
	// nil when the backend returned none.
	Score *float32
}

// Driver is implemented by each vector backend.
type Driver interface {
	// Upsert replaces every entry of documentID with entries.
	Upsert(ctx context.Context, documentID string, entries []Entry) error

	// Query returns at most limit entries owned by owner, ordered by the
	// backend's distance metric.
	Query(ctx context.Context, owner string, embedding []float32, limit int) ([]SourceChunk, error)

	// DeleteByDocument removes every entry of documentID. Deleting an
	// unknown document is not an error.
	DeleteByDocument(ctx context.Context, documentID string) error

	// Count returns the number of entries stored for documentID.
	Count(ctx context.Context, documentID string) (int, error)

	// Close releases any resources held by the driver.
	Close() error
}
