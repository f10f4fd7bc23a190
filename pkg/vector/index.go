package vector

import (
	"context"
	"fmt"
	"log/slog"
)

// DocumentRef identifies the document whose chunks are being indexed.
type DocumentRef struct {
	ID    string
	Name  string
	Owner string
}

// ChunkRecord is the catalog view of a chunk handed to Upsert.
type ChunkRecord struct {
	ID      string
	Index   int
	Content string
}

// Index wraps a Driver with the write/read error policy used by the
// coordinators: writes fail loudly, reads degrade to empty results.
type Index struct {
	driver Driver
	logger *slog.Logger
}

// NewIndex wraps driver. A nil logger discards output.
func NewIndex(driver Driver, logger *slog.Logger) *Index {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Index{driver: driver, logger: logger}
}

// Upsert replaces the document's entry set with one entry per chunk.
func (i *Index) Upsert(ctx context.Context, doc DocumentRef, chunks []ChunkRecord, embeddings [][]float32) error {
	if len(chunks) != len(embeddings) {
		return fmt.Errorf("%w: %d chunks but %d embeddings for document %s",
			ErrIndexWrite, len(chunks), len(embeddings), doc.ID)
	}

	entries := make([]Entry, len(chunks))
	for n, c := range chunks {
		entries[n] = Entry{
			ChunkID:      c.ID,
			Owner:        doc.Owner,
			DocumentID:   doc.ID,
			DocumentName: doc.Name,
			ChunkIndex:   c.Index,
			Content:      c.Content,
			Embedding:    embeddings[n],
		}
	}

	if err := i.driver.Upsert(ctx, doc.ID, entries); err != nil {
		return fmt.Errorf("%w: document %s: %v", ErrIndexWrite, doc.ID, err)
	}

	i.logger.Debug("indexed document chunks",
		"document_id", doc.ID,
		"count", len(entries),
	)
	return nil
}

// SimilaritySearch never fails. A backend error is logged and yields no
// results.
func (i *Index) SimilaritySearch(ctx context.Context, owner string, embedding []float32, limit int) []SourceChunk {
	results, err := i.driver.Query(ctx, owner, embedding, limit)
	if err != nil {
		i.logger.Warn("similarity search degraded to empty result",
			"owner", owner,
			"error", fmt.Errorf("%w: %v", ErrRetrieval, err),
		)
		return []SourceChunk{}
	}
	if results == nil {
		return []SourceChunk{}
	}

	return results
}

// DeleteByDocument removes every entry of documentID.
func (i *Index) DeleteByDocument(ctx context.Context, documentID string) error {
	if err := i.driver.DeleteByDocument(ctx, documentID); err != nil {
		return fmt.Errorf("%w: deleting document %s: %v", ErrIndexWrite, documentID, err)
	}
	return nil
}

// Count returns how many entries the backend holds for documentID.
func (i *Index) Count(ctx context.Context, documentID string) (int, error) {
	n, err := i.driver.Count(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("%w: counting document %s: %v", ErrRetrieval, documentID, err)
	}
	return n, nil
}

// Close closes the driver.
func (i *Index) Close() error {
	return i.driver.Close()
}
