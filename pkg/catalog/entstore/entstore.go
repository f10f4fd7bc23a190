// Package entstore implements catalog.Store on ent's dialect-aware SQL
// builders, shared by the SQLite and PostgreSQL drivers.
package entstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/papercomputeco/docrag/pkg/catalog"
)

const (
	documentsTable = "documents"
	chunksTable    = "document_chunks"

	// chunkInsertBatch keeps multi-row inserts under SQLite's bound
	// parameter limit.
	chunkInsertBatch = 100
)

var documentColumns = []string{
	"id", "owner", "filename", "content_type", "storage_path",
	"size_bytes", "chunk_count", "embedding_count", "created_at",
}

var chunkColumns = []string{
	"id", "document_id", "chunk_index", "content", "token_count", "created_at",
}

// Store provides catalog operations over an ent SQL driver.
type Store struct {
	Driver  *entsql.Driver
	Dialect string
}

// New runs the schema statements and returns a ready store.
func New(ctx context.Context, drv *entsql.Driver, dialect string, schema []string) (*Store, error) {
	for _, stmt := range schema {
		if err := drv.Exec(ctx, stmt, []any{}, nil); err != nil {
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &Store{Driver: drv, Dialect: dialect}, nil
}

func (s *Store) builder() *entsql.DialectBuilder {
	return entsql.Dialect(s.Dialect)
}

// CreateDocument inserts the document row and its chunk rows atomically.
func (s *Store) CreateDocument(ctx context.Context, doc *catalog.Document, chunks []*catalog.Chunk) error {
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	tx, err := s.Driver.Tx(ctx)
	if err != nil {
		return fmt.Errorf("%w: starting transaction: %v", catalog.ErrCatalogWrite, err)
	}

	query, args := s.builder().Insert(documentsTable).
		Columns(documentColumns...).
		Values(doc.ID, doc.Owner, doc.Filename, doc.ContentType, doc.StoragePath,
			doc.SizeBytes, doc.ChunkCount, doc.EmbeddingCount, doc.CreatedAt).
		Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("%w: inserting document %s: %v", catalog.ErrCatalogWrite, doc.ID, err)
	}

	for start := 0; start < len(chunks); start += chunkInsertBatch {
		end := min(start+chunkInsertBatch, len(chunks))

		insert := s.builder().Insert(chunksTable).Columns(chunkColumns...)
		for _, c := range chunks[start:end] {
			if c.CreatedAt.IsZero() {
				c.CreatedAt = doc.CreatedAt
			}
			insert.Values(c.ID, doc.ID, c.Index, c.Content, c.TokenCount, c.CreatedAt)
		}

		query, args := insert.Query()
		if err := tx.Exec(ctx, query, args, nil); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("%w: inserting chunks for %s: %v", catalog.ErrCatalogWrite, doc.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: committing document %s: %v", catalog.ErrCatalogWrite, doc.ID, err)
	}

	return nil
}

// MarkIndexed sets embedding_count for a document.
func (s *Store) MarkIndexed(ctx context.Context, id string, embeddingCount int) error {
	query, args := s.builder().Update(documentsTable).
		Set("embedding_count", embeddingCount).
		Where(entsql.EQ("id", id)).
		Query()

	var res sql.Result
	if err := s.Driver.Exec(ctx, query, args, &res); err != nil {
		return fmt.Errorf("%w: marking %s indexed: %v", catalog.ErrCatalogWrite, id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: marking %s indexed: %v", catalog.ErrCatalogWrite, id, err)
	}
	if affected == 0 {
		return catalog.NotFoundError{ID: id}
	}

	return nil
}

// GetDocument returns a single owner-scoped document.
func (s *Store) GetDocument(ctx context.Context, id, owner string) (*catalog.Document, error) {
	query, args := s.builder().Select(documentColumns...).
		From(entsql.Table(documentsTable)).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("owner", owner))).
		Query()

	docs, err := s.queryDocuments(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("getting document %s: %w", id, err)
	}
	if len(docs) == 0 {
		return nil, catalog.NotFoundError{ID: id}
	}

	return docs[0], nil
}

// ListDocuments returns a page of owner's documents, newest first.
func (s *Store) ListDocuments(ctx context.Context, owner string, page catalog.Page) ([]*catalog.Document, error) {
	page = page.Normalize()

	query, args := s.builder().Select(documentColumns...).
		From(entsql.Table(documentsTable)).
		Where(entsql.EQ("owner", owner)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
		Limit(page.Limit).
		Offset(page.Offset).
		Query()

	docs, err := s.queryDocuments(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	return docs, nil
}

// ListAll returns every document, newest first.
func (s *Store) ListAll(ctx context.Context) ([]*catalog.Document, error) {
	query, args := s.builder().Select(documentColumns...).
		From(entsql.Table(documentsTable)).
		OrderBy(entsql.Desc("created_at"), entsql.Desc("id")).
		Query()

	docs, err := s.queryDocuments(ctx, query, args)
	if err != nil {
		return nil, fmt.Errorf("listing all documents: %w", err)
	}

	return docs, nil
}

// ListChunks returns the chunks of a document ordered by index.
func (s *Store) ListChunks(ctx context.Context, documentID string) ([]*catalog.Chunk, error) {
	query, args := s.builder().Select(chunkColumns...).
		From(entsql.Table(chunksTable)).
		Where(entsql.EQ("document_id", documentID)).
		OrderBy("chunk_index").
		Query()

	rows := &entsql.Rows{}
	if err := s.Driver.Query(ctx, query, args, rows); err != nil {
		return nil, fmt.Errorf("listing chunks for %s: %w", documentID, err)
	}
	defer rows.Close()

	var chunks []*catalog.Chunk
	for rows.Next() {
		c := &catalog.Chunk{}
		if err := rows.Scan(&c.ID, &c.DocumentID, &c.Index, &c.Content, &c.TokenCount, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing chunks for %s: %w", documentID, err)
	}

	return chunks, nil
}

// DeleteDocument removes an owner-scoped document and its chunks in one
// transaction. Chunks are deleted explicitly so the result does not depend
// on the connection enforcing foreign keys.
func (s *Store) DeleteDocument(ctx context.Context, id, owner string) (bool, error) {
	tx, err := s.Driver.Tx(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: starting transaction: %v", catalog.ErrCatalogWrite, err)
	}

	query, args := s.builder().Delete(documentsTable).
		Where(entsql.And(entsql.EQ("id", id), entsql.EQ("owner", owner))).
		Query()

	var res sql.Result
	if err := tx.Exec(ctx, query, args, &res); err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("%w: deleting document %s: %v", catalog.ErrCatalogWrite, id, err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("%w: deleting document %s: %v", catalog.ErrCatalogWrite, id, err)
	}
	if affected == 0 {
		_ = tx.Rollback()
		return false, nil
	}

	query, args = s.builder().Delete(chunksTable).
		Where(entsql.EQ("document_id", id)).
		Query()
	if err := tx.Exec(ctx, query, args, nil); err != nil {
		_ = tx.Rollback()
		return false, fmt.Errorf("%w: deleting chunks of %s: %v", catalog.ErrCatalogWrite, id, err)
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("%w: committing delete of %s: %v", catalog.ErrCatalogWrite, id, err)
	}

	return true, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.Driver.Close()
}

func (s *Store) queryDocuments(ctx context.Context, query string, args []any) ([]*catalog.Document, error) {
	rows := &entsql.Rows{}
	if err := s.Driver.Query(ctx, query, args, rows); err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []*catalog.Document
	for rows.Next() {
		d := &catalog.Document{}
		if err := rows.Scan(&d.ID, &d.Owner, &d.Filename, &d.ContentType, &d.StoragePath,
			&d.SizeBytes, &d.ChunkCount, &d.EmbeddingCount, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning document: %w", err)
		}
		d.CreatedAt = d.CreatedAt.UTC()
		docs = append(docs, d)
	}

	return docs, rows.Err()
}

var _ catalog.Store = (*Store)(nil)
