// Package ingest turns uploaded files into ready documents: text is
// extracted, chunked and embedded, then written to the catalog and the
// vector index. It is the only component that writes to both stores.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/papercomputeco/docrag/pkg/catalog"
	"github.com/papercomputeco/docrag/pkg/chunker"
	"github.com/papercomputeco/docrag/pkg/embeddings"
	"github.com/papercomputeco/docrag/pkg/eventstream"
	"github.com/papercomputeco/docrag/pkg/eventstream/nop"
	"github.com/papercomputeco/docrag/pkg/extract"
	"github.com/papercomputeco/docrag/pkg/uploads"
	"github.com/papercomputeco/docrag/pkg/vector"
	"github.com/papercomputeco/docrag/pkg/worker"
)

// Upload is one file handed to the coordinator.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Result is the outcome of a multi-file ingest.
type Result struct {
	// Documents holds the ready documents, newest first.
	Documents []*catalog.Document
	Count     int
	Failures  []*FileError
}

// Config wires the coordinator's collaborators.
type Config struct {
	Catalog  catalog.Store
	Index    *vector.Index
	Embedder embeddings.Embedder
	Splitter *chunker.Splitter

	// Uploads persists raw bytes. Optional.
	Uploads *uploads.Store

	// Pool runs the blocking steps. A nil pool runs them inline.
	Pool *worker.Pool

	// Publisher receives lifecycle events. Defaults to a no-op publisher.
	Publisher eventstream.Publisher

	Logger *slog.Logger
}

// Coordinator runs ingestion, deletion and reconciliation.
type Coordinator struct {
	catalog   catalog.Store
	index     *vector.Index
	embedder  embeddings.Embedder
	splitter  *chunker.Splitter
	uploads   *uploads.Store
	pool      *worker.Pool
	publisher eventstream.Publisher
	logger    *slog.Logger

	inflight sync.WaitGroup
}

// New validates c and returns a coordinator.
func New(c *Config) (*Coordinator, error) {
	if c.Catalog == nil {
		return nil, errors.New("catalog store is required")
	}
	if c.Index == nil {
		return nil, errors.New("vector index is required")
	}
	if c.Embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if c.Splitter == nil {
		return nil, errors.New("splitter is required")
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	publisher := c.Publisher
	if publisher == nil {
		publisher = nop.NewPublisher(logger)
	}

	return &Coordinator{
		catalog:   c.Catalog,
		index:     c.Index,
		embedder:  c.Embedder,
		splitter:  c.Splitter,
		uploads:   c.Uploads,
		pool:      c.Pool,
		publisher: publisher,
		logger:    logger,
	}, nil
}

// Ingest processes files in order. A failing file does not affect its
// siblings. An error is returned when files is empty, when any upload is
// empty, or when no file became ready; in the last case the Result is
// still returned alongside the first failure.
//
// The batch runs detached from ctx: when ctx ends, Ingest returns ctx.Err()
// and the remaining work still completes.
func (c *Coordinator) Ingest(ctx context.Context, owner string, files []Upload) (*Result, error) {
	if len(files) == 0 {
		return nil, ErrNoFiles
	}

	for _, f := range files {
		if len(f.Data) == 0 {
			return nil, &FileError{Filename: f.Filename, State: StateReceived, Err: ErrEmptyUpload}
		}
	}

	return detached(ctx, c, func(ctx context.Context) (*Result, error) {
		return c.ingest(ctx, owner, files)
	})
}

// Wait blocks until every detached ingestion and deletion has finished.
// Call it once callers have stopped submitting work.
func (c *Coordinator) Wait() {
	c.inflight.Wait()
}

func (c *Coordinator) ingest(ctx context.Context, owner string, files []Upload) (*Result, error) {
	res := &Result{}
	for _, f := range files {
		doc, err := c.ingestOne(ctx, owner, f)
		if err != nil {
			var fe *FileError
			if !errors.As(err, &fe) {
				fe = &FileError{Filename: f.Filename, State: StateError, Err: err}
			}
			res.Failures = append(res.Failures, fe)
			continue
		}
		res.Documents = append(res.Documents, doc)
	}

	slices.Reverse(res.Documents)
	slices.SortStableFunc(res.Documents, func(a, b *catalog.Document) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	res.Count = len(res.Documents)

	if res.Count == 0 {
		return res, res.Failures[0]
	}
	return res, nil
}

// IngestOne runs a single file through every state up to ready. Failures
// are returned as *FileError. Like Ingest, it runs detached from ctx.
func (c *Coordinator) IngestOne(ctx context.Context, owner string, f Upload) (*catalog.Document, error) {
	return detached(ctx, c, func(ctx context.Context) (*catalog.Document, error) {
		return c.ingestOne(ctx, owner, f)
	})
}

func (c *Coordinator) ingestOne(ctx context.Context, owner string, f Upload) (*catalog.Document, error) {
	log := c.logger.With("filename", f.Filename, "owner", owner)
	fail := func(state State, err error) (*catalog.Document, error) {
		log.Warn("ingestion failed", "state", state, "error", err)
		return nil, &FileError{Filename: f.Filename, State: state, Err: err}
	}

	if len(f.Data) == 0 {
		return fail(StateReceived, ErrEmptyUpload)
	}

	text, err := worker.Do(ctx, c.pool, func(context.Context) (string, error) {
		return extract.Extract(f.Data, f.Filename, f.ContentType)
	})
	if err != nil {
		return fail(StateReceived, err)
	}
	if strings.TrimSpace(text) == "" {
		return fail(StateReceived, fmt.Errorf("%w: no text found in %s", extract.ErrExtractionFailed, f.Filename))
	}

	chunks, err := worker.Do(ctx, c.pool, func(context.Context) ([]string, error) {
		return c.splitter.Split(text), nil
	})
	if err != nil {
		return fail(StateExtracted, err)
	}
	if len(chunks) == 0 {
		return fail(StateExtracted, fmt.Errorf("%w: %s", ErrChunkingFailed, f.Filename))
	}

	vectors, err := c.embed(ctx, chunks)
	if err != nil {
		return fail(StateChunked, err)
	}

	doc := &catalog.Document{
		ID:          uuid.NewString(),
		Owner:       owner,
		Filename:    f.Filename,
		ContentType: f.ContentType,
		SizeBytes:   int64(len(f.Data)),
		ChunkCount:  len(chunks),
		CreatedAt:   time.Now().UTC(),
	}
	if doc.ContentType == "" {
		doc.ContentType = uploads.DefaultContentType
	}

	if c.uploads != nil {
		stored, err := worker.Do(ctx, c.pool, func(ctx context.Context) (*uploads.Stored, error) {
			return c.uploads.Save(ctx, f.Filename, f.ContentType, f.Data)
		})
		if err != nil {
			return fail(StateEmbedded, err)
		}
		doc.StoragePath = stored.Location
	}

	rows := make([]*catalog.Chunk, len(chunks))
	for i, content := range chunks {
		rows[i] = &catalog.Chunk{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			Index:      i,
			Content:    content,
			TokenCount: catalog.TokenCount(content),
			CreatedAt:  doc.CreatedAt,
		}
	}

	_, err = worker.Do(ctx, c.pool, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.catalog.CreateDocument(ctx, doc, rows)
	})
	if err != nil {
		c.removeUpload(ctx, doc.StoragePath)
		return fail(StateEmbedded, err)
	}
	log = log.With("document_id", doc.ID)

	if err := c.indexDocument(ctx, doc, rows, vectors); err != nil {
		c.compensate(ctx, doc, log)
		return fail(StateCatalogCommitted, err)
	}

	_, err = worker.Do(ctx, c.pool, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.catalog.MarkIndexed(ctx, doc.ID, len(rows))
	})
	if err != nil {
		// The row stays non-ready until the reconciler repairs it.
		return fail(StateIndexed, err)
	}
	doc.EmbeddingCount = len(rows)

	log.Info("document ready", "chunks", doc.ChunkCount)
	c.publish(ctx, eventstream.EventTypeDocumentIngested, doc)

	return doc, nil
}

// Delete removes an owner's document from the vector index and then from
// the catalog. A vector failure aborts the delete so no entries are
// orphaned. It reports false when no such document exists for owner. Once
// started, a delete runs to completion even if ctx ends.
func (c *Coordinator) Delete(ctx context.Context, id, owner string) (bool, error) {
	return detached(ctx, c, func(ctx context.Context) (bool, error) {
		return c.delete(ctx, id, owner)
	})
}

func (c *Coordinator) delete(ctx context.Context, id, owner string) (bool, error) {
	doc, err := worker.Do(ctx, c.pool, func(ctx context.Context) (*catalog.Document, error) {
		return c.catalog.GetDocument(ctx, id, owner)
	})
	if err != nil {
		if catalog.IsNotFound(err) {
			return false, nil
		}
		return false, err
	}

	_, err = worker.Do(ctx, c.pool, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.index.DeleteByDocument(ctx, doc.ID)
	})
	if err != nil {
		return false, err
	}

	deleted, err := worker.Do(ctx, c.pool, func(ctx context.Context) (bool, error) {
		return c.catalog.DeleteDocument(ctx, doc.ID, owner)
	})
	if err != nil {
		return false, err
	}
	if !deleted {
		return false, nil
	}

	c.removeUpload(ctx, doc.StoragePath)
	c.logger.Info("document deleted", "document_id", doc.ID, "owner", owner)
	c.publish(ctx, eventstream.EventTypeDocumentDeleted, doc)

	return true, nil
}

// detached runs fn through worker.Detach and tracks it for Wait.
func detached[T any](ctx context.Context, c *Coordinator, fn func(ctx context.Context) (T, error)) (T, error) {
	c.inflight.Add(1)
	return worker.Detach(ctx, func(ctx context.Context) (T, error) {
		defer c.inflight.Done()
		return fn(ctx)
	})
}

func (c *Coordinator) embed(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := worker.Do(ctx, c.pool, func(ctx context.Context) ([][]float32, error) {
		return c.embedder.EmbedMany(ctx, texts)
	})
	if err != nil {
		if errors.Is(err, embeddings.ErrUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", embeddings.ErrUnavailable, err)
	}

	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts",
			embeddings.ErrUnavailable, len(vectors), len(texts))
	}
	if err := embeddings.CheckDimensions(vectors, c.embedder.Dimensions()); err != nil {
		return nil, err
	}

	return vectors, nil
}

func (c *Coordinator) indexDocument(ctx context.Context, doc *catalog.Document, rows []*catalog.Chunk, vectors [][]float32) error {
	records := make([]vector.ChunkRecord, len(rows))
	for i, r := range rows {
		records[i] = vector.ChunkRecord{ID: r.ID, Index: r.Index, Content: r.Content}
	}
	ref := vector.DocumentRef{ID: doc.ID, Name: doc.Filename, Owner: doc.Owner}

	_, err := worker.Do(ctx, c.pool, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.index.Upsert(ctx, ref, records, vectors)
	})
	return err
}

// compensate undoes a committed catalog row after the index step failed.
// When it cannot, the row is left non-ready for Reconcile.
func (c *Coordinator) compensate(ctx context.Context, doc *catalog.Document, log *slog.Logger) {
	_, err := worker.Do(ctx, c.pool, func(ctx context.Context) (struct{}, error) {
		if err := c.index.DeleteByDocument(ctx, doc.ID); err != nil {
			return struct{}{}, err
		}
		_, err := c.catalog.DeleteDocument(ctx, doc.ID, doc.Owner)
		return struct{}{}, err
	})
	if err != nil {
		log.Error("compensation failed, document left for reconcile", "error", err)
		return
	}

	c.removeUpload(ctx, doc.StoragePath)
	log.Info("rolled back partially ingested document")
}

func (c *Coordinator) removeUpload(ctx context.Context, location string) {
	if c.uploads == nil || location == "" {
		return
	}
	_, err := worker.Do(ctx, c.pool, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.uploads.Remove(ctx, location)
	})
	if err != nil {
		c.logger.Warn("failed to remove stored upload", "location", location, "error", err)
	}
}

func (c *Coordinator) publish(ctx context.Context, eventType string, doc *catalog.Document) {
	event := eventstream.NewDocumentEvent(eventType, doc.Owner, eventstream.DocumentMeta{
		ID:          doc.ID,
		Filename:    doc.Filename,
		ContentType: doc.ContentType,
		SizeBytes:   doc.SizeBytes,
		ChunkCount:  doc.ChunkCount,
	})
	job := func(ctx context.Context) {
		if err := c.publisher.PublishDocument(ctx, event); err != nil {
			c.logger.Warn("failed to publish document event",
				"event_type", eventType,
				"document_id", doc.ID,
				"error", err,
			)
		}
	}

	// Publishing happens off the request path; a full queue falls back to
	// publishing inline.
	if c.pool == nil || !c.pool.Enqueue(ctx, job) {
		job(context.WithoutCancel(ctx))
	}
}
