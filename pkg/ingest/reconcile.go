package ingest

import (
	"context"
	"fmt"

	"github.com/papercomputeco/docrag/pkg/catalog"
	"github.com/papercomputeco/docrag/pkg/worker"
)

// ReconcileReport summarizes a Reconcile pass.
type ReconcileReport struct {
	Scanned  int
	Healthy  int
	Repaired []string
	Failures []*FileError
}

// Reconcile walks every catalog document and repairs those whose vector
// entries disagree with the catalog counts, by re-embedding the stored
// chunks and re-running the index step.
func (c *Coordinator) Reconcile(ctx context.Context) (*ReconcileReport, error) {
	docs, err := worker.Do(ctx, c.pool, func(ctx context.Context) ([]*catalog.Document, error) {
		return c.catalog.ListAll(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	report := &ReconcileReport{}
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		report.Scanned++

		healthy, err := c.healthy(ctx, doc)
		if err != nil {
			report.Failures = append(report.Failures, &FileError{Filename: doc.Filename, State: StateCatalogCommitted, Err: err})
			continue
		}
		if healthy {
			report.Healthy++
			continue
		}

		if state, err := c.repair(ctx, doc); err != nil {
			c.logger.Warn("reconcile failed", "document_id", doc.ID, "state", state, "error", err)
			report.Failures = append(report.Failures, &FileError{Filename: doc.Filename, State: state, Err: err})
			continue
		}
		report.Repaired = append(report.Repaired, doc.ID)
	}

	c.logger.Info("reconcile complete",
		"scanned", report.Scanned,
		"healthy", report.Healthy,
		"repaired", len(report.Repaired),
		"failed", len(report.Failures),
	)
	return report, nil
}

func (c *Coordinator) healthy(ctx context.Context, doc *catalog.Document) (bool, error) {
	if !doc.Ready() {
		return false, nil
	}

	n, err := worker.Do(ctx, c.pool, func(ctx context.Context) (int, error) {
		return c.index.Count(ctx, doc.ID)
	})
	if err != nil {
		return false, err
	}
	return n == doc.ChunkCount, nil
}

func (c *Coordinator) repair(ctx context.Context, doc *catalog.Document) (State, error) {
	rows, err := worker.Do(ctx, c.pool, func(ctx context.Context) ([]*catalog.Chunk, error) {
		return c.catalog.ListChunks(ctx, doc.ID)
	})
	if err != nil {
		return StateCatalogCommitted, err
	}
	if len(rows) == 0 {
		return StateCatalogCommitted, fmt.Errorf("%w: document %s has no stored chunks", ErrChunkingFailed, doc.ID)
	}

	texts := make([]string, len(rows))
	for i, r := range rows {
		texts[i] = r.Content
	}

	vectors, err := c.embed(ctx, texts)
	if err != nil {
		return StateCatalogCommitted, err
	}

	if err := c.indexDocument(ctx, doc, rows, vectors); err != nil {
		return StateCatalogCommitted, err
	}

	_, err = worker.Do(ctx, c.pool, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, c.catalog.MarkIndexed(ctx, doc.ID, len(rows))
	})
	if err != nil {
		return StateIndexed, err
	}

	c.logger.Info("reconciled document", "document_id", doc.ID, "chunks", len(rows))
	return StateReady, nil
}
