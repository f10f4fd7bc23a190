// Package inmemory provides a process-local vector driver using exact
// Euclidean search.
package inmemory

import (
	"context"
	"math"
	"slices"
	"sync"

	"github.com/papercomputeco/docrag/pkg/vector"
)

// Driver keeps entries in a map keyed by document id.
type Driver struct {
	mu   sync.RWMutex
	docs map[string][]vector.Entry
}

// NewDriver creates an empty in-memory driver.
func NewDriver() *Driver {
	return &Driver{docs: make(map[string][]vector.Entry)}
}

func (d *Driver) Upsert(_ context.Context, documentID string, entries []vector.Entry) error {
	copied := make([]vector.Entry, len(entries))
	for i, e := range entries {
		e.Embedding = slices.Clone(e.Embedding)
		copied[i] = e
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if len(copied) == 0 {
		delete(d.docs, documentID)
		return nil
	}
	d.docs[documentID] = copied
	return nil
}

func (d *Driver) Query(_ context.Context, owner string, embedding []float32, limit int) ([]vector.SourceChunk, error) {
	if limit <= 0 {
		return []vector.SourceChunk{}, nil
	}

	type hit struct {
		entry    vector.Entry
		distance float32
	}

	d.mu.RLock()
	var hits []hit
	for _, entries := range d.docs {
		for _, e := range entries {
			if e.Owner != owner || len(e.Embedding) != len(embedding) {
				continue
			}
			hits = append(hits, hit{entry: e, distance: euclidean(e.Embedding, embedding)})
		}
	}
	d.mu.RUnlock()

	slices.SortStableFunc(hits, func(a, b hit) int {
		switch {
		case a.distance < b.distance:
			return -1
		case a.distance > b.distance:
			return 1
		}
		if a.entry.ChunkID < b.entry.ChunkID {
			return -1
		}
		if a.entry.ChunkID > b.entry.ChunkID {
			return 1
		}
		return 0
	})

	if len(hits) > limit {
		hits = hits[:limit]
	}

	results := make([]vector.SourceChunk, len(hits))
	for i, h := range hits {
		score := h.distance
		results[i] = vector.SourceChunk{
			ChunkID:      h.entry.ChunkID,
			DocumentID:   h.entry.DocumentID,
			DocumentName: h.entry.DocumentName,
			ChunkIndex:   h.entry.ChunkIndex,
			Content:      h.entry.Content,
			Score:        &score,
		}
	}
	return results, nil
}

func (d *Driver) DeleteByDocument(_ context.Context, documentID string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.docs, documentID)
	return nil
}

func (d *Driver) Count(_ context.Context, documentID string) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return len(d.docs[documentID]), nil
}

func (d *Driver) Close() error {
	return nil
}

func euclidean(a, b []float32) float32 {
	var sum float64
	for i := range a {
		diff := float64(a[i]) - float64(b[i])
		sum += diff * diff
	}
	return float32(math.Sqrt(sum))
}

var _ vector.Driver = (*Driver)(nil)
