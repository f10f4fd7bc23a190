package testutils

import (
	"context"
	"errors"
	"sync"

	"github.com/papercomputeco/docrag/pkg/vector"
	"github.com/papercomputeco/docrag/pkg/vector/inmemory"
)

// ErrMockVector is returned by MockVectorDriver when a failure is armed.
var ErrMockVector = errors.New("mock vector failure")

// MockVectorDriver is an in-memory vector driver with switchable failures.
type MockVectorDriver struct {
	*inmemory.Driver

	mu sync.Mutex

	FailUpsert bool
	FailQuery  bool
	FailDelete bool
	FailCount  bool

	// Deleted records DeleteByDocument calls in order.
	Deleted []string
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{Driver: inmemory.NewDriver()}
}

func (m *MockVectorDriver) Upsert(ctx context.Context, documentID string, entries []vector.Entry) error {
	if m.FailUpsert {
		return ErrMockVector
	}
	return m.Driver.Upsert(ctx, documentID, entries)
}

func (m *MockVectorDriver) Query(ctx context.Context, owner string, embedding []float32, limit int) ([]vector.SourceChunk, error) {
	if m.FailQuery {
		return nil, ErrMockVector
	}
	return m.Driver.Query(ctx, owner, embedding, limit)
}

func (m *MockVectorDriver) DeleteByDocument(ctx context.Context, documentID string) error {
	m.mu.Lock()
	m.Deleted = append(m.Deleted, documentID)
	m.mu.Unlock()

	if m.FailDelete {
		return ErrMockVector
	}
	return m.Driver.DeleteByDocument(ctx, documentID)
}

func (m *MockVectorDriver) Count(ctx context.Context, documentID string) (int, error) {
	if m.FailCount {
		return 0, ErrMockVector
	}
	return m.Driver.Count(ctx, documentID)
}

var _ vector.Driver = (*MockVectorDriver)(nil)
