package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/docrag/pkg/eventstream"
)

// MockPublisher records published document events.
type MockPublisher struct {
	mu     sync.Mutex
	events []*eventstream.DocumentEvent

	Err error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) PublishDocument(_ context.Context, event *eventstream.DocumentEvent) error {
	if event == nil {
		return eventstream.ErrNilDocumentEvent
	}
	if m.Err != nil {
		return m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
	return nil
}

// EventTypes returns the types of recorded events in publish order.
func (m *MockPublisher) EventTypes() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	types := make([]string, len(m.events))
	for i, e := range m.events {
		types[i] = e.EventType
	}
	return types
}

// Events returns a copy of the recorded events.
func (m *MockPublisher) Events() []*eventstream.DocumentEvent {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*eventstream.DocumentEvent, len(m.events))
	copy(out, m.events)
	return out
}

func (m *MockPublisher) Close() error { return nil }

var _ eventstream.Publisher = (*MockPublisher)(nil)
