// Package nop is the publisher used when document events are disabled. It
// counts and drops events.
package nop

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/papercomputeco/docrag/pkg/eventstream"
)

type Publisher struct {
	logger  *slog.Logger
	dropped atomic.Int64
}

// NewPublisher returns a publisher that drops events, logging each at debug
// level when logger is non-nil.
func NewPublisher(logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Publisher{logger: logger}
}

func (p *Publisher) PublishDocument(ctx context.Context, event *eventstream.DocumentEvent) error {
	if event == nil {
		return eventstream.ErrNilDocumentEvent
	}
	p.dropped.Add(1)
	p.logger.DebugContext(ctx, "document event dropped",
		"event_type", event.EventType,
		"document_id", event.Document.ID,
	)
	return nil
}

// Dropped reports how many events have been discarded.
func (p *Publisher) Dropped() int64 {
	return p.dropped.Load()
}

func (p *Publisher) Close() error {
	return nil
}

var _ eventstream.Publisher = (*Publisher)(nil)
