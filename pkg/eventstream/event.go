package eventstream

import (
	"time"

	"github.com/google/uuid"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeDocumentIngested is emitted after a document becomes ready.
	EventTypeDocumentIngested = "docrag.document.ingested"

	// EventTypeDocumentDeleted is emitted after a document is removed from
	// both stores.
	EventTypeDocumentDeleted = "docrag.document.deleted"
)

// DocumentEvent is a transport-neutral event payload for a document
// lifecycle change.
type DocumentEvent struct {
	SchemaVersion int          `json:"schema_version"`
	EventType     string       `json:"event_type"`
	EventID       string       `json:"event_id"`
	EmittedAt     time.Time    `json:"emitted_at"`
	Owner         string       `json:"owner"`
	Document      DocumentMeta `json:"document"`
}

// DocumentMeta describes the document the event refers to.
type DocumentMeta struct {
	ID          string `json:"id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	SizeBytes   int64  `json:"size_bytes,omitempty"`
	ChunkCount  int    `json:"chunk_count"`
}

// NewDocumentEvent stamps a new event with an id and the current time.
func NewDocumentEvent(eventType, owner string, doc DocumentMeta) *DocumentEvent {
	return &DocumentEvent{
		SchemaVersion: SchemaVersionV1,
		EventType:     eventType,
		EventID:       "evt_" + uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Owner:         owner,
		Document:      doc,
	}
}
