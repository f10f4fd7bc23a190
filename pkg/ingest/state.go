package ingest

// State is a step of a file's ingestion lifecycle.
type State string

const (
	StateReceived        State = "received"
	StateExtracted       State = "extracted"
	StateChunked         State = "chunked"
	StateEmbedded        State = "embedded"
	StateCatalogCommitted State = "catalog-committed"
	StateIndexed         State = "indexed"
	StateReady           State = "ready"
	StateError           State = "error"
)
