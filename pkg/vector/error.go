package vector

import "errors"

var (
	// ErrIndexWrite is returned when entries cannot be written or removed.
	ErrIndexWrite = errors.New("vector index write failed")

	// ErrRetrieval marks a failed similarity query. Index swallows it into an
	// empty result.
	ErrRetrieval = errors.New("vector retrieval degraded")

	// ErrConnection is returned when the vector store connection fails.
	ErrConnection = errors.New("vector store connection failed")
)
