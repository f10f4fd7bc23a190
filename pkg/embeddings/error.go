package embeddings

import "errors"

// ErrUnavailable is returned when a provider cannot produce embeddings.
var ErrUnavailable = errors.New("embedding unavailable")
