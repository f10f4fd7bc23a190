// Package api provides the HTTP intake for uploading documents, listing and
// deleting them, and asking questions.
package api

import (
	"github.com/papercomputeco/docrag/pkg/catalog"
	"github.com/papercomputeco/docrag/pkg/ingest"
	"github.com/papercomputeco/docrag/pkg/query"
)

// DefaultBodyLimit caps request bodies, uploads included.
const DefaultBodyLimit = 50 << 20

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on (e.g., ":8000")
	ListenAddr string

	// DefaultOwner is the tenant used when a request carries no X-Owner-ID.
	DefaultOwner string

	// DisableMCP leaves the /mcp endpoint unmounted.
	DisableMCP bool

	// BodyLimit defaults to DefaultBodyLimit.
	BodyLimit int

	// AllowOrigins is the CORS origin list; "*" when empty.
	AllowOrigins string

	Ingest  *ingest.Coordinator
	Query   *query.Coordinator
	Catalog catalog.Store
}
