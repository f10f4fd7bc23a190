package ingest

import (
	"errors"
	"fmt"

	"github.com/papercomputeco/docrag/pkg/extract"
)

var (
	// ErrNoFiles is returned when an ingest request carries no uploads.
	ErrNoFiles = errors.New("no files supplied")

	// ErrEmptyUpload is returned when an upload has no bytes.
	ErrEmptyUpload = errors.New("empty upload")

	// ErrChunkingFailed is returned when extracted text yields no chunks.
	ErrChunkingFailed = errors.New("unable to split text")
)

// FileError records where a single file's ingestion stopped.
type FileError struct {
	Filename string
	// State is the last state the file reached before failing.
	State State
	Err   error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s (after %s): %v", e.Filename, e.State, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// IsClientError reports whether err was caused by the caller's input rather
// than by a backend.
func IsClientError(err error) bool {
	return errors.Is(err, ErrNoFiles) ||
		errors.Is(err, ErrEmptyUpload) ||
		errors.Is(err, ErrChunkingFailed) ||
		errors.Is(err, extract.ErrUnsupportedFormat) ||
		errors.Is(err, extract.ErrExtractionFailed)
}
