package extract

import "errors"

var (
	// ErrUnsupportedFormat is returned when neither the file extension nor the
	// declared media type maps to a known extractor.
	ErrUnsupportedFormat = errors.New("unsupported file type")

	// ErrExtractionFailed is returned when a recognized format cannot be read.
	ErrExtractionFailed = errors.New("text extraction failed")
)
