package catalog

import "errors"

// ErrCatalogWrite is returned when a relational write fails.
var ErrCatalogWrite = errors.New("catalog write failed")

// NotFoundError is returned when a document doesn't exist for the caller.
type NotFoundError struct {
	ID string
}

func (e NotFoundError) Error() string {
	if e.ID == "" {
		return "document not found"
	}

	return "document not found: " + e.ID
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf NotFoundError
	return errors.As(err, &nf)
}
