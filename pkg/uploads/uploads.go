// Package uploads persists the raw bytes of uploaded files before they are
// processed. Locations are afs URLs, so a plain directory, mem:// or any
// other registered scheme works as the base.
package uploads

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"
)

// DefaultContentType is recorded when the client declared none.
const DefaultContentType = "application/octet-stream"

// ErrStorage wraps failures of the underlying file service.
var ErrStorage = errors.New("upload storage failed")

// Stored describes a persisted upload.
type Stored struct {
	OriginalName string
	StoredName   string
	ContentType  string
	SizeBytes    int64
	Location     string
	UploadedAt   time.Time
}

// Store saves uploads under a base location.
type Store struct {
	fs      afs.Service
	baseURL string
}

// NewStore returns a store rooted at base, a local directory or an afs URL.
func NewStore(base string) (*Store, error) {
	if strings.TrimSpace(base) == "" {
		return nil, errors.New("uploads base location is required")
	}

	return &Store{
		fs:      afs.New(),
		baseURL: url.Normalize(base, file.Scheme),
	}, nil
}

// Save writes data as "{hex uuid}_{safe name}" and returns its metadata.
func (s *Store) Save(ctx context.Context, filename, contentType string, data []byte) (*Stored, error) {
	stored := SafeName(filename)
	stored = strings.ReplaceAll(uuid.NewString(), "-", "") + "_" + stored
	location := url.Join(s.baseURL, stored)

	if err := s.fs.Upload(ctx, location, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("%w: writing %s: %v", ErrStorage, location, err)
	}

	original := filename
	if original == "" {
		original = stored
	}
	if contentType == "" {
		contentType = DefaultContentType
	}

	return &Stored{
		OriginalName: original,
		StoredName:   stored,
		ContentType:  contentType,
		SizeBytes:    int64(len(data)),
		Location:     location,
		UploadedAt:   time.Now().UTC(),
	}, nil
}

// Load reads a previously saved upload.
func (s *Store) Load(ctx context.Context, location string) ([]byte, error) {
	data, err := s.fs.DownloadWithURL(ctx, location)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", ErrStorage, location, err)
	}
	return data, nil
}

// Remove deletes a saved upload. Missing files are not an error.
func (s *Store) Remove(ctx context.Context, location string) error {
	if location == "" {
		return nil
	}

	ok, err := s.fs.Exists(ctx, location)
	if err != nil {
		return fmt.Errorf("%w: checking %s: %v", ErrStorage, location, err)
	}
	if !ok {
		return nil
	}

	if err := s.fs.Delete(ctx, location); err != nil {
		return fmt.Errorf("%w: deleting %s: %v", ErrStorage, location, err)
	}
	return nil
}

// SafeName strips any directory part from a client supplied filename and
// replaces spaces with underscores.
func SafeName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	if name == "." || name == "/" || name == "" {
		name = "upload"
	}
	return strings.ReplaceAll(name, " ", "_")
}
