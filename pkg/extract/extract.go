// Package extract turns uploaded bytes into plain text.
package extract

import (
	"bytes"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Kind is a recognized document format.
type Kind string

const (
	KindText Kind = "text"
	KindPDF  Kind = "pdf"
)

var extensionKinds = map[string]Kind{
	".txt":  KindText,
	".text": KindText,
	".md":   KindText,
	".pdf":  KindPDF,
}

var mediaTypeKinds = map[string]Kind{
	"text/plain":      KindText,
	"text/markdown":   KindText,
	"application/pdf": KindPDF,
}

// pageSeparator joins the text of consecutive non-empty PDF pages.
const pageSeparator = "\n\n"

// Detect resolves the format of an upload. The file extension wins; the
// declared media type is consulted only when the extension is missing.
func Detect(filename, mediaType string) (Kind, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if kind, ok := extensionKinds[ext]; ok {
		return kind, nil
	}

	if ext == "" && mediaType != "" {
		mt, _, err := mime.ParseMediaType(mediaType)
		if err == nil {
			if kind, ok := mediaTypeKinds[mt]; ok {
				return kind, nil
			}
		}
	}

	if ext == "" {
		ext = mediaType
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
}

// Extract returns the plain text content of data.
func Extract(data []byte, filename, mediaType string) (string, error) {
	kind, err := Detect(filename, mediaType)
	if err != nil {
		return "", err
	}

	switch kind {
	case KindPDF:
		return PDF(data)
	default:
		return Text(data), nil
	}
}

// Text decodes data as UTF-8, dropping invalid byte sequences.
func Text(data []byte) string {
	s := strings.ToValidUTF8(string(data), "")
	return strings.TrimPrefix(s, "\uFEFF")
}

// PDF extracts text page by page. Pages with no text are skipped and the rest
// are joined with a blank line.
func PDF(data []byte) (text string, err error) {
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty pdf", ErrExtractionFailed)
	}

	// The parser panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: reading pdf: %v", ErrExtractionFailed, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: opening pdf: %v", ErrExtractionFailed, err)
	}

	pages := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("%w: page %d: %v", ErrExtractionFailed, i, err)
		}

		if content = strings.TrimSpace(content); content != "" {
			pages = append(pages, content)
		}
	}

	return strings.Join(pages, pageSeparator), nil
}
