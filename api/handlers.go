package api

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/docrag/pkg/catalog"
	"github.com/papercomputeco/docrag/pkg/ingest"
	"github.com/papercomputeco/docrag/pkg/query"
)

const (
	minQuestionChars = 3
	minContextChars  = 5
	uploadField      = "files"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Error string `json:"error"`
}

// DocumentSummary is the public view of a catalog document.
type DocumentSummary struct {
	ID             string    `json:"id"`
	Filename       string    `json:"filename"`
	ContentType    string    `json:"content_type"`
	ChunkCount     int       `json:"chunk_count"`
	EmbeddingCount int       `json:"embedding_count"`
	CreatedAt      time.Time `json:"created_at"`
}

// FileFailure reports a file that did not become ready.
type FileFailure struct {
	Filename string `json:"filename"`
	State    string `json:"state"`
	Error    string `json:"error"`
}

// UploadResponse is returned by POST /api/upload.
type UploadResponse struct {
	Documents []DocumentSummary `json:"documents"`
	Count     int               `json:"count"`
	Failures  []FileFailure     `json:"failures,omitempty"`
}

// DocumentListResponse is returned by GET /api/docs.
type DocumentListResponse struct {
	Documents []DocumentSummary `json:"documents"`
}

// AskRequest is the body of POST /api/ask.
type AskRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k,omitempty"`
}

// TitleRequest is the body of POST /api/title.
type TitleRequest struct {
	Context string `json:"context"`
}

// TitleResponse is returned by POST /api/title.
type TitleResponse struct {
	Title string `json:"title"`
}

func summarize(docs []*catalog.Document) []DocumentSummary {
	out := make([]DocumentSummary, len(docs))
	for i, d := range docs {
		out[i] = DocumentSummary{
			ID:             d.ID,
			Filename:       d.Filename,
			ContentType:    d.ContentType,
			ChunkCount:     d.ChunkCount,
			EmbeddingCount: d.EmbeddingCount,
			CreatedAt:      d.CreatedAt,
		}
	}
	return out
}

// owner resolves the tenant for the request.
func (s *Server) owner(c *fiber.Ctx) string {
	if id := strings.TrimSpace(c.Get(OwnerHeader)); id != "" {
		return id
	}
	return s.config.DefaultOwner
}

// fail maps caller-input errors to 400 and everything else to 500.
func (s *Server) fail(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	if ingest.IsClientError(err) || errors.Is(err, query.ErrEmptyQuestion) {
		status = fiber.StatusBadRequest
	} else {
		s.logger.Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
	}
	return c.Status(status).JSON(ErrorResponse{Error: err.Error()})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msg})
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// handleUpload ingests the multipart "files" field.
func (s *Server) handleUpload(c *fiber.Ctx) error {
	form, err := c.MultipartForm()
	if err != nil {
		return badRequest(c, "expected multipart form with a files field")
	}

	headers := form.File[uploadField]
	uploads := make([]ingest.Upload, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			return s.fail(c, err)
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return s.fail(c, err)
		}

		uploads = append(uploads, ingest.Upload{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get(fiber.HeaderContentType),
			Data:        data,
		})
	}

	res, err := s.config.Ingest.Ingest(c.UserContext(), s.owner(c), uploads)
	if err != nil {
		return s.fail(c, err)
	}

	resp := UploadResponse{
		Documents: summarize(res.Documents),
		Count:     res.Count,
	}
	for _, f := range res.Failures {
		resp.Failures = append(resp.Failures, FileFailure{
			Filename: f.Filename,
			State:    string(f.State),
			Error:    f.Err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(resp)
}

// handleListDocuments lists the owner's documents, newest first.
// Query parameters:
//   - limit (optional, default 100)
//   - offset (optional, default 0)
func (s *Server) handleListDocuments(c *fiber.Ctx) error {
	page := catalog.Page{}
	for name, dst := range map[string]*int{"limit": &page.Limit, "offset": &page.Offset} {
		raw := c.Query(name)
		if raw == "" {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			return badRequest(c, name+" must be a non-negative integer")
		}
		*dst = n
	}

	docs, err := s.config.Catalog.ListDocuments(c.UserContext(), s.owner(c), page)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(DocumentListResponse{Documents: summarize(docs)})
}

// handleDeleteDocument removes a document from both stores.
func (s *Server) handleDeleteDocument(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "id parameter required")
	}

	ok, err := s.config.Ingest.Delete(c.UserContext(), id, s.owner(c))
	if err != nil {
		return s.fail(c, err)
	}
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "document not found"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// handleAsk answers a question from the owner's documents.
func (s *Server) handleAsk(c *fiber.Ctx) error {
	var req AskRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	question := strings.TrimSpace(req.Question)
	if utf8.RuneCountInString(question) < minQuestionChars {
		return badRequest(c, "question must be at least 3 characters")
	}
	if req.TopK < 0 {
		return badRequest(c, "top_k must be a positive integer")
	}

	answer, err := s.config.Query.Answer(c.UserContext(), question, s.owner(c), req.TopK)
	if err != nil {
		return s.fail(c, err)
	}

	return c.JSON(answer)
}

// handleTitle proposes a short title for a piece of context.
func (s *Server) handleTitle(c *fiber.Ctx) error {
	var req TitleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body")
	}

	if utf8.RuneCountInString(strings.TrimSpace(req.Context)) < minContextChars {
		return badRequest(c, "context must be at least 5 characters")
	}

	return c.JSON(TitleResponse{Title: s.config.Query.Title(c.UserContext(), req.Context)})
}
