package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/docrag/pkg/catalog"
	"github.com/papercomputeco/docrag/pkg/query"
)

var (
	askToolName    = "ask"
	askDescription = "Answer a question using only the owner's uploaded documents. Returns the answer and the passages it was drawn from."

	listDocumentsToolName    = "list_documents"
	listDocumentsDescription = "List the owner's uploaded documents, newest first."
)

// AskInput represents the input arguments for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from uploaded documents"`
	Owner    string `json:"owner,omitempty" jsonschema:"tenant whose documents are searched (default: server owner)"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of passages to retrieve (default: 4)"`
}

// ListDocumentsInput represents the input arguments for the list_documents tool.
type ListDocumentsInput struct {
	Owner  string `json:"owner,omitempty" jsonschema:"tenant whose documents are listed (default: server owner)"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum number of documents (default: 100)"`
	Offset int    `json:"offset,omitempty" jsonschema:"number of documents to skip"`
}

// DocumentInfo is one entry of the list_documents output.
type DocumentInfo struct {
	ID         string    `json:"id"`
	Filename   string    `json:"filename"`
	ChunkCount int       `json:"chunk_count"`
	Ready      bool      `json:"ready"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListDocumentsOutput represents the output of the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentInfo `json:"documents"`
	Count     int            `json:"count"`
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: fmt.Sprintf(format, args...)},
		},
	}
}

// textResult serializes structured output into a TextContent block as well.
func textResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(b)},
		},
	}, nil
}

func (s *Server) handleAsk(ctx context.Context, _ *mcp.CallToolRequest, input AskInput) (*mcp.CallToolResult, query.Answer, error) {
	owner := s.owner(input.Owner)
	s.config.Logger.Debug("MCP ask request", "owner", owner, "top_k", input.TopK)

	answer, err := s.config.Query.Answer(ctx, input.Question, owner, input.TopK)
	if err != nil {
		s.config.Logger.Error("failed to answer question", "error", err)
		return toolError("Failed to answer question: %v", err), query.Answer{}, nil
	}

	res, err := textResult(answer)
	if err != nil {
		return toolError("Failed to serialize answer: %v", err), query.Answer{}, nil
	}
	return res, *answer, nil
}

func (s *Server) handleListDocuments(ctx context.Context, _ *mcp.CallToolRequest, input ListDocumentsInput) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	owner := s.owner(input.Owner)

	docs, err := s.config.Catalog.ListDocuments(ctx, owner, catalog.Page{Limit: input.Limit, Offset: input.Offset})
	if err != nil {
		s.config.Logger.Error("failed to list documents", "error", err)
		return toolError("Failed to list documents: %v", err), ListDocumentsOutput{}, nil
	}

	out := ListDocumentsOutput{Documents: make([]DocumentInfo, len(docs)), Count: len(docs)}
	for i, d := range docs {
		out.Documents[i] = DocumentInfo{
			ID:         d.ID,
			Filename:   d.Filename,
			ChunkCount: d.ChunkCount,
			Ready:      d.Ready(),
			CreatedAt:  d.CreatedAt,
		}
	}

	res, err := textResult(out)
	if err != nil {
		return toolError("Failed to serialize documents: %v", err), ListDocumentsOutput{}, nil
	}
	return res, out, nil
}
