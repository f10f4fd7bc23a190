// Package mcp provides an MCP (Model Context Protocol) server exposing
// question answering and document listing as tools.
package mcp

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/papercomputeco/docrag/pkg/catalog"
	"github.com/papercomputeco/docrag/pkg/query"
	"github.com/papercomputeco/docrag/pkg/utils"
)

type Config struct {
	// Query answers questions for the ask tool
	Query *query.Coordinator

	// Catalog lists documents for the list_documents tool
	Catalog catalog.Store

	// DefaultOwner is used when a tool call names no owner
	DefaultOwner string

	Logger *slog.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the ask and list_documents tools.
func NewServer(c Config) (*Server, error) {
	if c.Query == nil {
		return nil, errors.New("query coordinator is required")
	}
	if c.Catalog == nil {
		return nil, errors.New("catalog store is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "docrag",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        askToolName,
		Description: askDescription,
	}, s.handleAsk)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        listDocumentsToolName,
		Description: listDocumentsDescription,
	}, s.handleListDocuments)

	s.mcpServer = mcpServer

	// Stateless streamable HTTP handler
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) owner(requested string) string {
	if requested != "" {
		return requested
	}
	return s.config.DefaultOwner
}
