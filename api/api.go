package api

import (
	"errors"
	"log/slog"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/papercomputeco/docrag/api/mcp"
)

// OwnerHeader carries the tenant id on every request.
const OwnerHeader = "X-Owner-ID"

// Server is the docrag API server.
type Server struct {
	config Config
	logger *slog.Logger
	app    *fiber.App
}

// NewServer creates a new API server over already constructed coordinators.
func NewServer(config Config, logger *slog.Logger) (*Server, error) {
	if config.Ingest == nil {
		return nil, errors.New("ingest coordinator is required")
	}
	if config.Query == nil {
		return nil, errors.New("query coordinator is required")
	}
	if config.Catalog == nil {
		return nil, errors.New("catalog store is required")
	}
	if config.BodyLimit <= 0 {
		config.BodyLimit = DefaultBodyLimit
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             config.BodyLimit,
	})

	if config.AllowOrigins == "" {
		config.AllowOrigins = "*"
	}
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: config.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, " + OwnerHeader,
	}))

	s := &Server{
		config: config,
		logger: logger,
		app:    app,
	}

	app.Get("/api/health", s.handleHealth)
	app.Post("/api/upload", s.handleUpload)
	app.Get("/api/docs", s.handleListDocuments)
	app.Delete("/api/docs/:id", s.handleDeleteDocument)
	app.Post("/api/ask", s.handleAsk)
	app.Post("/api/title", s.handleTitle)

	if !config.DisableMCP {
		mcpServer, err := mcp.NewServer(mcp.Config{
			Query:        config.Query,
			Catalog:      config.Catalog,
			DefaultOwner: config.DefaultOwner,
			Logger:       logger,
		})
		if err != nil {
			return nil, err
		}
		handler := adaptor.HTTPHandler(mcpServer.Handler())
		app.All("/mcp", handler)
		app.All("/mcp/*", handler)
	}

	return s, nil
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		"listen", s.config.ListenAddr,
		"mcp", !s.config.DisableMCP,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}
