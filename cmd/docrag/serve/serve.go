// Package servecmder provides the serve command, which runs the HTTP API and
// MCP endpoint over a single pipeline.
package servecmder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docrag/api"
	"github.com/papercomputeco/docrag/cmd/docrag/cmdutil"
	"github.com/papercomputeco/docrag/pkg/config"
	"github.com/papercomputeco/docrag/pkg/logger"
	"github.com/papercomputeco/docrag/pkg/pipeline"
)

type serveCommander struct {
	noMCP     bool
	reconcile bool
	logFile   string
	logger    *slog.Logger
}

const serveLongDesc string = `Run the docrag API server.

Serves the HTTP API under /api and the MCP tool endpoint under /mcp.
Every flag can also be set in config.toml or via DOCRAG_* environment
variables, e.g. DOCRAG_API_LISTEN=:9000.

Examples:
  docrag serve
  docrag serve --listen :9000 --vector-store-provider qdrant --vector-store-target localhost:6334
  docrag serve --storage-driver postgres --postgres-dsn postgres://localhost/docrag`

const serveShortDesc string = "Run the docrag API server"

var serveKeys = append([]string{config.FlagListen}, cmdutil.PipelineKeys...)

func NewServeCmd() *cobra.Command {
	cmder := &serveCommander{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: serveShortDesc,
		Long:  serveLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			closeLog, err := cmder.initLogger(cmd)
			if err != nil {
				return err
			}
			defer closeLog()
			return cmdutil.WithPipeline(cmd, serveKeys, cmder.logger, cmder.run)
		},
	}

	cmdutil.AddFlags(cmd, serveKeys)
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Do not mount the MCP endpoint")
	cmd.Flags().BoolVar(&cmder.reconcile, "reconcile", true, "Repair documents missing vector entries at startup")
	cmd.Flags().StringVar(&cmder.logFile, "log-file", "", "Also write JSON logs to this file")

	return cmd
}

// initLogger builds the console logger and, with --log-file, tees records to
// a JSON log file. The returned func closes the file.
func (c *serveCommander) initLogger(cmd *cobra.Command) (func(), error) {
	console, err := cmdutil.Logger(cmd)
	if err != nil {
		return nil, err
	}
	c.logger = console
	if c.logFile == "" {
		return func() {}, nil
	}

	level, err := cmdutil.Level(cmd)
	if err != nil {
		return nil, err
	}
	f, err := os.OpenFile(c.logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	c.logger = logger.Multi(console, logger.New(logger.WithWriter(f), logger.WithJSON(true), logger.WithLevel(level)))
	return func() { _ = f.Close() }, nil
}

func (c *serveCommander) run(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline) error {
	server, err := c.prepare(ctx, cfg, p)
	if err != nil {
		return err
	}

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("API server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		c.logger.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}

// prepare repairs the catalog before the server exists, so the startup
// reconcile never overlaps an upload.
func (c *serveCommander) prepare(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline) (*api.Server, error) {
	if c.reconcile {
		c.reconcileOnStartup(ctx, p)
	}

	server, err := api.NewServer(api.Config{
		ListenAddr:   cfg.API.Listen,
		DefaultOwner: cfg.API.DefaultOwner,
		DisableMCP:   cfg.API.DisableMCP || c.noMCP,
		AllowOrigins: cfg.API.CORSOrigins,
		Ingest:       p.Ingest,
		Query:        p.Query,
		Catalog:      p.Catalog,
	}, c.logger)
	if err != nil {
		return nil, fmt.Errorf("creating API server: %w", err)
	}
	return server, nil
}

func (c *serveCommander) reconcileOnStartup(ctx context.Context, p *pipeline.Pipeline) {
	report, err := p.Ingest.Reconcile(ctx)
	if err != nil {
		c.logger.Error("startup reconcile failed", "error", err)
		return
	}
	c.logger.Info("startup reconcile complete",
		"scanned", report.Scanned,
		"healthy", report.Healthy,
		"repaired", len(report.Repaired),
		"failed", len(report.Failures),
	)
}
