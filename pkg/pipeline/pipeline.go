// Package pipeline constructs the ingestion and query pipeline from a
// resolved configuration. Every provider is built once here and injected
// into the coordinators.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"

	"github.com/papercomputeco/docrag/pkg/catalog"
	"github.com/papercomputeco/docrag/pkg/catalog/postgres"
	"github.com/papercomputeco/docrag/pkg/catalog/sqlite"
	"github.com/papercomputeco/docrag/pkg/chunker"
	"github.com/papercomputeco/docrag/pkg/config"
	"github.com/papercomputeco/docrag/pkg/dotdir"
	"github.com/papercomputeco/docrag/pkg/embeddings"
	embeddingutils "github.com/papercomputeco/docrag/pkg/embeddings/utils"
	"github.com/papercomputeco/docrag/pkg/eventstream"
	"github.com/papercomputeco/docrag/pkg/eventstream/kafka"
	"github.com/papercomputeco/docrag/pkg/eventstream/nop"
	"github.com/papercomputeco/docrag/pkg/generator"
	generatorutils "github.com/papercomputeco/docrag/pkg/generator/utils"
	"github.com/papercomputeco/docrag/pkg/ingest"
	"github.com/papercomputeco/docrag/pkg/query"
	"github.com/papercomputeco/docrag/pkg/uploads"
	"github.com/papercomputeco/docrag/pkg/vector"
	vectorutils "github.com/papercomputeco/docrag/pkg/vector/utils"
	"github.com/papercomputeco/docrag/pkg/worker"
)

const (
	catalogFile = "docrag.sqlite"
	vectorsFile = "vectors.sqlite"
	uploadsDir  = "uploads"
)

// Pipeline holds the constructed providers and coordinators.
type Pipeline struct {
	Config    *config.Config
	Catalog   catalog.Store
	Index     *vector.Index
	Embedder  embeddings.Embedder
	Generator generator.Generator
	Pool      *worker.Pool
	Publisher eventstream.Publisher
	Uploads   *uploads.Store
	Ingest    *ingest.Coordinator
	Query     *query.Coordinator

	closers []func() error
}

// New builds the pipeline. configDir overrides .docrag/ resolution for the
// default file locations. On error everything built so far is closed.
func New(ctx context.Context, cfg *config.Config, configDir string, logger *slog.Logger) (_ *Pipeline, err error) {
	p := &Pipeline{Config: cfg}
	defer func() {
		if err != nil {
			_ = p.Close()
		}
	}()

	ddm := dotdir.NewManager()

	p.Catalog, err = newCatalog(ctx, cfg, ddm, configDir, logger)
	if err != nil {
		return nil, err
	}
	p.closers = append(p.closers, p.Catalog.Close)

	p.Embedder, err = embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
		Dimensions:   cfg.Embedding.Dimensions,
		APIKey:       cfg.Embedding.APIKey,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	p.closers = append(p.closers, p.Embedder.Close)

	driver, err := newVectorDriver(ctx, cfg, p.Embedder.Dimensions(), ddm, configDir, logger)
	if err != nil {
		return nil, err
	}
	p.Index = vector.NewIndex(driver, logger)
	p.closers = append(p.closers, p.Index.Close)

	p.Generator, err = generatorutils.NewGenerator(&generatorutils.NewGeneratorOpts{
		ProviderType: cfg.LLM.Provider,
		TargetURL:    cfg.LLM.Target,
		Model:        cfg.LLM.Model,
		APIKey:       cfg.LLM.APIKey,
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating generator: %w", err)
	}

	uploadsLocation := cfg.Storage.UploadsDir
	if uploadsLocation == "" {
		uploadsLocation, err = ddm.Sub(configDir, uploadsDir)
		if err != nil {
			return nil, err
		}
	}
	p.Uploads, err = uploads.NewStore(uploadsLocation)
	if err != nil {
		return nil, err
	}

	// The publisher closes after the pool so queued events drain first.
	p.Publisher, err = newPublisher(cfg, logger)
	if err != nil {
		return nil, err
	}
	p.closers = append(p.closers, p.Publisher.Close)

	p.Pool, err = worker.NewPool(&worker.Config{
		NumWorkers: cfg.Worker.NumWorkers,
		QueueSize:  cfg.Worker.QueueSize,
		Logger:     logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating worker pool: %w", err)
	}
	p.closers = append(p.closers, func() error { p.Pool.Close(); return nil })

	p.Ingest, err = ingest.New(&ingest.Config{
		Catalog:   p.Catalog,
		Index:     p.Index,
		Embedder:  p.Embedder,
		Splitter:  chunker.New(int(cfg.Chunking.Size), int(cfg.Chunking.Overlap)),
		Uploads:   p.Uploads,
		Pool:      p.Pool,
		Publisher: p.Publisher,
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	p.closers = append(p.closers, func() error { p.Ingest.Wait(); return nil })

	p.Query, err = query.New(&query.Config{
		Index:        p.Index,
		Embedder:     p.Embedder,
		Generator:    p.Generator,
		Pool:         p.Pool,
		SnippetChars: int(cfg.Query.SnippetChars),
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	logger.Info("pipeline ready",
		"catalog", cfg.Storage.Driver,
		"vector_store", cfg.VectorStore.Provider,
		"embedder", p.Embedder.Name(),
		"dimensions", p.Embedder.Dimensions(),
		"generator", p.Generator.Name(),
		"events", cfg.Events.Provider,
	)

	return p, nil
}

// Close releases every provider in reverse construction order. The pool is
// drained before the stores it writes to are closed.
func (p *Pipeline) Close() error {
	var errs []error
	for _, closeFn := range slices.Backward(p.closers) {
		if err := closeFn(); err != nil {
			errs = append(errs, err)
		}
	}
	p.closers = nil
	return errors.Join(errs...)
}

func newCatalog(ctx context.Context, cfg *config.Config, ddm *dotdir.Manager, configDir string, logger *slog.Logger) (catalog.Store, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		if cfg.Storage.PostgresDSN == "" {
			return nil, errors.New("storage.postgres_dsn is required for the postgres catalog")
		}
		store, err := postgres.NewStore(ctx, cfg.Storage.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("creating postgres catalog: %w", err)
		}
		logger.Info("using PostgreSQL catalog")
		return store, nil

	case "", "sqlite":
		path := cfg.Storage.SQLitePath
		if path == "" {
			dir, err := ddm.Target(configDir)
			if err != nil {
				return nil, err
			}
			path = filepath.Join(dir, catalogFile)
		}
		store, err := sqlite.NewStore(path)
		if err != nil {
			return nil, fmt.Errorf("creating SQLite catalog: %w", err)
		}
		logger.Info("using SQLite catalog", "path", path)
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Storage.Driver)
	}
}

func newVectorDriver(ctx context.Context, cfg *config.Config, dims int, ddm *dotdir.Manager, configDir string, logger *slog.Logger) (vector.Driver, error) {
	target := cfg.VectorStore.Target
	switch cfg.VectorStore.Provider {
	case vectorutils.ProviderSQLite:
		if target == "" {
			dir, err := ddm.Target(configDir)
			if err != nil {
				return nil, err
			}
			target = filepath.Join(dir, vectorsFile)
		}
	case vectorutils.ProviderPgvector:
		if target == "" {
			target = cfg.Storage.PostgresDSN
		}
	}

	driver, err := vectorutils.NewVectorDriver(ctx, &vectorutils.NewVectorDriverOpts{
		ProviderType: cfg.VectorStore.Provider,
		TargetURL:    target,
		Collection:   cfg.VectorStore.Collection,
		APIKey:       cfg.VectorStore.APIKey,
		Dimensions:   uint(dims),
		Logger:       logger,
	})
	if err != nil {
		return nil, fmt.Errorf("creating vector driver: %w", err)
	}
	return driver, nil
}

func newPublisher(cfg *config.Config, logger *slog.Logger) (eventstream.Publisher, error) {
	switch cfg.Events.Provider {
	case "", "nop":
		return nop.NewPublisher(logger), nil
	case "kafka":
		p, err := kafka.NewPublisher(kafka.Config{
			Brokers: cfg.Events.KafkaBrokers(),
			Topic:   cfg.Events.Topic,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unsupported events provider: %s", cfg.Events.Provider)
	}
}
