// Package cmdutil holds the flag and pipeline plumbing shared by docrag
// commands.
package cmdutil

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/papercomputeco/docrag/pkg/config"
	"github.com/papercomputeco/docrag/pkg/logger"
	"github.com/papercomputeco/docrag/pkg/pipeline"
)

// PipelineKeys are the registry flags every pipeline-building command
// accepts.
var PipelineKeys = []string{
	config.FlagOwner,
	config.FlagStorageDriver,
	config.FlagSQLite,
	config.FlagPostgresDSN,
	config.FlagUploadsDir,
	config.FlagChunkSize,
	config.FlagChunkOverlap,
	config.FlagVectorStoreProv,
	config.FlagVectorStoreTgt,
	config.FlagEmbeddingProv,
	config.FlagEmbeddingTgt,
	config.FlagEmbeddingModel,
	config.FlagEmbeddingDims,
	config.FlagLLMProvider,
	config.FlagLLMTarget,
	config.FlagLLMModel,
	config.FlagTopK,
	config.FlagEventsProvider,
	config.FlagEventsBrokers,
}

var uintFlags = []string{
	config.FlagChunkSize,
	config.FlagChunkOverlap,
	config.FlagEmbeddingDims,
	config.FlagTopK,
}

// AddFlags registers the given registry flags on cmd. Values are read back
// through viper, so the flag variables themselves are never consulted.
func AddFlags(cmd *cobra.Command, keys []string) {
	for _, key := range keys {
		if slices.Contains(uintFlags, key) {
			config.AddUintFlag(cmd, config.PipelineFlags, key, new(uint))
			continue
		}
		config.AddStringFlag(cmd, config.PipelineFlags, key, new(string))
	}
}

// LoadConfig resolves the configuration for cmd: flags, then DOCRAG_*
// environment variables, then config.toml, then defaults.
func LoadConfig(cmd *cobra.Command, keys []string) (*config.Config, error) {
	v, err := config.InitViper(ConfigDir(cmd))
	if err != nil {
		return nil, err
	}
	config.BindRegisteredFlags(v, cmd, config.PipelineFlags, keys)
	return config.FromViper(v)
}

// ConfigDir returns the --config-dir override, if any.
func ConfigDir(cmd *cobra.Command) string {
	dir, _ := cmd.Flags().GetString("config-dir")
	return dir
}

// Level resolves --log-level, lowered to Debug by --debug.
func Level(cmd *cobra.Command) (slog.Level, error) {
	name, _ := cmd.Flags().GetString("log-level")
	level, err := logger.ParseLevel(name)
	if err != nil {
		return level, err
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		level = slog.LevelDebug
	}
	return level, nil
}

// Logger builds the pretty stderr logger for cmd.
func Logger(cmd *cobra.Command) (*slog.Logger, error) {
	level, err := Level(cmd)
	if err != nil {
		return nil, err
	}
	return logger.New(logger.WithLevel(level), logger.WithPretty(true)), nil
}

// WithPipeline loads the configuration, builds the pipeline, and runs fn
// with it. The pipeline is closed when fn returns. A nil log is replaced by
// Logger(cmd).
func WithPipeline(cmd *cobra.Command, keys []string, log *slog.Logger, fn func(ctx context.Context, cfg *config.Config, p *pipeline.Pipeline) error) error {
	if log == nil {
		var err error
		if log, err = Logger(cmd); err != nil {
			return err
		}
	}

	cfg, err := LoadConfig(cmd, keys)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	p, err := pipeline.New(ctx, cfg, ConfigDir(cmd), log)
	if err != nil {
		return err
	}
	defer p.Close()

	return fn(ctx, cfg, p)
}
