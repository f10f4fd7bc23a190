package pipeline_test

import (
	"context"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docrag/pkg/config"
	"github.com/papercomputeco/docrag/pkg/generator"
	"github.com/papercomputeco/docrag/pkg/ingest"
	"github.com/papercomputeco/docrag/pkg/logger"
	"github.com/papercomputeco/docrag/pkg/pipeline"
)

var _ = Describe("New", func() {
	var (
		ctx context.Context
		dir string
		cfg *config.Config
	)

	BeforeEach(func() {
		ctx = context.Background()
		dir = GinkgoT().TempDir()
		GinkgoT().Setenv("OPENAI_API_KEY", "")
		GinkgoT().Setenv("ANTHROPIC_API_KEY", "")
		GinkgoT().Setenv("GEMINI_API_KEY", "")
		GinkgoT().Setenv("GOOGLE_API_KEY", "")

		cfg = config.NewDefaultConfig()
		cfg.VectorStore.Provider = "memory"
	})

	It("falls back to the local providers without credentials", func() {
		p, err := pipeline.New(ctx, cfg, dir, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		defer p.Close()

		Expect(p.Embedder.Name()).To(Equal("hash"))
		Expect(p.Generator.Name()).To(Equal("local"))
		Expect(filepath.Join(dir, "docrag.sqlite")).To(BeAnExistingFile())
	})

	It("runs ingestion and querying end to end", func() {
		p, err := pipeline.New(ctx, cfg, dir, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		defer p.Close()

		res, err := p.Ingest.Ingest(ctx, "alice", []ingest.Upload{{
			Filename: "abc.txt",
			Data:     []byte("Alpha Bravo Charlie"),
		}})
		Expect(err).NotTo(HaveOccurred())
		Expect(res.Documents[0].Ready()).To(BeTrue())
		Expect(res.Documents[0].StoragePath).NotTo(BeEmpty())

		ans, err := p.Query.Answer(ctx, "Alpha Bravo Charlie", "alice", 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(ans.Sources).To(HaveLen(1))
		Expect(ans.Answer).To(HavePrefix(generator.LocalNotice))
	})

	It("persists vectors with sqlite-vec", func() {
		cfg.VectorStore.Provider = "sqlite"
		p, err := pipeline.New(ctx, cfg, dir, logger.Nop())
		Expect(err).NotTo(HaveOccurred())
		defer p.Close()

		Expect(filepath.Join(dir, "vectors.sqlite")).To(BeAnExistingFile())
	})

	It("requires a DSN for the postgres catalog", func() {
		cfg.Storage.Driver = "postgres"
		_, err := pipeline.New(ctx, cfg, dir, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("postgres_dsn")))
	})

	It("rejects unknown vector stores", func() {
		cfg.VectorStore.Provider = "bogus"
		_, err := pipeline.New(ctx, cfg, dir, logger.Nop())
		Expect(err).To(HaveOccurred())
	})

	It("requires brokers for kafka events", func() {
		cfg.Events.Provider = "kafka"
		_, err := pipeline.New(ctx, cfg, dir, logger.Nop())
		Expect(err).To(MatchError(ContainSubstring("brokers")))
	})
})
