package query_test

import (
	"context"
	"errors"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docrag/pkg/catalog/sqlite"
	"github.com/papercomputeco/docrag/pkg/chunker"
	"github.com/papercomputeco/docrag/pkg/embeddings"
	"github.com/papercomputeco/docrag/pkg/embeddings/hash"
	"github.com/papercomputeco/docrag/pkg/generator"
	"github.com/papercomputeco/docrag/pkg/ingest"
	"github.com/papercomputeco/docrag/pkg/logger"
	"github.com/papercomputeco/docrag/pkg/query"
	testutils "github.com/papercomputeco/docrag/pkg/utils/test"
	"github.com/papercomputeco/docrag/pkg/vector"
)

var _ = Describe("BuildContext", func() {
	It("groups chunks by document in first-seen order", func() {
		got := query.BuildContext([]vector.SourceChunk{
			{DocumentName: "b.txt", Content: "b1"},
			{DocumentName: "a.txt", Content: "a1"},
			{DocumentName: "b.txt", Content: "b2"},
		})
		Expect(got).To(Equal("b.txt\nb1\nb2\n\na.txt\na1"))
	})

	It("is empty for no chunks", func() {
		Expect(query.BuildContext(nil)).To(BeEmpty())
	})
})

var _ = Describe("Coordinator", func() {
	var (
		ctx    context.Context
		driver *testutils.MockVectorDriver
		embed  *testutils.MockEmbedder
		gen    *testutils.MockGenerator
		coord  *query.Coordinator
		seeded map[string][]vector.Entry
	)

	seed := func(owner, docID, name string, index int, content string, emb ...float32) {
		entry := testutils.NewEntry(owner, docID, docID+"-"+content, index, emb...)
		entry.DocumentName = name
		entry.Content = content
		seeded[docID] = append(seeded[docID], entry)
		Expect(driver.Upsert(ctx, docID, seeded[docID])).To(Succeed())
	}

	BeforeEach(func() {
		ctx = context.Background()
		driver = testutils.NewMockVectorDriver()
		embed = testutils.NewMockEmbedder()
		gen = testutils.NewMockGenerator()
		seeded = make(map[string][]vector.Entry)

		var err error
		coord, err = query.New(&query.Config{
			Index:     vector.NewIndex(driver, logger.Nop()),
			Embedder:  embed,
			Generator: gen,
			Logger:    logger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	It("requires its collaborators", func() {
		_, err := query.New(&query.Config{})
		Expect(err).To(HaveOccurred())
	})

	It("rejects blank questions", func() {
		_, err := coord.Answer(ctx, "   ", "alice", 4)
		Expect(err).To(MatchError(query.ErrEmptyQuestion))
	})

	It("returns the fixed message when the owner has no documents", func() {
		seed("bob", "doc-b", "b.txt", 0, "bob's secret", 0.1, 0.2, 0.3)

		ans, err := coord.Answer(ctx, "what is the secret?", "alice", 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(ans.Answer).To(Equal(generator.NoRelevantDocumentsMessage))
		Expect(ans.Sources).NotTo(BeNil())
		Expect(ans.Sources).To(BeEmpty())
		Expect(gen.AnswerCalls()).To(BeZero())
	})

	It("surfaces embedding failures", func() {
		embed.FailOn = "boom?"
		_, err := coord.Answer(ctx, "boom?", "alice", 4)
		Expect(err).To(MatchError(embeddings.ErrUnavailable))
	})

	It("answers from grouped context and attributes sources", func() {
		seed("alice", "doc-1", "one.txt", 0, "alpha", 0.1, 0.2, 0.3)
		seed("alice", "doc-1", "one.txt", 1, "bravo", 0.1, 0.2, 0.31)
		seed("alice", "doc-2", "two.txt", 0, "charlie", 0.1, 0.2, 0.32)

		ans, err := coord.Answer(ctx, "which words?", "alice", 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(ans.Answer).To(Equal("mock answer"))

		Expect(gen.Contexts).To(HaveLen(1))
		Expect(gen.Contexts[0]).To(Equal("one.txt\nalpha\nbravo\n\ntwo.txt\ncharlie"))

		Expect(ans.Sources).To(HaveLen(3))
		Expect(ans.Sources[0].DocumentID).To(Equal("doc-1"))
		Expect(ans.Sources[0].ChunkIndex).To(Equal(0))
		Expect(ans.Sources[0].Score).NotTo(BeNil())
		Expect(ans.Sources[2].DocumentName).To(Equal("two.txt"))
	})

	It("limits retrieval to topK", func() {
		for i, w := range []string{"a", "b", "c", "d", "e", "f"} {
			seed("alice", "doc-1", "one.txt", i, w, 0.1, 0.2, float32(i))
		}

		ans, err := coord.Answer(ctx, "letters?", "alice", 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(ans.Sources).To(HaveLen(query.DefaultTopK))

		ans, err = coord.Answer(ctx, "letters?", "alice", 2)
		Expect(err).NotTo(HaveOccurred())
		Expect(ans.Sources).To(HaveLen(2))
	})

	It("truncates snippets to 400 runes", func() {
		long := strings.Repeat("é", 500)
		seed("alice", "doc-1", "long.txt", 0, long, 0.1, 0.2, 0.3)

		ans, err := coord.Answer(ctx, "long?", "alice", 1)
		Expect(err).NotTo(HaveOccurred())
		Expect([]rune(ans.Sources[0].Snippet)).To(HaveLen(400))
	})

	It("degrades generator failures to a fixed message", func() {
		seed("alice", "doc-1", "one.txt", 0, "alpha", 0.1, 0.2, 0.3)
		gen.Err = errors.New("vendor down")

		ans, err := coord.Answer(ctx, "alpha?", "alice", 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(ans.Answer).To(Equal(generator.UnavailableMessage))
		Expect(ans.Sources).To(HaveLen(1))
	})

	It("replaces empty answers", func() {
		seed("alice", "doc-1", "one.txt", 0, "alpha", 0.1, 0.2, 0.3)
		gen.Answer = "  "

		ans, err := coord.Answer(ctx, "alpha?", "alice", 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(ans.Answer).To(Equal(generator.NoContentMessage))
	})

	It("degrades retrieval failures to no documents", func() {
		seed("alice", "doc-1", "one.txt", 0, "alpha", 0.1, 0.2, 0.3)
		driver.FailQuery = true

		ans, err := coord.Answer(ctx, "alpha?", "alice", 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(ans.Answer).To(Equal(generator.NoRelevantDocumentsMessage))
	})

	Describe("Title", func() {
		It("delegates to the generator", func() {
			Expect(coord.Title(ctx, "some context")).To(Equal("Mock title"))
		})

		It("falls back to the default title", func() {
			gen.Title = ""
			Expect(coord.Title(ctx, "some context")).To(Equal(generator.DefaultTitle))
		})
	})
})

var _ = Describe("Ingest then ask", func() {
	It("retrieves an ingested document with the local embedder and generator", func() {
		ctx := context.Background()
		store, err := sqlite.NewStore(":memory:")
		Expect(err).NotTo(HaveOccurred())
		defer store.Close()

		embedder := hash.NewEmbedder(64)
		index := vector.NewIndex(testutils.NewMockVectorDriver(), logger.Nop())

		ing, err := ingest.New(&ingest.Config{
			Catalog:  store,
			Index:    index,
			Embedder: embedder,
			Splitter: chunker.New(800, 200),
		})
		Expect(err).NotTo(HaveOccurred())

		_, err = ing.Ingest(ctx, "alice", []ingest.Upload{{
			Filename: "abc.txt",
			Data:     []byte("Alpha Bravo Charlie"),
		}})
		Expect(err).NotTo(HaveOccurred())

		q, err := query.New(&query.Config{
			Index:     index,
			Embedder:  embedder,
			Generator: generator.NewLocal(),
		})
		Expect(err).NotTo(HaveOccurred())

		ans, err := q.Answer(ctx, "Alpha Bravo Charlie", "alice", 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(ans.Sources).To(HaveLen(1))
		Expect(*ans.Sources[0].Score).To(BeNumerically("~", 0, 1e-6))
		Expect(ans.Answer).To(ContainSubstring("Alpha Bravo Charlie"))

		other, err := q.Answer(ctx, "Alpha Bravo Charlie", "bob", 4)
		Expect(err).NotTo(HaveOccurred())
		Expect(other.Answer).To(Equal(generator.NoRelevantDocumentsMessage))
	})
})
