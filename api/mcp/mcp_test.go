package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docrag/pkg/catalog"
	"github.com/papercomputeco/docrag/pkg/catalog/sqlite"
	"github.com/papercomputeco/docrag/pkg/generator"
	docraglogger "github.com/papercomputeco/docrag/pkg/logger"
	"github.com/papercomputeco/docrag/pkg/query"
	testutils "github.com/papercomputeco/docrag/pkg/utils/test"
	"github.com/papercomputeco/docrag/pkg/vector"
)

var _ = Describe("MCP Server", func() {
	var (
		ctx    context.Context
		server *Server
		store  *sqlite.Store
		driver *testutils.MockVectorDriver
		coord  *query.Coordinator
		gen    *testutils.MockGenerator
	)

	BeforeEach(func() {
		ctx = context.Background()

		var err error
		store, err = sqlite.NewStore(":memory:")
		Expect(err).NotTo(HaveOccurred())

		driver = testutils.NewMockVectorDriver()
		gen = testutils.NewMockGenerator()
		coord, err = query.New(&query.Config{
			Index:     vector.NewIndex(driver, docraglogger.Nop()),
			Embedder:  testutils.NewMockEmbedder(),
			Generator: gen,
		})
		Expect(err).NotTo(HaveOccurred())

		server, err = NewServer(Config{
			Query:        coord,
			Catalog:      store,
			DefaultOwner: "alice",
			Logger:       docraglogger.Nop(),
		})
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	Describe("NewServer", func() {
		It("returns an error when the query coordinator is nil", func() {
			_, err := NewServer(Config{Catalog: store, Logger: docraglogger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("query coordinator is required")))
		})

		It("returns an error when the catalog is nil", func() {
			_, err := NewServer(Config{Query: coord, Logger: docraglogger.Nop()})
			Expect(err).To(MatchError(ContainSubstring("catalog store is required")))
		})

		It("returns an error when logger is nil", func() {
			_, err := NewServer(Config{Query: coord, Catalog: store})
			Expect(err).To(MatchError(ContainSubstring("logger is required")))
		})

		It("returns an HTTP handler", func() {
			Expect(server.Handler()).NotTo(BeNil())
		})
	})

	Describe("ask tool", func() {
		It("answers from the default owner's documents", func() {
			entry := testutils.NewEntry("alice", "doc-1", "c-1", 0, 0.1, 0.2, 0.3)
			Expect(driver.Upsert(ctx, "doc-1", []vector.Entry{entry})).To(Succeed())

			res, out, err := server.handleAsk(ctx, nil, AskInput{Question: "what is in doc-1?"})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeFalse())
			Expect(out.Answer).To(Equal("mock answer"))
			Expect(out.Sources).To(HaveLen(1))
		})

		It("scopes to the requested owner", func() {
			entry := testutils.NewEntry("alice", "doc-1", "c-1", 0, 0.1, 0.2, 0.3)
			Expect(driver.Upsert(ctx, "doc-1", []vector.Entry{entry})).To(Succeed())

			_, out, err := server.handleAsk(ctx, nil, AskInput{Question: "what is in doc-1?", Owner: "bob"})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Answer).To(Equal(generator.NoRelevantDocumentsMessage))
		})

		It("reports blank questions as tool errors", func() {
			res, _, err := server.handleAsk(ctx, nil, AskInput{Question: " "})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.IsError).To(BeTrue())
		})
	})

	Describe("list_documents tool", func() {
		It("lists the owner's documents", func() {
			doc := &catalog.Document{ID: "doc-1", Owner: "alice", Filename: "a.txt", ChunkCount: 1, CreatedAt: time.Now()}
			chunk := &catalog.Chunk{ID: "c-1", DocumentID: "doc-1", Content: "hello", CreatedAt: time.Now()}
			Expect(store.CreateDocument(ctx, doc, []*catalog.Chunk{chunk})).To(Succeed())
			Expect(store.MarkIndexed(ctx, "doc-1", 1)).To(Succeed())

			_, out, err := server.handleListDocuments(ctx, nil, ListDocumentsInput{})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Count).To(Equal(1))
			Expect(out.Documents[0].Filename).To(Equal("a.txt"))
			Expect(out.Documents[0].Ready).To(BeTrue())

			_, out, err = server.handleListDocuments(ctx, nil, ListDocumentsInput{Owner: "bob"})
			Expect(err).NotTo(HaveOccurred())
			Expect(out.Count).To(BeZero())
		})
	})

	Describe("over a client session", func() {
		It("advertises both tools", func() {
			clientTransport, serverTransport := mcp.NewInMemoryTransports()
			serverSession, err := server.mcpServer.Connect(ctx, serverTransport, nil)
			Expect(err).NotTo(HaveOccurred())
			defer serverSession.Close()

			client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "v0"}, nil)
			session, err := client.Connect(ctx, clientTransport, nil)
			Expect(err).NotTo(HaveOccurred())
			defer session.Close()

			tools, err := session.ListTools(ctx, nil)
			Expect(err).NotTo(HaveOccurred())

			names := make([]string, len(tools.Tools))
			for i, t := range tools.Tools {
				names[i] = t.Name
			}
			Expect(names).To(ConsistOf("ask", "list_documents"))
		})
	})
})
