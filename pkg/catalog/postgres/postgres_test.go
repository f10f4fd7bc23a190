package postgres_test

import (
	"context"
	"os"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docrag/pkg/catalog"
	"github.com/papercomputeco/docrag/pkg/catalog/postgres"
)

// connStr returns the PostgreSQL connection string from environment or skips the test.
func connStr() string {
	dsn := os.Getenv("DOCRAG_TEST_POSTGRES_DSN")
	if dsn == "" {
		Skip("DOCRAG_TEST_POSTGRES_DSN not set, skipping PostgreSQL tests")
	}
	return dsn
}

var _ = Describe("Store", func() {
	var (
		store *postgres.Store
		ctx   context.Context
		owner string
	)

	BeforeEach(func() {
		ctx = context.Background()
		var err error
		store, err = postgres.NewStore(ctx, connStr())
		Expect(err).NotTo(HaveOccurred())
		owner = "test-" + uuid.NewString()
	})

	AfterEach(func() {
		if store != nil {
			store.Close()
		}
	})

	It("round-trips a document through create, index, list and delete", func() {
		doc := &catalog.Document{ID: uuid.NewString(), Owner: owner, Filename: "a.txt", ChunkCount: 1}
		chunks := []*catalog.Chunk{{ID: uuid.NewString(), DocumentID: doc.ID, Content: "Alpha", TokenCount: 1}}
		Expect(store.CreateDocument(ctx, doc, chunks)).To(Succeed())
		Expect(store.MarkIndexed(ctx, doc.ID, 1)).To(Succeed())

		docs, err := store.ListDocuments(ctx, owner, catalog.Page{})
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(1))
		Expect(docs[0].Ready()).To(BeTrue())

		deleted, err := store.DeleteDocument(ctx, doc.ID, owner)
		Expect(err).NotTo(HaveOccurred())
		Expect(deleted).To(BeTrue())

		stored, err := store.ListChunks(ctx, doc.ID)
		Expect(err).NotTo(HaveOccurred())
		Expect(stored).To(BeEmpty())
	})
})
