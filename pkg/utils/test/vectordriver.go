package testutils

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docrag/pkg/vector"
)

// NewEntry builds a vector entry for driver tests.
func NewEntry(owner, documentID, chunkID string, index int, embedding ...float32) vector.Entry {
	return vector.Entry{
		ChunkID:      chunkID,
		Owner:        owner,
		DocumentID:   documentID,
		DocumentName: documentID + ".txt",
		ChunkIndex:   index,
		Content:      "content of " + chunkID,
		Embedding:    embedding,
	}
}

// DescribeDriverContract registers the behavior every vector.Driver must
// share. newDriver is called before each test with four-dimensional vectors
// and must return an empty driver.
func DescribeDriverContract(newDriver func() vector.Driver) {
	Describe("driver contract", func() {
		var (
			driver vector.Driver
			ctx    context.Context
		)

		BeforeEach(func() {
			ctx = context.Background()
			driver = nil
			driver = newDriver()
		})

		AfterEach(func() {
			if driver != nil {
				Expect(driver.Close()).To(Succeed())
			}
		})

		It("returns the closest entries first", func() {
			Expect(driver.Upsert(ctx, "doc-a", []vector.Entry{
				NewEntry("alice", "doc-a", "a-0", 0, 1, 0, 0, 0),
				NewEntry("alice", "doc-a", "a-1", 1, 0, 1, 0, 0),
				NewEntry("alice", "doc-a", "a-2", 2, 0, 0, 1, 0),
			})).To(Succeed())

			results, err := driver.Query(ctx, "alice", []float32{0.1, 0.9, 0, 0}, 2)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(2))
			Expect(results[0].ChunkID).To(Equal("a-1"))
			Expect(results[1].ChunkID).To(Equal("a-0"))
			Expect(results[0].DocumentID).To(Equal("doc-a"))
			Expect(results[0].DocumentName).To(Equal("doc-a.txt"))
			Expect(results[0].ChunkIndex).To(Equal(1))
			Expect(results[0].Content).To(Equal("content of a-1"))
		})

		It("replaces a document's entries on repeated upserts", func() {
			entries := []vector.Entry{
				NewEntry("alice", "doc-a", "a-0", 0, 0.1, 0.1, 0.1, 0.1),
				NewEntry("alice", "doc-a", "a-1", 1, 0.2, 0.2, 0.2, 0.2),
			}
			Expect(driver.Upsert(ctx, "doc-a", entries)).To(Succeed())
			first, err := driver.Query(ctx, "alice", []float32{0.1, 0.1, 0.1, 0.1}, 10)
			Expect(err).NotTo(HaveOccurred())

			Expect(driver.Upsert(ctx, "doc-a", entries)).To(Succeed())
			second, err := driver.Query(ctx, "alice", []float32{0.1, 0.1, 0.1, 0.1}, 10)
			Expect(err).NotTo(HaveOccurred())

			Expect(second).To(HaveLen(2))
			Expect(chunkIDs(second)).To(Equal(chunkIDs(first)))

			n, err := driver.Count(ctx, "doc-a")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(2))
		})

		It("drops entries missing from a later upsert", func() {
			Expect(driver.Upsert(ctx, "doc-a", []vector.Entry{
				NewEntry("alice", "doc-a", "a-0", 0, 0.1, 0.1, 0.1, 0.1),
				NewEntry("alice", "doc-a", "a-1", 1, 0.2, 0.2, 0.2, 0.2),
			})).To(Succeed())
			Expect(driver.Upsert(ctx, "doc-a", []vector.Entry{
				NewEntry("alice", "doc-a", "a-9", 0, 0.5, 0.5, 0.5, 0.5),
			})).To(Succeed())

			n, err := driver.Count(ctx, "doc-a")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(Equal(1))
		})

		It("never returns another owner's entries", func() {
			Expect(driver.Upsert(ctx, "doc-a", []vector.Entry{
				NewEntry("alice", "doc-a", "a-0", 0, 0.9, 0.9, 0.9, 0.9),
			})).To(Succeed())
			Expect(driver.Upsert(ctx, "doc-b", []vector.Entry{
				NewEntry("bob", "doc-b", "b-0", 0, 0.1, 0.1, 0.1, 0.1),
			})).To(Succeed())

			results, err := driver.Query(ctx, "alice", []float32{0.1, 0.1, 0.1, 0.1}, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(chunkIDs(results)).To(Equal([]string{"a-0"}))

			results, err = driver.Query(ctx, "carol", []float32{0.1, 0.1, 0.1, 0.1}, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(BeEmpty())
		})

		It("removes a deleted document from queries and counts", func() {
			Expect(driver.Upsert(ctx, "doc-a", []vector.Entry{
				NewEntry("alice", "doc-a", "a-0", 0, 0.3, 0.3, 0.3, 0.3),
			})).To(Succeed())
			Expect(driver.Upsert(ctx, "doc-b", []vector.Entry{
				NewEntry("alice", "doc-b", "b-0", 0, 0.5, 0.5, 0.5, 0.5),
			})).To(Succeed())

			Expect(driver.DeleteByDocument(ctx, "doc-a")).To(Succeed())

			results, err := driver.Query(ctx, "alice", []float32{0.3, 0.3, 0.3, 0.3}, 10)
			Expect(err).NotTo(HaveOccurred())
			Expect(chunkIDs(results)).To(Equal([]string{"b-0"}))

			n, err := driver.Count(ctx, "doc-a")
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())
		})

		It("treats deleting an unknown document as a no-op", func() {
			Expect(driver.DeleteByDocument(ctx, "missing")).To(Succeed())
		})

		It("returns a score for every result", func() {
			Expect(driver.Upsert(ctx, "doc-a", []vector.Entry{
				NewEntry("alice", "doc-a", "a-0", 0, 0.3, 0.3, 0.3, 0.3),
			})).To(Succeed())

			results, err := driver.Query(ctx, "alice", []float32{0.3, 0.3, 0.3, 0.3}, 1)
			Expect(err).NotTo(HaveOccurred())
			Expect(results).To(HaveLen(1))
			Expect(results[0].Score).NotTo(BeNil())
		})
	})
}

func chunkIDs(results []vector.SourceChunk) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ChunkID
	}
	return ids
}
