package qdrant_test

import (
	"context"
	"os"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	docraglogger "github.com/papercomputeco/docrag/pkg/logger"
	testutils "github.com/papercomputeco/docrag/pkg/utils/test"
	"github.com/papercomputeco/docrag/pkg/vector"
	"github.com/papercomputeco/docrag/pkg/vector/qdrant"
)

// qdrantURL returns the Qdrant endpoint from environment or skips the test.
func qdrantURL() string {
	u := os.Getenv("DOCRAG_TEST_QDRANT_URL")
	if u == "" {
		Skip("DOCRAG_TEST_QDRANT_URL not set, skipping Qdrant tests")
	}
	return u
}

var _ = Describe("Driver", func() {
	Describe("NewDriver", func() {
		It("requires a URL", func() {
			_, err := qdrant.NewDriver(context.Background(), qdrant.Config{Dimensions: 4}, docraglogger.Nop())
			Expect(err).To(MatchError(ContainSubstring("qdrant URL is required")))
		})

		It("requires dimensions", func() {
			_, err := qdrant.NewDriver(context.Background(), qdrant.Config{URL: "localhost:6334"}, docraglogger.Nop())
			Expect(err).To(MatchError(ContainSubstring("dimensions")))
		})
	})

	Describe("against a Qdrant server", func() {
		testutils.DescribeDriverContract(func() vector.Driver {
			driver, err := qdrant.NewDriver(context.Background(), qdrant.Config{
				URL:            qdrantURL(),
				CollectionName: "docrag_test_" + uuid.NewString()[:8],
				Dimensions:     4,
			}, docraglogger.Nop())
			Expect(err).NotTo(HaveOccurred())
			return driver
		})
	})
})
