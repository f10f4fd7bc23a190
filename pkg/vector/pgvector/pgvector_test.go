package pgvector_test

import (
	"context"
	"os"
	"strings"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	docraglogger "github.com/papercomputeco/docrag/pkg/logger"
	testutils "github.com/papercomputeco/docrag/pkg/utils/test"
	"github.com/papercomputeco/docrag/pkg/vector"
	"github.com/papercomputeco/docrag/pkg/vector/pgvector"
)

// connStr returns the PostgreSQL connection string from environment or skips the test.
func connStr() string {
	dsn := os.Getenv("DOCRAG_TEST_POSTGRES_DSN")
	if dsn == "" {
		Skip("DOCRAG_TEST_POSTGRES_DSN not set, skipping pgvector tests")
	}
	return dsn
}

var _ = Describe("Driver", func() {
	Describe("NewDriver", func() {
		It("rejects unsafe table names", func() {
			_, err := pgvector.NewDriver(context.Background(), pgvector.Config{
				ConnString: "postgres://localhost/none",
				Table:      "chunks; DROP TABLE documents",
				Dimensions: 4,
			}, docraglogger.Nop())
			Expect(err).To(MatchError(ContainSubstring("invalid pgvector table name")))
		})

		It("requires dimensions", func() {
			_, err := pgvector.NewDriver(context.Background(), pgvector.Config{
				ConnString: "postgres://localhost/none",
			}, docraglogger.Nop())
			Expect(err).To(MatchError(ContainSubstring("dimensions")))
		})
	})

	Describe("against PostgreSQL", func() {
		testutils.DescribeDriverContract(func() vector.Driver {
			table := "docrag_test_" + strings.ReplaceAll(uuid.NewString()[:8], "-", "")
			driver, err := pgvector.NewDriver(context.Background(), pgvector.Config{
				ConnString: connStr(),
				Table:      table,
				Dimensions: 4,
			}, docraglogger.Nop())
			Expect(err).NotTo(HaveOccurred())
			return driver
		})
	})
})
