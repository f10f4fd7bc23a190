package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docrag/pkg/catalog/sqlite"
	"github.com/papercomputeco/docrag/pkg/chunker"
	"github.com/papercomputeco/docrag/pkg/generator"
	"github.com/papercomputeco/docrag/pkg/ingest"
	docraglogger "github.com/papercomputeco/docrag/pkg/logger"
	"github.com/papercomputeco/docrag/pkg/query"
	testutils "github.com/papercomputeco/docrag/pkg/utils/test"
	"github.com/papercomputeco/docrag/pkg/vector"
)

type upload struct {
	name string
	body string
}

func multipartRequest(files ...upload) *http.Request {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, f := range files {
		part, err := w.CreateFormFile("files", f.name)
		Expect(err).NotTo(HaveOccurred())
		_, err = part.Write([]byte(f.body))
		Expect(err).NotTo(HaveOccurred())
	}
	Expect(w.Close()).To(Succeed())

	req, err := http.NewRequest(http.MethodPost, "/api/upload", &buf)
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func jsonRequest(method, path string, body any) *http.Request {
	b, err := json.Marshal(body)
	Expect(err).NotTo(HaveOccurred())
	req, err := http.NewRequest(method, path, bytes.NewReader(b))
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func decode[T any](resp *http.Response) T {
	var out T
	body, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())
	Expect(json.Unmarshal(body, &out)).To(Succeed(), string(body))
	return out
}

var _ = Describe("Server", func() {
	var (
		server *Server
		store  *sqlite.Store
		driver *testutils.MockVectorDriver
		gen    *testutils.MockGenerator
	)

	BeforeEach(func() {
		var err error
		store, err = sqlite.NewStore(":memory:")
		Expect(err).NotTo(HaveOccurred())

		driver = testutils.NewMockVectorDriver()
		gen = testutils.NewMockGenerator()
		embedder := testutils.NewMockEmbedder()
		index := vector.NewIndex(driver, docraglogger.Nop())

		ing, err := ingest.New(&ingest.Config{
			Catalog:  store,
			Index:    index,
			Embedder: embedder,
			Splitter: chunker.New(800, 200),
		})
		Expect(err).NotTo(HaveOccurred())

		q, err := query.New(&query.Config{
			Index:     index,
			Embedder:  embedder,
			Generator: gen,
		})
		Expect(err).NotTo(HaveOccurred())

		server, err = NewServer(Config{
			ListenAddr:   ":0",
			DefaultOwner: "demo-user",
			Ingest:       ing,
			Query:        q,
			Catalog:      store,
		}, docraglogger.Nop())
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		Expect(store.Close()).To(Succeed())
	})

	It("requires coordinators", func() {
		_, err := NewServer(Config{}, docraglogger.Nop())
		Expect(err).To(HaveOccurred())
	})

	Describe("GET /api/health", func() {
		It("returns ok", func() {
			req, err := http.NewRequest(http.MethodGet, "/api/health", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(decode[map[string]string](resp)).To(HaveKeyWithValue("status", "ok"))
		})

		It("sets CORS headers for cross-origin requests", func() {
			req, err := http.NewRequest(http.MethodGet, "/api/health", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set("Origin", "http://localhost:5173")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.Header.Get("Access-Control-Allow-Origin")).To(Equal("*"))
		})
	})

	Describe("POST /api/upload", func() {
		It("ingests files and returns 201", func() {
			resp, err := server.app.Test(multipartRequest(upload{"abc.txt", "Alpha Bravo Charlie"}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))

			out := decode[UploadResponse](resp)
			Expect(out.Count).To(Equal(1))
			Expect(out.Documents[0].Filename).To(Equal("abc.txt"))
			Expect(out.Documents[0].ChunkCount).To(Equal(1))
			Expect(out.Documents[0].EmbeddingCount).To(Equal(1))
		})

		It("reports sibling failures alongside successes", func() {
			resp, err := server.app.Test(multipartRequest(
				upload{"abc.txt", "Alpha Bravo Charlie"},
				upload{"report.docx", "PK"},
			))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))

			out := decode[UploadResponse](resp)
			Expect(out.Count).To(Equal(1))
			Expect(out.Failures).To(HaveLen(1))
			Expect(out.Failures[0].Filename).To(Equal("report.docx"))
		})

		It("returns 400 for unsupported formats", func() {
			resp, err := server.app.Test(multipartRequest(upload{"report.docx", "PK"}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
			Expect(decode[ErrorResponse](resp).Error).To(ContainSubstring("unsupported"))
		})

		It("returns 400 when no files are sent", func() {
			resp, err := server.app.Test(multipartRequest())
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("returns 400 for non-multipart bodies", func() {
			resp, err := server.app.Test(jsonRequest(http.MethodPost, "/api/upload", map[string]string{}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})

		It("returns 500 when indexing fails", func() {
			driver.FailUpsert = true
			resp, err := server.app.Test(multipartRequest(upload{"abc.txt", "Alpha Bravo Charlie"}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusInternalServerError))
		})
	})

	Describe("GET /api/docs", func() {
		BeforeEach(func() {
			resp, err := server.app.Test(multipartRequest(upload{"a.txt", "first"}, upload{"b.txt", "second"}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusCreated))
		})

		It("lists the default owner's documents newest first", func() {
			req, err := http.NewRequest(http.MethodGet, "/api/docs", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			out := decode[DocumentListResponse](resp)
			Expect(out.Documents).To(HaveLen(2))
			Expect(out.Documents[0].Filename).To(Equal("b.txt"))
		})

		It("paginates", func() {
			req, err := http.NewRequest(http.MethodGet, "/api/docs?limit=1&offset=1", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			out := decode[DocumentListResponse](resp)
			Expect(out.Documents).To(HaveLen(1))
			Expect(out.Documents[0].Filename).To(Equal("a.txt"))
		})

		It("scopes to the X-Owner-ID header", func() {
			req, err := http.NewRequest(http.MethodGet, "/api/docs", nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set(OwnerHeader, "someone-else")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(decode[DocumentListResponse](resp).Documents).To(BeEmpty())
		})

		It("rejects invalid pagination", func() {
			req, err := http.NewRequest(http.MethodGet, "/api/docs?limit=abc", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("DELETE /api/docs/:id", func() {
		var id string

		BeforeEach(func() {
			resp, err := server.app.Test(multipartRequest(upload{"a.txt", "first"}))
			Expect(err).NotTo(HaveOccurred())
			id = decode[UploadResponse](resp).Documents[0].ID
		})

		It("returns 204 and removes the document", func() {
			req, err := http.NewRequest(http.MethodDelete, "/api/docs/"+id, nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusNoContent))

			n, err := driver.Count(req.Context(), id)
			Expect(err).NotTo(HaveOccurred())
			Expect(n).To(BeZero())
		})

		It("returns 404 for another owner", func() {
			req, err := http.NewRequest(http.MethodDelete, "/api/docs/"+id, nil)
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set(OwnerHeader, "mallory")

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusNotFound))
		})

		It("returns 500 when the vector delete fails", func() {
			driver.FailDelete = true
			req, err := http.NewRequest(http.MethodDelete, "/api/docs/"+id, nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusInternalServerError))
		})
	})

	Describe("POST /api/ask", func() {
		It("returns the no documents message for an empty tenant", func() {
			resp, err := server.app.Test(jsonRequest(http.MethodPost, "/api/ask", AskRequest{Question: "anything there?"}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			out := decode[query.Answer](resp)
			Expect(out.Answer).To(Equal(generator.NoRelevantDocumentsMessage))
			Expect(out.Sources).To(BeEmpty())
		})

		It("answers with sources", func() {
			_, err := server.app.Test(multipartRequest(upload{"abc.txt", "Alpha Bravo Charlie"}))
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(jsonRequest(http.MethodPost, "/api/ask", AskRequest{Question: "what words?", TopK: 2}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))

			out := decode[query.Answer](resp)
			Expect(out.Answer).To(Equal("mock answer"))
			Expect(out.Sources).To(HaveLen(1))
			Expect(out.Sources[0].DocumentName).To(Equal("abc.txt"))
			Expect(out.Sources[0].Snippet).To(Equal("Alpha Bravo Charlie"))
		})

		DescribeTable("rejects short questions",
			func(q string) {
				resp, err := server.app.Test(jsonRequest(http.MethodPost, "/api/ask", AskRequest{Question: q}))
				Expect(err).NotTo(HaveOccurred())
				Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
			},
			Entry("empty", ""),
			Entry("blank", "     "),
			Entry("two characters", " hi "),
		)

		It("rejects malformed bodies", func() {
			req, err := http.NewRequest(http.MethodPost, "/api/ask", strings.NewReader("{"))
			Expect(err).NotTo(HaveOccurred())
			req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("POST /api/title", func() {
		It("returns a title", func() {
			resp, err := server.app.Test(jsonRequest(http.MethodPost, "/api/title", TitleRequest{Context: "quarterly revenue summary"}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusOK))
			Expect(decode[TitleResponse](resp).Title).To(Equal("Mock title"))
		})

		It("rejects short context", func() {
			resp, err := server.app.Test(jsonRequest(http.MethodPost, "/api/title", TitleRequest{Context: "abc"}))
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(fiber.StatusBadRequest))
		})
	})

	Describe("MCP endpoint", func() {
		It("is mounted unless disabled", func() {
			req, err := http.NewRequest(http.MethodGet, "/mcp", nil)
			Expect(err).NotTo(HaveOccurred())

			resp, err := server.app.Test(req)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).NotTo(Equal(fiber.StatusNotFound))
		})
	})
})
