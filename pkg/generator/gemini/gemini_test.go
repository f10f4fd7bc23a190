package gemini_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docrag/pkg/generator"
	"github.com/papercomputeco/docrag/pkg/generator/gemini"
)

var _ = Describe("Completer", func() {
	var (
		server   *httptest.Server
		received map[string]any
		path     string
		key      string
		reply    string
		status   int
	)

	BeforeEach(func() {
		status = http.StatusOK
		reply = `{"candidates":[{"content":null},{"content":{"parts":[{"text":"  "},{"text":"Charlie"}]}}]}`
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path = r.URL.Path
			key = r.Header.Get("x-goog-api-key")
			Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())
			w.WriteHeader(status)
			_, _ = w.Write([]byte(reply))
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	complete := func() (string, error) {
		c, err := gemini.New(gemini.Config{APIKey: "g-test", BaseURL: server.URL, Model: "gemini-test"})
		Expect(err).NotTo(HaveOccurred())
		return c.Complete(context.Background(), generator.Request{System: "sys", Prompt: "q"})
	}

	It("returns the first non-empty part across candidates", func() {
		text, err := complete()
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("Charlie"))
		Expect(path).To(Equal("/v1beta/models/gemini-test:generateContent"))
		Expect(key).To(Equal("g-test"))
		Expect(received).To(HaveKey("systemInstruction"))
	})

	It("returns empty text for blocked prompts", func() {
		reply = `{"promptFeedback":{"blockReason":"SAFETY"}}`
		text, err := complete()
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(BeEmpty())
	})

	It("wraps HTTP failures as unavailable", func() {
		status = http.StatusForbidden
		_, err := complete()
		Expect(errors.Is(err, generator.ErrUnavailable)).To(BeTrue())
	})
})
