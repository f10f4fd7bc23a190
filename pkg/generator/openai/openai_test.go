package openai_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docrag/pkg/generator"
	"github.com/papercomputeco/docrag/pkg/generator/openai"
)

var _ = Describe("Completer", func() {
	var (
		server   *httptest.Server
		received map[string]any
		auth     string
		reply    string
		status   int
	)

	BeforeEach(func() {
		status = http.StatusOK
		reply = `{"choices":[{"message":{"content":" Alpha uses Bravo. "}}]}`
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			Expect(r.URL.Path).To(Equal("/v1/chat/completions"))
			auth = r.Header.Get("Authorization")
			Expect(json.NewDecoder(r.Body).Decode(&received)).To(Succeed())
			w.WriteHeader(status)
			_, _ = w.Write([]byte(reply))
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	complete := func() (string, error) {
		c, err := openai.New(openai.Config{APIKey: "sk-test", BaseURL: server.URL})
		Expect(err).NotTo(HaveOccurred())
		return c.Complete(context.Background(), generator.Request{
			System:      "sys",
			Prompt:      "question",
			Temperature: 0.2,
		})
	}

	It("sends system and user messages", func() {
		text, err := complete()
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("Alpha uses Bravo."))
		Expect(auth).To(Equal("Bearer sk-test"))
		Expect(received["model"]).To(Equal(openai.DefaultModel))
		Expect(received["temperature"]).To(BeNumerically("~", 0.2))

		messages := received["messages"].([]any)
		Expect(messages).To(HaveLen(2))
		Expect(messages[0].(map[string]any)["role"]).To(Equal("system"))
		Expect(messages[1].(map[string]any)["content"]).To(Equal("question"))
	})

	It("joins array content parts", func() {
		reply = `{"choices":[{"message":{"content":[{"type":"text","text":"Alpha "},{"type":"text","text":"Bravo"}]}}]}`
		text, err := complete()
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(Equal("Alpha Bravo"))
	})

	It("returns empty text when there are no choices", func() {
		reply = `{"choices":[]}`
		text, err := complete()
		Expect(err).NotTo(HaveOccurred())
		Expect(text).To(BeEmpty())
	})

	It("wraps HTTP failures as unavailable", func() {
		status = http.StatusTooManyRequests
		reply = `{"error":{"message":"slow down"}}`
		_, err := complete()
		Expect(errors.Is(err, generator.ErrUnavailable)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("429"))
	})

	It("requires an API key", func() {
		_, err := openai.New(openai.Config{})
		Expect(err).To(HaveOccurred())
	})
})
