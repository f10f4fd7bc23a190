// Package ollama implements a generator.Completer for Ollama's chat API.
package ollama

import (
	"context"
	"net/http"
	"strings"

	"github.com/papercomputeco/docrag/pkg/generator"
)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.2"
)

// Config holds configuration for the Ollama completer.
type Config struct {
	BaseURL string
	Model   string
}

// Completer calls /api/chat without streaming.
type Completer struct {
	baseURL    string
	model      string
	httpClient *http.Client
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  chatOptions   `json:"options"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
	Done bool `json:"done"`
}

// New creates an Ollama completer.
func New(cfg Config) *Completer {
	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Completer{
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: generator.DefaultTimeout},
	}
}

func (c *Completer) Name() string { return "ollama" }

func (c *Completer) Complete(ctx context.Context, req generator.Request) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	var result chatResponse
	err := generator.PostJSON(ctx, c.httpClient, "ollama", c.baseURL+"/api/chat", nil,
		chatRequest{
			Model:    c.model,
			Messages: messages,
			Stream:   false,
			Options: chatOptions{
				Temperature: req.Temperature,
				NumPredict:  req.MaxTokens,
			},
		},
		&result,
	)
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(result.Message.Content), nil
}

var _ generator.Completer = (*Completer)(nil)
