// Package anthropic implements a generator.Completer for the Anthropic
// messages API.
package anthropic

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/papercomputeco/docrag/pkg/generator"
)

const (
	DefaultBaseURL = "https://api.anthropic.com"
	DefaultModel   = "claude-3-5-haiku-latest"

	apiVersion       = "2023-06-01"
	defaultMaxTokens = 1024
)

// Config holds configuration for the Anthropic completer.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Completer calls /v1/messages.
type Completer struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// New creates an Anthropic completer.
func New(cfg Config) (*Completer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic generator requires an API key")
	}

	baseURL := strings.TrimSuffix(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	return &Completer{
		apiKey:     cfg.APIKey,
		baseURL:    baseURL,
		model:      model,
		httpClient: &http.Client{Timeout: generator.DefaultTimeout},
	}, nil
}

func (c *Completer) Name() string { return "anthropic" }

func (c *Completer) Complete(ctx context.Context, req generator.Request) (string, error) {
	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	var result messagesResponse
	err := generator.PostJSON(ctx, c.httpClient, "anthropic", c.baseURL+"/v1/messages",
		map[string]string{
			"x-api-key":         c.apiKey,
			"anthropic-version": apiVersion,
		},
		messagesRequest{
			Model:       c.model,
			MaxTokens:   maxTokens,
			System:      req.System,
			Messages:    []message{{Role: "user", Content: req.Prompt}},
			Temperature: req.Temperature,
		},
		&result,
	)
	if err != nil {
		return "", err
	}

	if result.Error != nil {
		return "", fmt.Errorf("%w: anthropic error: %s", generator.ErrUnavailable, result.Error.Message)
	}

	var b strings.Builder
	for _, block := range result.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(b.String()), nil
}

var _ generator.Completer = (*Completer)(nil)
