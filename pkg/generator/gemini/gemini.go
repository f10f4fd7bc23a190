// Package gemini implements a generator.Completer for the Gemini
// generateContent REST API.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/papercomputeco/docrag/pkg/generator"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-1.5-flash"
)

// Config holds configuration for the Gemini completer.
type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Completer calls /v1beta/models/{model}:generateContent.
type Completer struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

type part struct {
	Text string `json:"text,omitempty"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generationConfig struct {
	Temperature     float64 `json:"temperature"`
	MaxOutputTokens int     `json:"maxOutputTokens,omitempty"`
}

type generateRequest struct {
	SystemInstruction *content         `json:"systemInstruction,omitempty"`
	Contents          []content        `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content *content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// New creates a Gemini completer.
func New(cfg Config) (*Completer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini generator requires an API key")
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

func (c *Completer) Name() string { return "gemini" }

func (c *Completer) Complete(ctx context.Context, req generator.Request) (string, error) {
	body := generateRequest{
		Contents: []content{{Role: "user", Parts: []part{{Text: req.Prompt}}}},
		GenerationConfig: generationConfig{
			Temperature:     req.Temperature,
			MaxOutputTokens: req.MaxTokens,
		},
	}
	if req.System != "" {
		body.SystemInstruction = &content{Parts: []part{{Text: req.System}}}
	}

	endpoint := fmt.Sprintf("%s/v1beta/models/%s:generateContent", c.baseURL, url.PathEscape(c.model))

	var result generateResponse
	err := generator.PostJSON(ctx, c.httpClient, "gemini", endpoint,
		map[string]string{"x-goog-api-key": c.apiKey},
		body,
		&result,
	)
	if err != nil {
		return "", err
	}

	if result.Error != nil {
		return "", fmt.Errorf("%w: gemini error: %s", generator.ErrUnavailable, result.Error.Message)
	}

	return firstText(result), nil
}

// firstText returns the first non-empty part across all candidates. Blocked
// or empty candidates carry no content and are skipped.
func firstText(resp generateResponse) string {
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if text := strings.TrimSpace(p.Text); text != "" {
				return text
			}
		}
	}
	return ""
}

var _ generator.Completer = (*Completer)(nil)
