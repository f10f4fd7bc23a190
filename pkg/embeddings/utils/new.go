// Package embeddingutils is the embeddings utility package
package embeddingutils

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/papercomputeco/docrag/pkg/embeddings"
	"github.com/papercomputeco/docrag/pkg/embeddings/hash"
	"github.com/papercomputeco/docrag/pkg/embeddings/ollama"
	"github.com/papercomputeco/docrag/pkg/embeddings/openai"
)

const (
	ProviderAuto   = "auto"
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderHash   = "hash"
)

type NewEmbedderOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	Dimensions   uint
	APIKey       string
	Logger       *slog.Logger
}

// NewEmbedder resolves the configured provider. "auto" selects OpenAI when an
// API key resolves (explicit, then OPENAI_API_KEY) and the hash embedder
// otherwise.
func NewEmbedder(o *NewEmbedderOpts) (embeddings.Embedder, error) {
	provider := strings.ToLower(o.ProviderType)
	apiKey := o.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}

	if provider == ProviderAuto || provider == "" {
		provider = ProviderHash
		if apiKey != "" {
			provider = ProviderOpenAI
		}
		if o.Logger != nil {
			o.Logger.Info("resolved embedding provider", "provider", provider)
		}
	}

	switch provider {
	case ProviderOpenAI:
		return openai.NewEmbedder(openai.EmbedderConfig{
			APIKey:     apiKey,
			BaseURL:    o.TargetURL,
			Model:      o.Model,
			Dimensions: int(o.Dimensions),
		})
	case ProviderOllama:
		return ollama.NewEmbedder(ollama.EmbedderConfig{
			BaseURL:    o.TargetURL,
			Model:      o.Model,
			Dimensions: int(o.Dimensions),
		})
	case ProviderHash:
		return hash.NewEmbedder(int(o.Dimensions)), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", o.ProviderType)
	}
}
