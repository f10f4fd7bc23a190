// Package generatorutils resolves the configured answer generator.
package generatorutils

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/papercomputeco/docrag/pkg/generator"
	"github.com/papercomputeco/docrag/pkg/generator/anthropic"
	"github.com/papercomputeco/docrag/pkg/generator/gemini"
	"github.com/papercomputeco/docrag/pkg/generator/ollama"
	"github.com/papercomputeco/docrag/pkg/generator/openai"
)

const (
	ProviderAuto      = "auto"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderOllama    = "ollama"
	ProviderLocal     = "local"
)

// autoOrder is the preference order for "auto" resolution.
var autoOrder = []string{ProviderOpenAI, ProviderAnthropic, ProviderGemini}

type NewGeneratorOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	APIKey       string
	Logger       *slog.Logger
}

// ErrAmbiguousAPIKey is returned when "auto" is combined with an explicit
// API key, which does not say which vendor it belongs to.
var ErrAmbiguousAPIKey = errors.New(`an explicit llm api key requires an explicit llm provider, not "auto"`)

// NewGenerator resolves the configured provider once. API keys resolve from
// the explicit option, then the vendor's environment variable. "auto" picks
// the first vendor with a key in its environment variable and otherwise the
// local fallback.
func NewGenerator(o *NewGeneratorOpts) (generator.Generator, error) {
	provider := strings.ToLower(o.ProviderType)

	if provider == ProviderAuto || provider == "" {
		if o.APIKey != "" {
			return nil, ErrAmbiguousAPIKey
		}
		provider = ProviderLocal
		for _, candidate := range autoOrder {
			if resolveAPIKey(candidate, o.APIKey) != "" {
				provider = candidate
				break
			}
		}
		if o.Logger != nil {
			o.Logger.Info("resolved answer generator", "provider", provider)
		}
	}

	apiKey := resolveAPIKey(provider, o.APIKey)

	var (
		completer generator.Completer
		err       error
	)
	switch provider {
	case ProviderOpenAI:
		completer, err = openai.New(openai.Config{APIKey: apiKey, BaseURL: o.TargetURL, Model: o.Model})
	case ProviderAnthropic:
		completer, err = anthropic.New(anthropic.Config{APIKey: apiKey, BaseURL: o.TargetURL, Model: o.Model})
	case ProviderGemini:
		completer, err = gemini.New(gemini.Config{APIKey: apiKey, BaseURL: o.TargetURL, Model: o.Model})
	case ProviderOllama:
		completer = ollama.New(ollama.Config{BaseURL: o.TargetURL, Model: o.Model})
	case ProviderLocal:
		return generator.NewLocal(), nil
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", o.ProviderType)
	}
	if err != nil {
		return nil, err
	}

	logger := o.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return generator.NewCompletionGenerator(completer, logger), nil
}

// resolveAPIKey returns explicit when set, else the vendor's env var.
func resolveAPIKey(provider, explicit string) string {
	if explicit != "" {
		return explicit
	}

	switch provider {
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	case ProviderGemini:
		if key := os.Getenv("GEMINI_API_KEY"); key != "" {
			return key
		}
		return os.Getenv("GOOGLE_API_KEY")
	default:
		return ""
	}
}
