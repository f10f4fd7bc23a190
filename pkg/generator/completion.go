package generator

import (
	"context"
	"log/slog"
	"strings"
)

// completionGenerator adapts a vendor Completer to the Generator contract.
type completionGenerator struct {
	completer Completer
	logger    *slog.Logger
}

// NewCompletionGenerator wraps c with prompts, the blank-context short circuit,
// and title fallbacks.
func NewCompletionGenerator(c Completer, logger *slog.Logger) Generator {
	return &completionGenerator{completer: c, logger: logger}
}

func (g *completionGenerator) Name() string {
	return g.completer.Name()
}

func (g *completionGenerator) GenerateAnswer(ctx context.Context, question, retrieved string) (string, error) {
	if strings.TrimSpace(retrieved) == "" {
		return NoRelevantDocumentsMessage, nil
	}

	return g.completer.Complete(ctx, Request{
		System:      SystemPrompt,
		Prompt:      AnswerPrompt(question, retrieved),
		Temperature: answerTemperature,
		MaxTokens:   answerMaxTokens,
	})
}

func (g *completionGenerator) GenerateTitle(ctx context.Context, retrieved string) (string, error) {
	if strings.TrimSpace(retrieved) == "" {
		return DefaultTitle, nil
	}

	raw, err := g.completer.Complete(ctx, Request{
		Prompt:      TitlePrompt(retrieved),
		Temperature: titleTemperature,
		MaxTokens:   titleMaxTokens,
	})
	if err != nil {
		g.logger.Warn("title generation failed", "provider", g.completer.Name(), "error", err)
		return DefaultTitle, nil
	}

	if title := CleanTitle(raw); title != "" {
		return title, nil
	}
	return DefaultTitle, nil
}
