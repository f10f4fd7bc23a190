// Package generator turns a question and retrieved context into an answer
// using a remote model vendor or a local fallback.
package generator

import (
	"context"
	"errors"
)

// Fixed texts returned instead of provider output.
const (
	// NoRelevantDocumentsMessage is returned when retrieval found nothing.
	NoRelevantDocumentsMessage = "I could not find any relevant documents for this question."

	// NoContentMessage replaces an empty provider answer.
	NoContentMessage = "I could not draft an answer."

	// UnavailableMessage replaces the answer when the provider call fails.
	UnavailableMessage = "The answer service is unavailable right now. Please try again later."

	// DefaultTitle is used when a title cannot be generated.
	DefaultTitle = "New conversation"
)

// ErrUnavailable wraps every remote provider failure.
var ErrUnavailable = errors.New("generation unavailable")

// Generator answers questions strictly from supplied context.
type Generator interface {
	// Name identifies the provider, e.g. "openai" or "local".
	Name() string

	// GenerateAnswer returns the model's answer. A blank retrieved context yields
	// NoRelevantDocumentsMessage without contacting any provider.
	GenerateAnswer(ctx context.Context, question, retrieved string) (string, error)

	// GenerateTitle returns a short single-line title for the retrieved text, falling
	// back to DefaultTitle.
	GenerateTitle(ctx context.Context, retrieved string) (string, error)
}

// Request is a single non-streaming completion call.
type Request struct {
	System      string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Completer is implemented by vendor adapters. Complete returns the text of
// the first choice, or "" when the vendor returned no text.
type Completer interface {
	Name() string
	Complete(ctx context.Context, req Request) (string, error)
}
