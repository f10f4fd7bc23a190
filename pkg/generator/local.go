package generator

import (
	"context"
	"fmt"
	"strings"
)

// LocalNotice prefixes answers produced without a live model.
const LocalNotice = "No live LLM credentials were detected, so this answer is generated locally."

const localTitleWords = 6

// Local is the offline fallback. It echoes the question and the retrieved
// context so the pipeline stays usable without credentials.
type Local struct{}

func NewLocal() *Local {
	return &Local{}
}

func (l *Local) Name() string { return "local" }

func (l *Local) GenerateAnswer(_ context.Context, question, retrieved string) (string, error) {
	if strings.TrimSpace(retrieved) == "" {
		return NoRelevantDocumentsMessage, nil
	}

	return fmt.Sprintf("%s\n\nQuestion: %s\n\nContext excerpts:\n%s",
		LocalNotice, strings.TrimSpace(question), strings.TrimSpace(retrieved)), nil
}

// GenerateTitle uses the first words of the first non-empty line.
func (l *Local) GenerateTitle(_ context.Context, retrieved string) (string, error) {
	for line := range strings.Lines(retrieved) {
		words := strings.Fields(line)
		if len(words) == 0 {
			continue
		}
		if len(words) > localTitleWords {
			words = words[:localTitleWords]
		}
		if title := CleanTitle(strings.Join(words, " ")); title != "" {
			return title, nil
		}
	}
	return DefaultTitle, nil
}

var _ Generator = (*Local)(nil)
