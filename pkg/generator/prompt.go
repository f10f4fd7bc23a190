package generator

import (
	"fmt"
	"strings"
)

const (
	answerTemperature = 0.2
	titleTemperature  = 0.0
	answerMaxTokens   = 1024
	titleMaxTokens    = 24
	titleMaxRunes     = 80
)

// SystemPrompt constrains the model to the retrieved context.
const SystemPrompt = "You are a helpful assistant that strictly answers using the provided context."

// AnswerPrompt builds the user turn for an answer request.
func AnswerPrompt(question, retrieved string) string {
	return fmt.Sprintf(`Use the context to answer the user's question. If the answer is absent, say you do not know.

Context:
%s

Question: %s`, retrieved, question)
}

// TitlePrompt builds the user turn for a title request.
func TitlePrompt(retrieved string) string {
	return fmt.Sprintf(`Write a short title of at most six words for a conversation about the text below.
Reply with the title only, without quotes or punctuation at the end.

Text:
%s`, retrieved)
}

// CleanTitle reduces raw model output to a single trimmed line.
func CleanTitle(raw string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(raw), "\n")
	line = strings.Trim(strings.TrimSpace(line), `"'`+"`")
	line = strings.TrimRight(line, ".")
	if r := []rune(line); len(r) > titleMaxRunes {
		line = strings.TrimSpace(string(r[:titleMaxRunes]))
	}
	return line
}
