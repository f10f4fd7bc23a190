package testutils

import (
	"context"
	"sync"

	"github.com/papercomputeco/docrag/pkg/generator"
)

// MockGenerator records calls and returns canned output.
type MockGenerator struct {
	mu sync.Mutex

	Answer string
	Title  string
	Err    error

	// Questions and Contexts record GenerateAnswer arguments.
	Questions []string
	Contexts  []string
}

func NewMockGenerator() *MockGenerator {
	return &MockGenerator{Answer: "mock answer", Title: "Mock title"}
}

func (m *MockGenerator) Name() string { return "mock" }

func (m *MockGenerator) GenerateAnswer(_ context.Context, question, retrieved string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.Questions = append(m.Questions, question)
	m.Contexts = append(m.Contexts, retrieved)
	if m.Err != nil {
		return "", m.Err
	}
	return m.Answer, nil
}

func (m *MockGenerator) GenerateTitle(_ context.Context, _ string) (string, error) {
	if m.Err != nil {
		return generator.DefaultTitle, nil
	}
	return m.Title, nil
}

// AnswerCalls returns how many times GenerateAnswer ran.
func (m *MockGenerator) AnswerCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.Questions)
}

var _ generator.Generator = (*MockGenerator)(nil)
