package identify

import (
	"context"
	"strings"
	"sync"

	"github.com/agenthands/archetypes/internal/llm"
)

// MockLLMClient routes prompts by content: similarity prompts go to
// Similarity, everything else to Label.
type MockLLMClient struct {
	Similarity    string
	SimilarityErr error
	Label         string
	LabelErr      error

	mu      sync.Mutex
	Prompts []string
}

func (m *MockLLMClient) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	m.mu.Lock()
	m.Prompts = append(m.Prompts, prompt)
	m.mu.Unlock()

	if strings.Contains(prompt, "<ARCHETYPE>") {
		if m.SimilarityErr != nil {
			return "", m.SimilarityErr
		}
		return m.Similarity, nil
	}
	if m.LabelErr != nil {
		return "", m.LabelErr
	}
	return m.Label, nil
}
