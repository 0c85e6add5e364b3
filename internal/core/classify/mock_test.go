package classify

import (
	"context"
	"errors"

	"github.com/agenthands/archetypes/internal/core/model"
)

// MockEmbedder returns Vectors[text] for item texts and archetype texts;
// unknown texts get Default.
type MockEmbedder struct {
	Vectors map[string][]float32
	Default []float32
	Err     error

	TextCalls int
}

func (m *MockEmbedder) lookup(text string) []float32 {
	if v, ok := m.Vectors[text]; ok {
		return v
	}
	return m.Default
}

func (m *MockEmbedder) Embed(ctx context.Context, items []model.ContentItem) ([]model.Embedding, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]model.Embedding, len(items))
	for i, item := range items {
		out[i] = model.Embedding{ContentID: item.ID, Vector: m.lookup(item.EmbeddingText())}
	}
	return out, nil
}

func (m *MockEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	m.TextCalls++
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.lookup(t)
	}
	return out, nil
}

var errEmbed = errors.New("embedding provider down")
