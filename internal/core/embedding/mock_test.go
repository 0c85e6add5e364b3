package embedding

import (
	"context"
	"strconv"
	"sync"
)

// MockEmbedder answers with Fn, or with [n, 1] for a text that parses as n.
type MockEmbedder struct {
	Fn        func(texts []string) ([][]float32, error)
	ModelName string

	mu    sync.Mutex
	calls int
	seen  []string
}

func (m *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.seen = append(m.seen, texts...)
	m.mu.Unlock()

	if m.Fn != nil {
		return m.Fn(texts)
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		n, _ := strconv.ParseFloat(t, 32)
		out[i] = []float32{float32(n), 1}
	}
	return out, nil
}

func (m *MockEmbedder) Model() string {
	if m.ModelName == "" {
		return "mock-embed"
	}
	return m.ModelName
}

func (m *MockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
