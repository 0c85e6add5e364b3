package core

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/agenthands/archetypes/internal/core/model"
	"github.com/agenthands/archetypes/internal/llm"
)

// MockEmbedder implements llm.EmbedderClient by mapping each text through Fn.
type MockEmbedder struct {
	Fn  func(text string) []float32
	Err error

	mu    sync.Mutex
	calls int
}

func (m *MockEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = m.Fn(t)
	}
	return out, nil
}

func (m *MockEmbedder) Model() string { return "mock-embed" }

type MockLLM struct {
	Response      string
	ResponseQueue []string
	Err           error
}

func (m *MockLLM) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.ResponseQueue) > 0 {
		resp := m.ResponseQueue[0]
		m.ResponseQueue = m.ResponseQueue[1:]
		return resp, nil
	}
	return m.Response, nil
}

// FailingStore fails every call with Err.
type FailingStore struct {
	Err error
}

func (s *FailingStore) ListArchetypes(ctx context.Context) ([]model.Archetype, error) {
	return nil, s.Err
}

func (s *FailingStore) ArchetypeContentStats(ctx context.Context, archetypeID string) (model.ContentStats, error) {
	return model.ContentStats{}, s.Err
}

func (s *FailingStore) SaveClassification(ctx context.Context, item model.ContentItem, result model.ClassificationResult) error {
	return s.Err
}

func (s *FailingStore) SaveProposal(ctx context.Context, archetype model.Archetype, proposal model.EmergingArchetype) error {
	return s.Err
}

func (s *FailingStore) UpdateInfluenceScore(ctx context.Context, archetypeID string, score float64) error {
	return s.Err
}

func (s *FailingStore) Close(ctx context.Context) error { return nil }

var errStoreDown = errors.New("store unavailable")

// topicVector sends beauty content one way and everything else another.
func topicVector(text string) []float32 {
	t := strings.ToLower(text)
	switch {
	case strings.Contains(t, "clean"), strings.Contains(t, "dewy"):
		return []float32{1, 0.02, 0}
	default:
		return []float32{0, 0.05, 1}
	}
}
