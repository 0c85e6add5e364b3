package store

import (
	"context"
	"slices"
	"sort"
	"sync"

	"github.com/agenthands/archetypes/internal/core/model"
)

// MemoryStore is a ContentStore held in process memory. It backs the CLI's
// offline mode and tests.
type MemoryStore struct {
	mu              sync.RWMutex
	archetypes      map[string]model.Archetype
	content         map[string]model.ContentItem
	classifications map[string]model.ClassificationResult
	proposals       map[string]model.EmergingArchetype
}

func NewMemoryStore(seed ...model.Archetype) *MemoryStore {
	s := &MemoryStore{
		archetypes:      make(map[string]model.Archetype),
		content:         make(map[string]model.ContentItem),
		classifications: make(map[string]model.ClassificationResult),
		proposals:       make(map[string]model.EmergingArchetype),
	}
	for _, a := range seed {
		s.archetypes[a.ID] = a
	}
	return s
}

func (s *MemoryStore) ListArchetypes(ctx context.Context) ([]model.Archetype, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Archetype, 0, len(s.archetypes))
	for _, a := range s.archetypes {
		a.Keywords = slices.Clone(a.Keywords)
		a.PlatformsSeen = slices.Clone(a.PlatformsSeen)
		a.Relationships = slices.Clone(a.Relationships)
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out, nil
}

func (s *MemoryStore) ArchetypeContentStats(ctx context.Context, archetypeID string) (model.ContentStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stats model.ContentStats
	var total float64
	for id, r := range s.classifications {
		if r.ArchetypeID != archetypeID {
			continue
		}
		stats.ContentCount++
		total += s.content[id].WeightedEngagement()
	}
	if stats.ContentCount > 0 {
		stats.AvgEngagement = total / float64(stats.ContentCount)
	}
	return stats, nil
}

func (s *MemoryStore) SaveClassification(ctx context.Context, item model.ContentItem, result model.ClassificationResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.content[item.ID] = item
	if result.ArchetypeID == "" || result.ArchetypeID == model.NoArchetype {
		delete(s.classifications, item.ID)
		return nil
	}
	a, ok := s.archetypes[result.ArchetypeID]
	if !ok {
		return ErrArchetypeNotFound
	}
	if item.Platform != "" && !slices.Contains(a.PlatformsSeen, item.Platform) {
		a.PlatformsSeen = append(slices.Clone(a.PlatformsSeen), item.Platform)
		s.archetypes[a.ID] = a
	}
	s.classifications[item.ID] = result
	return nil
}

func (s *MemoryStore) SaveProposal(ctx context.Context, archetype model.Archetype, proposal model.EmergingArchetype) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.archetypes[archetype.ID] = archetype
	s.proposals[archetype.ID] = proposal
	return nil
}

func (s *MemoryStore) UpdateInfluenceScore(ctx context.Context, archetypeID string, score float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.archetypes[archetypeID]
	if !ok {
		return ErrArchetypeNotFound
	}
	a.InfluenceScore = score
	s.archetypes[archetypeID] = a
	return nil
}

func (s *MemoryStore) Close(ctx context.Context) error {
	return nil
}

// Classification returns what was stored for contentID.
func (s *MemoryStore) Classification(contentID string) (model.ClassificationResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.classifications[contentID]
	return r, ok
}

// Proposal returns the proposal stored under archetypeID.
func (s *MemoryStore) Proposal(archetypeID string) (model.EmergingArchetype, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.proposals[archetypeID]
	return p, ok
}
