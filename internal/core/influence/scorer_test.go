package influence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/agenthands/archetypes/internal/config"
	"github.com/agenthands/archetypes/internal/core/model"
	"github.com/agenthands/archetypes/internal/logging"
)

var now = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

type mockStats struct {
	stats model.ContentStats
	err   error
}

func (m *mockStats) ArchetypeContentStats(ctx context.Context, archetypeID string) (model.ContentStats, error) {
	return m.stats, m.err
}

func newTestScorer(stats StatsReader) *Scorer {
	s := NewScorer(stats, config.Default().Influence, logging.Discard())
	s.Now = func() time.Time { return now }
	return s
}

func post(id, creator string, likes, shares, comments int64, age time.Duration) model.ContentItem {
	item := model.ContentItem{
		ID:         id,
		Timestamp:  now.Add(-age),
		Engagement: &model.Engagement{Likes: likes, Shares: shares, Comments: comments},
	}
	if creator != "" {
		item.Creator = &model.Creator{Username: creator}
	}
	return item
}

func TestScoreContent_Engagement(t *testing.T) {
	s := newTestScorer(nil)
	items := []model.ContentItem{
		post("a", "", 100, 0, 0, 0),   // 100
		post("b", "", 10, 10, 10, 0),  // 10 + 30 + 20 = 60
		{ID: "c", Timestamp: now},      // no engagement
	}

	scores := s.ScoreContent("arch", items, StrategyEngagement)
	assert.Equal(t, 1.0, scores["a"])
	assert.InDelta(t, 0.6, scores["b"], 1e-9)
	assert.Equal(t, 0.0, scores["c"])
}

func TestScoreContent_EngagementAllZero(t *testing.T) {
	s := newTestScorer(nil)
	scores := s.ScoreContent("arch", []model.ContentItem{{ID: "a"}, {ID: "b"}}, StrategyEngagement)
	assert.Equal(t, 0.0, scores["a"])
	assert.Equal(t, 0.0, scores["b"])
}

func TestScoreContent_Spread(t *testing.T) {
	s := newTestScorer(nil)
	items := []model.ContentItem{
		post("a1", "alice", 0, 0, 0, 0),
		post("a2", "alice", 2000, 0, 0, 0),
		post("b1", "bob", 500, 0, 0, 0),
		post("anon", "", 0, 0, 0, 0),
	}

	scores := s.ScoreContent("arch", items, StrategySpread)
	assert.InDelta(t, 0.25, scores["a1"], 1e-9)
	assert.InDelta(t, 0.75, scores["a2"], 1e-9)
	assert.InDelta(t, 0.75, scores["b1"], 1e-9)
	assert.InDelta(t, 0.5, scores["anon"], 1e-9)
}

func TestScoreContent_Growth(t *testing.T) {
	s := newTestScorer(nil)
	items := []model.ContentItem{
		post("old", "", 5000, 0, 0, 200*24*time.Hour),
		post("fresh", "", 0, 0, 0, 0),
		post("half", "", 500, 0, 0, 45*24*time.Hour),
		post("future", "", 0, 0, 0, -24*time.Hour),
	}

	scores := s.ScoreContent("arch", items, StrategyGrowth)
	assert.Equal(t, 0.0, scores["old"])
	assert.InDelta(t, 0.6, scores["fresh"], 1e-9)
	assert.InDelta(t, 0.6*0.5+0.4*0.5, scores["half"], 1e-9)
	assert.InDelta(t, 0.6, scores["future"], 1e-9)
}

func TestScoreContent_HybridDefault(t *testing.T) {
	s := newTestScorer(nil)
	items := []model.ContentItem{post("only", "alice", 1000, 0, 0, 0)}

	scores := s.ScoreContent("arch", items, "")
	// engagement 1, spread 0.5+0.5, growth 0.6+0.4
	assert.InDelta(t, 1.0, scores["only"], 1e-9)

	for _, strategy := range []Strategy{StrategyEngagement, StrategySpread, StrategyGrowth, StrategyHybrid} {
		for _, v := range s.ScoreContent("arch", items, strategy) {
			assert.GreaterOrEqual(t, v, 0.0)
			assert.LessOrEqual(t, v, 1.0)
		}
	}
}

func TestScoreArchetype(t *testing.T) {
	s := newTestScorer(&mockStats{stats: model.ContentStats{ContentCount: 50, AvgEngagement: 2500}})
	related := make([]model.Archetype, 5)

	score := s.ScoreArchetype(context.Background(), model.Archetype{ID: "a"}, related)
	assert.InDelta(t, 0.4*0.5+0.4*1+0.2*0.5, score, 1e-9)
}

func TestScoreArchetype_StoreFailure(t *testing.T) {
	s := newTestScorer(&mockStats{err: errors.New("connection refused")})
	assert.Equal(t, FallbackArchetypeScore, s.ScoreArchetype(context.Background(), model.Archetype{ID: "a"}, nil))

	s = newTestScorer(nil)
	assert.Equal(t, FallbackArchetypeScore, s.ScoreArchetype(context.Background(), model.Archetype{ID: "a"}, nil))
}
