package influence

import (
	"context"
	"math"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agenthands/archetypes/internal/config"
	"github.com/agenthands/archetypes/internal/core/common"
	"github.com/agenthands/archetypes/internal/core/model"
	"github.com/agenthands/archetypes/internal/metrics"
)

type Strategy string

const (
	StrategyEngagement Strategy = "engagement"
	StrategySpread     Strategy = "spread"
	StrategyGrowth     Strategy = "growth"
	StrategyHybrid     Strategy = "hybrid"
)

// FallbackArchetypeScore is returned when archetype statistics cannot be read.
const FallbackArchetypeScore = 0.5

// Engagement at or above this weighted total saturates the absolute terms.
const engagementSaturation = 1000.0

// StatsReader is the slice of the content store the scorer reads.
type StatsReader interface {
	ArchetypeContentStats(ctx context.Context, archetypeID string) (model.ContentStats, error)
}

type Scorer struct {
	Stats      StatsReader
	Strategy   Strategy
	TimeWindow time.Duration
	Weights    config.StrategyWeights
	Logger     logrus.FieldLogger
	Now        func() time.Time
}

func NewScorer(stats StatsReader, cfg config.InfluenceConfig, logger logrus.FieldLogger) *Scorer {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	strategy := Strategy(strings.ToLower(cfg.Strategy))
	if strategy == "" {
		strategy = StrategyHybrid
	}
	days := cfg.TimeWindowDays
	if days <= 0 {
		days = 90
	}
	return &Scorer{
		Stats:      stats,
		Strategy:   strategy,
		TimeWindow: time.Duration(days) * 24 * time.Hour,
		Weights:    cfg.Weights,
		Logger:     logger,
		Now:        time.Now,
	}
}

// ScoreContent scores each item's contribution to archetypeID with the
// given strategy, or the configured one when strategy is empty.
func (s *Scorer) ScoreContent(archetypeID string, items []model.ContentItem, strategy Strategy) map[string]float64 {
	if strategy == "" {
		strategy = s.Strategy
	}
	scores := make(map[string]float64, len(items))
	if len(items) == 0 {
		return scores
	}

	var maxEngagement float64
	posts := make(map[string]int)
	for _, item := range items {
		maxEngagement = math.Max(maxEngagement, item.WeightedEngagement())
		if name := item.CreatorName(); name != "" {
			posts[name]++
		}
	}

	now := s.Now()
	for _, item := range items {
		var score float64
		switch strategy {
		case StrategyEngagement:
			score = engagementScore(item, maxEngagement)
		case StrategySpread:
			score = spreadScore(item, posts)
		case StrategyGrowth:
			score = s.growthScore(item, now)
		default:
			score = s.Weights.Engagement*engagementScore(item, maxEngagement) +
				s.Weights.Spread*spreadScore(item, posts) +
				s.Weights.Growth*s.growthScore(item, now)
		}
		scores[item.ID] = common.Clamp01(score)
	}

	s.Logger.WithFields(logrus.Fields{
		"archetype_id": archetypeID,
		"strategy":     strategy,
		"items":        len(items),
	}).Debug("scored content influence")

	return scores
}

// ScoreArchetype blends stored content volume, average engagement and the
// number of related archetypes. Store failures yield FallbackArchetypeScore.
func (s *Scorer) ScoreArchetype(ctx context.Context, archetype model.Archetype, related []model.Archetype) float64 {
	if s.Stats == nil {
		return FallbackArchetypeScore
	}
	stats, err := s.Stats.ArchetypeContentStats(ctx, archetype.ID)
	if err != nil {
		s.Logger.WithError(err).WithField("archetype_id", archetype.ID).Warn("influence degraded to fallback")
		metrics.RecordDegraded("influence")
		return FallbackArchetypeScore
	}

	volume := math.Min(float64(stats.ContentCount)/100, 1)
	engagement := math.Min(stats.AvgEngagement/engagementSaturation, 1)
	connectivity := math.Min(float64(len(related))/10, 1)
	return common.Clamp01(0.4*volume + 0.4*engagement + 0.2*connectivity)
}

func engagementScore(item model.ContentItem, maxEngagement float64) float64 {
	if maxEngagement <= 0 {
		return 0
	}
	return item.WeightedEngagement() / maxEngagement
}

// spreadScore rewards creators with fewer posts in the batch. Items without
// a creator count as a creator with a single post.
func spreadScore(item model.ContentItem, posts map[string]int) float64 {
	count := 1
	if name := item.CreatorName(); name != "" {
		count = max(posts[name], 1)
	}
	return 0.5/float64(count) + 0.5*math.Min(item.WeightedEngagement()/engagementSaturation, 1)
}

func (s *Scorer) growthScore(item model.ContentItem, now time.Time) float64 {
	age := now.Sub(item.Timestamp)
	if age > s.TimeWindow {
		return 0
	}
	recency := 1.0
	if age > 0 {
		recency = 1 - float64(age)/float64(s.TimeWindow)
	}
	return 0.6*recency + 0.4*math.Min(item.WeightedEngagement()/engagementSaturation, 1)
}
