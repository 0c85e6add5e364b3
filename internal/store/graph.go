package store

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/agenthands/archetypes/internal/core/model"
	"github.com/agenthands/archetypes/internal/driver"
)

// GraphStore keeps archetypes, content and creators as a property graph.
type GraphStore struct {
	Driver driver.GraphDriver
	Now    func() time.Time
}

func NewGraphStore(d driver.GraphDriver) *GraphStore {
	return &GraphStore{Driver: d, Now: time.Now}
}

func (s *GraphStore) ListArchetypes(ctx context.Context) ([]model.Archetype, error) {
	res, err := s.Driver.ExecuteQuery(ctx, driver.ListArchetypesQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to list archetypes: %w", err)
	}

	archetypes := make([]model.Archetype, 0, len(res.Records))
	for _, rec := range res.Records {
		archetypes = append(archetypes, model.Archetype{
			ID:             stringValue(rec, "id"),
			Label:          stringValue(rec, "label"),
			Description:    stringValue(rec, "description"),
			Keywords:       stringsValue(rec, "keywords"),
			Color:          stringValue(rec, "color"),
			InfluenceScore: floatValue(rec, "influence_score"),
			PlatformsSeen:  stringsValue(rec, "platforms_seen"),
			Relationships:  stringsValue(rec, "related"),
		})
	}
	return archetypes, nil
}

func (s *GraphStore) ArchetypeContentStats(ctx context.Context, archetypeID string) (model.ContentStats, error) {
	res, err := s.Driver.ExecuteQuery(ctx, driver.ArchetypeContentStatsQuery, map[string]any{"id": archetypeID})
	if err != nil {
		return model.ContentStats{}, fmt.Errorf("failed to read stats for archetype %s: %w", archetypeID, err)
	}
	if len(res.Records) == 0 {
		return model.ContentStats{}, nil
	}
	rec := res.Records[0]
	return model.ContentStats{
		ContentCount:  intValue(rec, "content_count"),
		AvgEngagement: floatValue(rec, "avg_engagement"),
	}, nil
}

func (s *GraphStore) SaveClassification(ctx context.Context, item model.ContentItem, result model.ClassificationResult) error {
	params := map[string]any{
		"id":                  item.ID,
		"platform":            item.Platform,
		"text":                item.Text,
		"caption":             item.Caption,
		"hashtags":            item.Hashtags,
		"timestamp":           item.Timestamp.UTC(),
		"engagement":          item.WeightedEngagement(),
		"creator":             item.CreatorName(),
		"is_new_archetype":    result.IsNewArchetype,
		"suggested_archetype": result.SuggestedArchetypeName,
	}
	if _, err := s.Driver.ExecuteQuery(ctx, driver.SaveContentQuery, params); err != nil {
		return fmt.Errorf("failed to save content %s: %w", item.ID, err)
	}

	if result.ArchetypeID == "" || result.ArchetypeID == model.NoArchetype {
		return nil
	}

	params = map[string]any{
		"content_id":           item.ID,
		"archetype_id":         result.ArchetypeID,
		"score":                result.Confidence.Score,
		"textual_match":        result.Confidence.TextualMatch,
		"hashtag_match":        result.Confidence.HashtagMatch,
		"contextual_relevance": result.Confidence.ContextualRelevance,
		"classified_at":        s.Now().UTC(),
		"platform":             item.Platform,
	}
	res, err := s.Driver.ExecuteQuery(ctx, driver.ClassifyContentQuery, params)
	if err != nil {
		return fmt.Errorf("failed to classify content %s: %w", item.ID, err)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("failed to classify content %s: %w: %s", item.ID, ErrArchetypeNotFound, result.ArchetypeID)
	}
	return nil
}

func (s *GraphStore) SaveProposal(ctx context.Context, archetype model.Archetype, proposal model.EmergingArchetype) error {
	params := map[string]any{
		"id":             archetype.ID,
		"label":          archetype.Label,
		"description":    archetype.Description,
		"keywords":       archetype.Keywords,
		"color":          archetype.Color,
		"confidence":     proposal.Confidence,
		"first_detected": proposal.FirstDetected.UTC(),
		"examples":       proposal.ExampleContentIDs,
	}
	if _, err := s.Driver.ExecuteQuery(ctx, driver.SaveProposalQuery, params); err != nil {
		return fmt.Errorf("failed to save proposal %q: %w", archetype.Label, err)
	}
	return nil
}

func (s *GraphStore) UpdateInfluenceScore(ctx context.Context, archetypeID string, score float64) error {
	params := map[string]any{
		"id":        archetypeID,
		"score":     score,
		"scored_at": s.Now().UTC(),
	}
	res, err := s.Driver.ExecuteQuery(ctx, driver.UpdateInfluenceScoreQuery, params)
	if err != nil {
		return fmt.Errorf("failed to update influence for %s: %w", archetypeID, err)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("%w: %s", ErrArchetypeNotFound, archetypeID)
	}
	return nil
}

func (s *GraphStore) BuildIndices(ctx context.Context) error {
	return s.Driver.BuildIndices(ctx)
}

func (s *GraphStore) Close(ctx context.Context) error {
	return s.Driver.Close(ctx)
}

func stringValue(rec *neo4j.Record, key string) string {
	v, _ := rec.Get(key)
	s, _ := v.(string)
	return s
}

func floatValue(rec *neo4j.Record, key string) float64 {
	v, _ := rec.Get(key)
	switch n := v.(type) {
	case float64:
		return n
	case int64:
		return float64(n)
	}
	return 0
}

func intValue(rec *neo4j.Record, key string) int64 {
	v, _ := rec.Get(key)
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	}
	return 0
}

// stringsValue reads a list property; the driver returns lists as []any.
func stringsValue(rec *neo4j.Record, key string) []string {
	v, _ := rec.Get(key)
	switch list := v.(type) {
	case []string:
		return list
	case []any:
		out := make([]string, 0, len(list))
		for _, x := range list {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
