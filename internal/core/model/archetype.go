package model

import (
	"strings"
	"time"
)

type Archetype struct {
	ID             string   `json:"id" yaml:"id"`
	Label          string   `json:"label" yaml:"label"`
	Description    string   `json:"description" yaml:"description"`
	Keywords       []string `json:"keywords" yaml:"keywords"`
	Color          string   `json:"color,omitempty" yaml:"color,omitempty"`
	InfluenceScore float64  `json:"influence_score" yaml:"influence_score"`
	PlatformsSeen  []string `json:"platforms_seen,omitempty" yaml:"platforms_seen,omitempty"`
	Relationships  []string `json:"relationships,omitempty" yaml:"relationships,omitempty"` // related archetype IDs
}

// EmbeddingText is what gets embedded when comparing content against the archetype.
func (a Archetype) EmbeddingText() string {
	parts := []string{a.Label, a.Description}
	parts = append(parts, a.Keywords...)
	return strings.TrimSpace(strings.Join(parts, " "))
}

// EmergingArchetype is a proposal that has not been approved or persisted yet.
type EmergingArchetype struct {
	SuggestedLabel       string    `json:"suggested_label"`
	SuggestedDescription string    `json:"suggested_description"`
	KeywordCandidates    []string  `json:"keyword_candidates"`
	ExampleContentIDs    []string  `json:"example_content_ids"`
	Confidence           float64   `json:"confidence"`
	FirstDetected        time.Time `json:"first_detected"`
}

// ContentStats is the per-archetype aggregate read back from the store.
type ContentStats struct {
	ContentCount  int64   `json:"content_count"`
	AvgEngagement float64 `json:"avg_engagement"`
}

// DedupeKeywords lowercases, trims and removes repeated keywords while keeping order.
func DedupeKeywords(keywords []string) []string {
	seen := make(map[string]bool, len(keywords))
	out := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, k)
	}
	return out
}
