package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/agenthands/archetypes/internal/core/model"
)

// batchFile is the on-disk input of the CLI. JSON files parse as YAML too.
type batchFile struct {
	Archetypes []model.Archetype `yaml:"archetypes"`
	Items      []batchItem       `yaml:"items"`
}

// batchItem keeps timestamps as text so quoted and bare values both decode.
type batchItem struct {
	ID         string            `yaml:"id"`
	Platform   string            `yaml:"platform"`
	Text       string            `yaml:"text"`
	Caption    string            `yaml:"caption"`
	Hashtags   []string          `yaml:"hashtags"`
	Timestamp  string            `yaml:"timestamp"`
	Creator    *model.Creator    `yaml:"creator"`
	Engagement *model.Engagement `yaml:"engagement"`
}

func loadBatch(path string) (*batchFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read batch file '%s': %w", path, err)
	}
	return parseBatch(data)
}

func parseBatch(data []byte) (*batchFile, error) {
	var b batchFile
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("failed to parse batch: %w", err)
	}

	seen := make(map[string]bool, len(b.Items))
	for i, it := range b.Items {
		if strings.TrimSpace(it.ID) == "" {
			return nil, fmt.Errorf("item %d has no id", i)
		}
		if seen[it.ID] {
			return nil, fmt.Errorf("duplicate item id %q", it.ID)
		}
		seen[it.ID] = true
	}
	for i, a := range b.Archetypes {
		if strings.TrimSpace(a.ID) == "" {
			return nil, fmt.Errorf("archetype %d has no id", i)
		}
	}
	return &b, nil
}

// ContentItems converts the decoded items. An empty timestamp means now.
func (b *batchFile) ContentItems(now time.Time) ([]model.ContentItem, error) {
	out := make([]model.ContentItem, 0, len(b.Items))
	for _, it := range b.Items {
		ts := now
		if it.Timestamp != "" {
			parsed, err := time.Parse(time.RFC3339, it.Timestamp)
			if err != nil {
				return nil, fmt.Errorf("item %q: invalid timestamp: %w", it.ID, err)
			}
			ts = parsed
		}
		out = append(out, model.ContentItem{
			ID:         it.ID,
			Platform:   it.Platform,
			Text:       it.Text,
			Caption:    it.Caption,
			Hashtags:   it.Hashtags,
			Timestamp:  ts,
			Creator:    it.Creator,
			Engagement: it.Engagement,
		})
	}
	return out, nil
}
