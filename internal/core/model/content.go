package model

import (
	"strings"
	"time"
)

type Creator struct {
	Username      string `json:"username" yaml:"username"`
	FollowerCount int64  `json:"follower_count" yaml:"follower_count"`
}

type Engagement struct {
	Likes    int64 `json:"likes" yaml:"likes"`
	Shares   int64 `json:"shares" yaml:"shares"`
	Comments int64 `json:"comments" yaml:"comments"`
}

// Weighted returns likes + 3*shares + 2*comments.
func (e Engagement) Weighted() float64 {
	return float64(e.Likes) + 3*float64(e.Shares) + 2*float64(e.Comments)
}

// ContentItem is caller-owned input. The pipeline never mutates it.
type ContentItem struct {
	ID         string      `json:"id" yaml:"id"`
	Platform   string      `json:"platform" yaml:"platform"`
	Text       string      `json:"text" yaml:"text"`
	Caption    string      `json:"caption,omitempty" yaml:"caption,omitempty"`
	Hashtags   []string    `json:"hashtags,omitempty" yaml:"hashtags,omitempty"`
	Timestamp  time.Time   `json:"timestamp" yaml:"timestamp"`
	Creator    *Creator    `json:"creator,omitempty" yaml:"creator,omitempty"`
	Engagement *Engagement `json:"engagement,omitempty" yaml:"engagement,omitempty"`
}

// EmbeddingText joins text, caption and hashtags, dropping empty parts.
func (c ContentItem) EmbeddingText() string {
	parts := make([]string, 0, 2+len(c.Hashtags))
	for _, p := range append([]string{c.Text, c.Caption}, c.Hashtags...) {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.TrimSpace(strings.Join(parts, " "))
}

// RawContent is the text shown to the LLM when sampling a cluster.
func (c ContentItem) RawContent() string {
	if c.Caption == "" {
		return c.Text
	}
	if c.Text == "" {
		return c.Caption
	}
	return c.Text + " " + c.Caption
}

func (c ContentItem) WeightedEngagement() float64 {
	if c.Engagement == nil {
		return 0
	}
	return c.Engagement.Weighted()
}

func (c ContentItem) CreatorName() string {
	if c.Creator == nil {
		return ""
	}
	return c.Creator.Username
}
