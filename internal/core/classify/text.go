package classify

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/agenthands/archetypes/internal/core/model"
)

// normalizeTag strips '#', lowercases and removes whitespace so
// "#CleanGirl" and "clean girl" compare equal.
func normalizeTag(s string) string {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return unicode.ToLower(r)
	}, s)
}

// keywordOverlap is the fraction of keywords found in the item's text or caption.
func keywordOverlap(item model.ContentItem, keywords []string) float64 {
	if len(keywords) == 0 {
		return 0
	}
	haystack := strings.ToLower(item.Text + " " + item.Caption)
	hits := 0
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" && strings.Contains(haystack, k) {
			hits++
		}
	}
	return float64(hits) / float64(len(keywords))
}

// hashtagOverlap is the fraction of the item's hashtags that name a keyword.
func hashtagOverlap(item model.ContentItem, keywords []string) float64 {
	if len(item.Hashtags) == 0 || len(keywords) == 0 {
		return 0
	}
	set := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		if n := normalizeTag(k); n != "" {
			set[n] = true
		}
	}
	hits := 0
	for _, h := range item.Hashtags {
		if set[normalizeTag(h)] {
			hits++
		}
	}
	return float64(hits) / float64(len(item.Hashtags))
}

// suggestName titles the first usable hashtag, else the first words of the text.
func suggestName(item model.ContentItem) string {
	for _, h := range item.Hashtags {
		if tag := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(h), "#")); tag != "" {
			return titleCase(tag)
		}
	}
	words := strings.Fields(item.RawContent())
	if len(words) > 3 {
		words = words[:3]
	}
	if len(words) == 0 {
		return "Emerging Archetype"
	}
	return titleCase(strings.Join(words, " "))
}

// A Caser is stateful, so each call gets its own.
func titleCase(s string) string {
	return cases.Title(language.English).String(s)
}

// candidateKeywords are the item's hashtags, else its longer words.
func candidateKeywords(item model.ContentItem) []string {
	var raw []string
	for _, h := range item.Hashtags {
		raw = append(raw, normalizeTag(h))
	}
	if len(raw) == 0 {
		for _, w := range strings.Fields(item.RawContent()) {
			w = strings.TrimFunc(w, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
			if len([]rune(w)) > 3 {
				raw = append(raw, w)
			}
		}
	}
	kw := model.DedupeKeywords(raw)
	if len(kw) > 8 {
		kw = kw[:8]
	}
	if len(kw) == 0 {
		kw = []string{"emerging"}
	}
	return kw
}
