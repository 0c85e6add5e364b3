package classify

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agenthands/archetypes/internal/config"
	"github.com/agenthands/archetypes/internal/core/common"
	"github.com/agenthands/archetypes/internal/core/model"
	"github.com/agenthands/archetypes/internal/core/vector"
)

// Embedder is the part of embedding.Generator the classifier needs.
type Embedder interface {
	Embed(ctx context.Context, items []model.ContentItem) ([]model.Embedding, error)
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// Classification is the outcome of one Classify call.
type Classification struct {
	Results               []model.ClassificationResult `json:"results"`
	Unclassified          []model.ClassificationResult `json:"unclassified"`
	NewArchetypeProposals []model.EmergingArchetype    `json:"new_archetype_proposals"`
}

func newClassification() *Classification {
	return &Classification{
		Results:               []model.ClassificationResult{},
		Unclassified:          []model.ClassificationResult{},
		NewArchetypeProposals: []model.EmergingArchetype{},
	}
}

// Classifier scores content against archetypes by a weighted blend of vector and text matches.
type Classifier struct {
	Embedder Embedder
	Config   config.ClassificationConfig
	Logger   logrus.FieldLogger
	Now      func() time.Time
}

func NewClassifier(embedder Embedder, cfg config.ClassificationConfig, logger logrus.FieldLogger) *Classifier {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Classifier{
		Embedder: embedder,
		Config:   cfg,
		Logger:   logger,
		Now:      time.Now,
	}
}

type match struct {
	archetype *model.Archetype
	score     float64
	vector    float64
	keyword   float64
	hashtag   float64
}

// Classify scores every item against every archetype and sorts it into
// exactly one of classified, new-archetype candidate or unclassified.
// Classified items and candidates are both returned in Results.
func (c *Classifier) Classify(ctx context.Context, items []model.ContentItem, archetypes []model.Archetype) (*Classification, error) {
	if len(items) == 0 {
		return newClassification(), nil
	}

	embeddings, err := c.Embedder.Embed(ctx, items)
	if err != nil {
		return nil, fmt.Errorf("failed to embed content: %w", err)
	}
	return c.ClassifyEmbedded(ctx, items, embeddings, archetypes)
}

// ClassifyEmbedded is Classify for items whose embeddings are already
// computed; embeddings[i] must belong to items[i].
func (c *Classifier) ClassifyEmbedded(ctx context.Context, items []model.ContentItem, embeddings []model.Embedding, archetypes []model.Archetype) (*Classification, error) {
	out := newClassification()
	if len(items) == 0 {
		return out, nil
	}
	if len(embeddings) != len(items) {
		return nil, common.NewDataError("", "expected %d embeddings, got %d", len(items), len(embeddings))
	}

	archVectors, err := c.archetypeVectors(ctx, archetypes)
	if err != nil {
		return nil, err
	}

	proposals := make(map[string]int)
	for idx, item := range items {
		best := c.bestMatch(item, embeddings[idx].Vector, archetypes, archVectors)
		conf := model.Confidence{
			Score:               best.score,
			TextualMatch:        best.keyword,
			HashtagMatch:        best.hashtag,
			ContextualRelevance: common.Clamp01(best.vector),
		}

		switch {
		case best.archetype != nil && best.score > c.Config.ClassifyThreshold:
			out.Results = append(out.Results, model.ClassificationResult{
				ContentID:   item.ID,
				ArchetypeID: best.archetype.ID,
				Confidence:  conf,
			})

		case best.score > c.Config.CandidateThreshold:
			conf.Score = common.Clamp01(conf.Score + c.Config.CandidateBoost)
			name := suggestName(item)
			out.Results = append(out.Results, model.ClassificationResult{
				ContentID:              item.ID,
				ArchetypeID:            model.NoArchetype,
				Confidence:             conf,
				IsNewArchetype:         true,
				SuggestedArchetypeName: name,
			})
			if at, ok := proposals[name]; ok {
				p := &out.NewArchetypeProposals[at]
				p.ExampleContentIDs = append(p.ExampleContentIDs, item.ID)
				continue
			}
			proposals[name] = len(out.NewArchetypeProposals)
			out.NewArchetypeProposals = append(out.NewArchetypeProposals, c.proposal(item, name, conf.Score))

		default:
			out.Unclassified = append(out.Unclassified, model.ClassificationResult{
				ContentID:   item.ID,
				ArchetypeID: model.NoArchetype,
				Confidence:  conf,
			})
		}
	}

	c.Logger.WithFields(logrus.Fields{
		"items":        len(items),
		"archetypes":   len(archetypes),
		"results":      len(out.Results),
		"unclassified": len(out.Unclassified),
		"proposals":    len(out.NewArchetypeProposals),
	}).Debug("classification finished")

	return out, nil
}

// Score is the combined confidence of item against one archetype.
func (c *Classifier) Score(item model.ContentItem, itemVector, archetypeVector []float32, archetype model.Archetype) float64 {
	s, _, _, _ := c.score(item, itemVector, archetypeVector, archetype)
	return s
}

func (c *Classifier) score(item model.ContentItem, itemVector, archetypeVector []float32, archetype model.Archetype) (total, vec, kw, ht float64) {
	w := c.Config.Weights
	vec = vector.Cosine(itemVector, archetypeVector)
	kw = keywordOverlap(item, archetype.Keywords)
	ht = hashtagOverlap(item, archetype.Keywords)
	total = common.Clamp01(w.Vector*vec + w.Keyword*kw + w.Hashtag*ht)
	return total, vec, kw, ht
}

// bestMatch keeps the first archetype on ties.
func (c *Classifier) bestMatch(item model.ContentItem, itemVector []float32, archetypes []model.Archetype, archVectors [][]float32) match {
	var best match
	for i := range archetypes {
		total, vec, kw, ht := c.score(item, itemVector, archVectors[i], archetypes[i])
		if best.archetype == nil || total > best.score {
			best = match{archetype: &archetypes[i], score: total, vector: vec, keyword: kw, hashtag: ht}
		}
	}
	return best
}

func (c *Classifier) archetypeVectors(ctx context.Context, archetypes []model.Archetype) ([][]float32, error) {
	if len(archetypes) == 0 {
		return nil, nil
	}
	texts := make([]string, len(archetypes))
	for i, a := range archetypes {
		texts[i] = a.EmbeddingText()
	}
	vectors, err := c.Embedder.EmbedTexts(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("failed to embed archetypes: %w", err)
	}
	if len(vectors) != len(archetypes) {
		return nil, common.NewDataError("", "expected %d archetype embeddings, got %d", len(archetypes), len(vectors))
	}
	return vectors, nil
}

func (c *Classifier) proposal(item model.ContentItem, name string, confidence float64) model.EmergingArchetype {
	detected := item.Timestamp
	if detected.IsZero() {
		detected = c.Now()
	}
	return model.EmergingArchetype{
		SuggestedLabel:       name,
		SuggestedDescription: fmt.Sprintf("Content that does not fit existing archetypes, led by %q.", name),
		KeywordCandidates:    candidateKeywords(item),
		ExampleContentIDs:    []string{item.ID},
		Confidence:           confidence,
		FirstDetected:        detected,
	}
}
