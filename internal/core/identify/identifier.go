package identify

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/agenthands/archetypes/internal/config"
	"github.com/agenthands/archetypes/internal/core/common"
	"github.com/agenthands/archetypes/internal/core/model"
	"github.com/agenthands/archetypes/internal/llm"
	"github.com/agenthands/archetypes/internal/metrics"
)

const (
	// FallbackSimilarity is used when the similarity call fails or is unparsable.
	FallbackSimilarity = 0.5

	placeholderLabel       = "Emerging Archetype"
	placeholderDescription = "A new content pattern that has not been described yet."
	placeholderKeyword     = "emerging"
)

type Identifier struct {
	LLM                 llm.LLMClient
	MinClusterSize      int
	CohesionThreshold   float64
	SimilarityThreshold float64
	SampleSize          int
	Prompts             config.IdentificationPrompts
	Logger              logrus.FieldLogger
}

func NewIdentifier(llmClient llm.LLMClient, cfg config.IdentificationConfig, logger logrus.FieldLogger) *Identifier {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	prompts := cfg.Prompts
	if prompts.Similarity == "" {
		prompts.Similarity = DefaultSimilarityPrompt
	}
	if prompts.Label == "" {
		prompts.Label = DefaultLabelPrompt
	}
	sample := cfg.SampleSize
	if sample <= 0 {
		sample = 5
	}
	return &Identifier{
		LLM:                 llmClient,
		MinClusterSize:      cfg.MinClusterSize,
		CohesionThreshold:   cfg.CohesionThreshold,
		SimilarityThreshold: cfg.SimilarityThreshold,
		SampleSize:          sample,
		Prompts:             prompts,
		Logger:              logger,
	}
}

// Identify proposes archetypes for clusters that are large and coherent
// enough and unlike anything already known. LLM failures degrade to
// fallback values; they never fail the call.
func (i *Identifier) Identify(ctx context.Context, clusters []model.Cluster, contentByID map[string]model.ContentItem, existing []model.Archetype) []model.EmergingArchetype {
	var out []model.EmergingArchetype
	for _, cl := range clusters {
		if cl.Size() < i.MinClusterSize {
			continue
		}
		log := i.Logger.WithField("cluster_id", cl.ID)

		sample := i.sample(cl, contentByID)
		if len(existing) > 0 {
			if cl.Cohesion <= i.CohesionThreshold {
				log.WithField("cohesion", cl.Cohesion).Debug("cluster not cohesive enough")
				continue
			}
			if match, ok := i.matchExisting(ctx, log, sample, existing); ok {
				log.WithField("archetype_id", match).Debug("cluster matches existing archetype")
				continue
			}
		}

		label := i.labelOrPlaceholder(ctx, log, sample)
		out = append(out, model.EmergingArchetype{
			SuggestedLabel:       label.Label,
			SuggestedDescription: label.Description,
			KeywordCandidates:    label.Keywords,
			ExampleContentIDs:    sampleIDs(sample),
			Confidence:           common.Clamp01(cl.Cohesion),
			FirstDetected:        cl.CreatedAt,
		})
	}
	return out
}

// Similarity asks the LLM how well sample fits archetype.
func (i *Identifier) Similarity(ctx context.Context, sample []model.ContentItem, archetype model.Archetype) common.Result[float64] {
	prompt := fmt.Sprintf(i.Prompts.Similarity,
		archetype.Label,
		archetype.Description,
		strings.Join(archetype.Keywords, ", "),
		serializeSample(sample),
	)
	response, err := i.LLM.Generate(ctx, prompt, llm.WithMaxTokens(10))
	if err != nil {
		return common.Err[float64](fmt.Errorf("failed to generate similarity: %w", err))
	}
	score, err := common.ParseScore(response)
	if err != nil {
		return common.Err[float64](fmt.Errorf("failed to parse similarity: %w", err))
	}
	return common.Ok(score)
}

// Label asks the LLM to name the trend in sample.
func (i *Identifier) Label(ctx context.Context, sample []model.ContentItem) common.Result[model.ParsedLabel] {
	prompt := fmt.Sprintf(i.Prompts.Label, serializeSample(sample))
	response, err := i.LLM.Generate(ctx, prompt, llm.WithJSON())
	if err != nil {
		return common.Err[model.ParsedLabel](fmt.Errorf("failed to generate label: %w", err))
	}
	parsed, err := common.ParseJSON[model.ParsedLabel](response)
	if err != nil {
		return common.Err[model.ParsedLabel](fmt.Errorf("failed to parse label: %w", err))
	}
	parsed.Label = strings.TrimSpace(parsed.Label)
	parsed.Description = strings.TrimSpace(parsed.Description)
	parsed.Keywords = model.DedupeKeywords(parsed.Keywords)
	if !parsed.Valid() {
		return common.Err[model.ParsedLabel](fmt.Errorf("label response missing label or keywords: %q", response))
	}
	return common.Ok(parsed)
}

func (i *Identifier) matchExisting(ctx context.Context, log logrus.FieldLogger, sample []model.ContentItem, existing []model.Archetype) (string, bool) {
	for _, a := range existing {
		res := i.Similarity(ctx, sample, a)
		if !res.IsOk() {
			log.WithError(res.Error()).WithField("archetype_id", a.ID).Warn("similarity degraded to fallback")
			metrics.RecordDegraded("similarity")
		}
		if res.OrElse(FallbackSimilarity) >= i.SimilarityThreshold {
			return a.ID, true
		}
	}
	return "", false
}

func (i *Identifier) labelOrPlaceholder(ctx context.Context, log logrus.FieldLogger, sample []model.ContentItem) model.ParsedLabel {
	res := i.Label(ctx, sample)
	if res.IsOk() {
		parsed, _ := res.Unwrap()
		return parsed
	}
	log.WithError(res.Error()).Warn("label degraded to placeholder")
	metrics.RecordDegraded("label")
	return placeholder(sample)
}

func placeholder(sample []model.ContentItem) model.ParsedLabel {
	var tags []string
	for _, item := range sample {
		for _, h := range item.Hashtags {
			tags = append(tags, strings.TrimPrefix(h, "#"))
		}
	}
	keywords := model.DedupeKeywords(tags)
	if len(keywords) == 0 {
		keywords = []string{placeholderKeyword}
	}
	return model.ParsedLabel{
		Label:       placeholderLabel,
		Description: placeholderDescription,
		Keywords:    keywords,
	}
}

// sample returns up to SampleSize members, in member order, that have content.
func (i *Identifier) sample(cl model.Cluster, contentByID map[string]model.ContentItem) []model.ContentItem {
	out := make([]model.ContentItem, 0, i.SampleSize)
	for _, id := range cl.MemberIDs {
		if len(out) == i.SampleSize {
			break
		}
		if item, ok := contentByID[id]; ok {
			out = append(out, item)
		}
	}
	return out
}

func sampleIDs(sample []model.ContentItem) []string {
	ids := make([]string, len(sample))
	for i, item := range sample {
		ids[i] = item.ID
	}
	return ids
}

func serializeSample(sample []model.ContentItem) string {
	var b strings.Builder
	for _, item := range sample {
		fmt.Fprintf(&b, "- %s", item.RawContent())
		if len(item.Hashtags) > 0 {
			fmt.Fprintf(&b, " [%s]", strings.Join(item.Hashtags, " "))
		}
		b.WriteString("\n")
	}
	return b.String()
}
