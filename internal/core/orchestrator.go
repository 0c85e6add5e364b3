package core

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/agenthands/archetypes/internal/config"
	"github.com/agenthands/archetypes/internal/core/classify"
	"github.com/agenthands/archetypes/internal/core/cluster"
	"github.com/agenthands/archetypes/internal/core/identify"
	"github.com/agenthands/archetypes/internal/core/influence"
	"github.com/agenthands/archetypes/internal/core/model"
	"github.com/agenthands/archetypes/internal/llm"
	"github.com/agenthands/archetypes/internal/metrics"
	"github.com/agenthands/archetypes/internal/store"
)

// Palette colors are assigned to promoted archetypes by label hash.
var Palette = []string{
	"#E6194B", "#3CB44B", "#FFE119", "#4363D8", "#F58231", "#911EB4",
	"#46F0F0", "#F032E6", "#BCF60C", "#FABEBE", "#008080", "#E6BEFF",
}

// Orchestrator wires the pipeline stages for one batch at a time. It holds
// no per-batch state, so a single instance serves concurrent callers.
type Orchestrator struct {
	Store      store.ContentStore
	Embeddings classify.Embedder
	Clusterer  *cluster.Clusterer
	Identifier *identify.Identifier
	Classifier *classify.Classifier
	Scorer     *influence.Scorer
	Logger     logrus.FieldLogger
	NewID      func() string
	Now        func() time.Time
}

func NewOrchestrator(cfg *config.Config, st store.ContentStore, llmClient llm.LLMClient, embeddings classify.Embedder, logger logrus.FieldLogger) *Orchestrator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Orchestrator{
		Store:      st,
		Embeddings: embeddings,
		Clusterer:  cluster.NewClusterer(cluster.ConfigFrom(cfg.Clustering), cluster.SourceFromSeed(cfg.Clustering.Seed), logger),
		Identifier: identify.NewIdentifier(llmClient, cfg.Identification, logger),
		Classifier: classify.NewClassifier(embeddings, cfg.Classification, logger),
		Scorer:     influence.NewScorer(st, cfg.Influence, logger),
		Logger:     logger,
		NewID:      func() string { return uuid.New().String() },
		Now:        time.Now,
	}
}

// Close releases resources held by the embedder, such as the Redis cache.
// The store is owned by the caller and stays open.
func (o *Orchestrator) Close() error {
	if c, ok := o.Embeddings.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// ProcessContent classifies items against the stored archetypes. With no
// archetypes yet, it looks for emerging ones instead and leaves every item
// unclassified.
func (o *Orchestrator) ProcessContent(ctx context.Context, items []model.ContentItem) (report *model.BatchReport, err error) {
	defer func() { metrics.RecordBatch("process", err) }()

	report = o.newReport()
	log := o.Logger.WithField("batch_id", report.BatchID)
	o.transition(log, report, model.StageReceived)

	archetypes, err := o.Store.ListArchetypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list archetypes: %w", err)
	}

	embeddings, err := o.embed(ctx, log, report, items)
	if err != nil {
		return nil, err
	}

	if len(archetypes) == 0 {
		proposals, err := o.identify(ctx, log, report, items, embeddings, nil)
		if err != nil {
			return nil, err
		}
		report.Proposals = proposals
		for _, item := range items {
			report.Unclassified = append(report.Unclassified, model.ClassificationResult{
				ContentID:   item.ID,
				ArchetypeID: model.NoArchetype,
			})
		}
	} else {
		start := time.Now()
		out, err := o.Classifier.ClassifyEmbedded(ctx, items, embeddings, archetypes)
		if err != nil {
			return nil, fmt.Errorf("failed to classify batch: %w", err)
		}
		metrics.ObserveStage(string(model.StageClassified), start)
		o.transition(log, report, model.StageClassified)

		report.Results = out.Results
		report.Unclassified = out.Unclassified
		report.Proposals = out.NewArchetypeProposals
	}

	o.finish(log, report)
	return report, nil
}

// IdentifyEmergingArchetypes embeds and clusters items and proposes
// archetypes for clusters unlike the stored ones.
func (o *Orchestrator) IdentifyEmergingArchetypes(ctx context.Context, items []model.ContentItem) (proposals []model.EmergingArchetype, err error) {
	defer func() { metrics.RecordBatch("identify", err) }()

	report := o.newReport()
	log := o.Logger.WithField("batch_id", report.BatchID)
	o.transition(log, report, model.StageReceived)

	existing, err := o.Store.ListArchetypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list archetypes: %w", err)
	}

	embeddings, err := o.embed(ctx, log, report, items)
	if err != nil {
		return nil, err
	}
	proposals, err = o.identify(ctx, log, report, items, embeddings, existing)
	if err != nil {
		return nil, err
	}
	o.finish(log, report)
	return proposals, nil
}

// UpdateInfluenceScores rescores every stored archetype and writes the
// scores back. A failed write does not stop the remaining archetypes.
func (o *Orchestrator) UpdateInfluenceScores(ctx context.Context) (scores map[string]float64, err error) {
	defer func() { metrics.RecordBatch("influence", err) }()

	archetypes, err := o.Store.ListArchetypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list archetypes: %w", err)
	}

	byID := make(map[string]model.Archetype, len(archetypes))
	for _, a := range archetypes {
		byID[a.ID] = a
	}

	scores = make(map[string]float64, len(archetypes))
	var errs []error
	for _, a := range archetypes {
		var related []model.Archetype
		for _, id := range a.Relationships {
			if r, ok := byID[id]; ok && id != a.ID {
				related = append(related, r)
			}
		}
		score := o.Scorer.ScoreArchetype(ctx, a, related)
		scores[a.ID] = score
		if err := o.Store.UpdateInfluenceScore(ctx, a.ID, score); err != nil {
			errs = append(errs, fmt.Errorf("failed to store influence for %s: %w", a.ID, err))
		}
	}

	o.Logger.WithField("archetypes", len(archetypes)).Info("influence scores updated")
	return scores, errors.Join(errs...)
}

// ScoreContent scores each item's contribution to an archetype.
func (o *Orchestrator) ScoreContent(archetypeID string, items []model.ContentItem, strategy influence.Strategy) map[string]float64 {
	return o.Scorer.ScoreContent(archetypeID, items, strategy)
}

// ApplyReport persists a report's classifications and promotes its
// proposals to archetypes.
func (o *Orchestrator) ApplyReport(ctx context.Context, items []model.ContentItem, report *model.BatchReport) ([]model.Archetype, error) {
	log := o.Logger.WithField("batch_id", report.BatchID)

	byID := make(map[string]model.ContentItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	for _, results := range [][]model.ClassificationResult{report.Results, report.Unclassified} {
		for _, r := range results {
			item, ok := byID[r.ContentID]
			if !ok {
				log.WithField("content_id", r.ContentID).Warn("result without matching item")
				continue
			}
			if err := o.Store.SaveClassification(ctx, item, r); err != nil {
				return nil, err
			}
		}
	}

	promoted := make([]model.Archetype, 0, len(report.Proposals))
	for _, p := range report.Proposals {
		a, ok := o.Promote(p)
		if !ok {
			log.WithField("label", p.SuggestedLabel).Warn("skipping proposal without label or keywords")
			continue
		}
		if err := o.Store.SaveProposal(ctx, a, p); err != nil {
			return nil, err
		}
		promoted = append(promoted, a)
	}

	log.WithFields(logrus.Fields{
		"results":  len(report.Results) + len(report.Unclassified),
		"promoted": len(promoted),
	}).Info("report applied")
	return promoted, nil
}

// Promote turns a proposal into an archetype. It refuses proposals with an
// empty label or no keywords.
func (o *Orchestrator) Promote(p model.EmergingArchetype) (model.Archetype, bool) {
	label := strings.TrimSpace(p.SuggestedLabel)
	keywords := model.DedupeKeywords(p.KeywordCandidates)
	if label == "" || len(keywords) == 0 {
		return model.Archetype{}, false
	}
	return model.Archetype{
		ID:          o.NewID(),
		Label:       label,
		Description: p.SuggestedDescription,
		Keywords:    keywords,
		Color:       PaletteColor(label),
	}, true
}

// PaletteColor maps a label to a stable palette entry.
func PaletteColor(label string) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(label))))
	return Palette[h.Sum32()%uint32(len(Palette))]
}

func (o *Orchestrator) embed(ctx context.Context, log logrus.FieldLogger, report *model.BatchReport, items []model.ContentItem) ([]model.Embedding, error) {
	start := time.Now()
	embeddings, err := o.Embeddings.Embed(ctx, items)
	if err != nil {
		log.WithError(err).Error("embedding failed")
		return nil, fmt.Errorf("failed to embed batch: %w", err)
	}
	metrics.ObserveStage(string(model.StageEmbedded), start)
	o.transition(log, report, model.StageEmbedded)
	return embeddings, nil
}

func (o *Orchestrator) identify(ctx context.Context, log logrus.FieldLogger, report *model.BatchReport, items []model.ContentItem, embeddings []model.Embedding, existing []model.Archetype) ([]model.EmergingArchetype, error) {
	start := time.Now()
	clusters, err := o.Clusterer.Cluster(embeddings)
	if err != nil {
		return nil, fmt.Errorf("failed to cluster batch: %w", err)
	}
	metrics.ObserveStage(string(model.StageClustered), start)
	metrics.RecordClusters(len(clusters))
	o.transition(log, report, model.StageClustered)

	if len(clusters) == 0 {
		o.transition(log, report, model.StageIdentified)
		return []model.EmergingArchetype{}, nil
	}

	byID := make(map[string]model.ContentItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	start = time.Now()
	proposals := o.Identifier.Identify(ctx, clusters, byID, existing)
	if proposals == nil {
		proposals = []model.EmergingArchetype{}
	}
	metrics.ObserveStage(string(model.StageIdentified), start)
	o.transition(log, report, model.StageIdentified)
	return proposals, nil
}

func (o *Orchestrator) newReport() *model.BatchReport {
	return &model.BatchReport{
		BatchID:      o.NewID(),
		Results:      []model.ClassificationResult{},
		Unclassified: []model.ClassificationResult{},
		Proposals:    []model.EmergingArchetype{},
		StartedAt:    o.Now(),
	}
}

func (o *Orchestrator) transition(log logrus.FieldLogger, report *model.BatchReport, stage model.Stage) {
	report.Stage = stage
	report.Transitions = append(report.Transitions, model.StageTransition{Stage: stage, At: o.Now()})
	log.WithField("stage", stage).Debug("batch stage reached")
}

func (o *Orchestrator) finish(log logrus.FieldLogger, report *model.BatchReport) {
	o.transition(log, report, model.StageReported)
	report.FinishedAt = o.Now()
	log.WithFields(logrus.Fields{
		"results":      len(report.Results),
		"unclassified": len(report.Unclassified),
		"proposals":    len(report.Proposals),
		"duration":     report.FinishedAt.Sub(report.StartedAt).String(),
	}).Info("batch processed")
}
