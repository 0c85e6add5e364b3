package embedding

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/failsafe-go/failsafe-go"
	"github.com/failsafe-go/failsafe-go/retrypolicy"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/agenthands/archetypes/internal/config"
	"github.com/agenthands/archetypes/internal/core/common"
	"github.com/agenthands/archetypes/internal/core/model"
	"github.com/agenthands/archetypes/internal/llm"
	"github.com/agenthands/archetypes/internal/metrics"
)

const (
	DefaultBatchSize   = 100
	DefaultConcurrency = 4
)

// Generator turns content into embeddings through an EmbedderClient.
// Batches run in parallel and are retried individually; a batch either
// succeeds completely or fails the call.
type Generator struct {
	Embedder    llm.EmbedderClient
	Provider    string
	Dimension   int
	BatchSize   int
	Concurrency int
	MaxRetries  int
	BaseDelay   time.Duration
	MaxDelay    time.Duration

	// Cache is optional and only consulted for ad-hoc texts.
	Cache    Cache
	CacheTTL time.Duration

	Logger logrus.FieldLogger
	Now    func() time.Time
}

func NewGenerator(embedder llm.EmbedderClient, provider string, cfg config.EmbeddingConfig, logger logrus.FieldLogger) (*Generator, error) {
	if embedder == nil {
		return nil, common.NewConfigurationError("embedding.provider", "no embedding provider configured")
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	g := &Generator{
		Embedder:    embedder,
		Provider:    provider,
		Dimension:   cfg.Dimension,
		BatchSize:   cfg.BatchSize,
		Concurrency: cfg.Concurrency,
		MaxRetries:  cfg.MaxRetries,
		BaseDelay:   200 * time.Millisecond,
		MaxDelay:    5 * time.Second,
		CacheTTL:    config.ParseDuration(cfg.CacheTTL, 7*24*time.Hour),
		Logger:      logger,
		Now:         time.Now,
	}
	if g.BatchSize <= 0 {
		g.BatchSize = DefaultBatchSize
	}
	if g.Concurrency <= 0 {
		g.Concurrency = DefaultConcurrency
	}
	return g, nil
}

// Embed returns one embedding per item, in item order.
func (g *Generator) Embed(ctx context.Context, items []model.ContentItem) ([]model.Embedding, error) {
	if len(items) == 0 {
		return []model.Embedding{}, nil
	}

	texts := make([]string, len(items))
	ids := make([]string, len(items))
	for i, item := range items {
		texts[i] = item.EmbeddingText()
		ids[i] = item.ID
	}

	vectors, err := g.embedAll(ctx, texts, ids)
	if err != nil {
		return nil, err
	}

	now := g.Now()
	embeddings := make([]model.Embedding, len(items))
	for i, v := range vectors {
		embeddings[i] = model.Embedding{
			ContentID:   ids[i],
			Vector:      v,
			ModelName:   g.Embedder.Model(),
			GeneratedAt: now,
		}
	}
	return embeddings, nil
}

// Close releases the cache when it holds a connection.
func (g *Generator) Close() error {
	if c, ok := g.Cache.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// EmbedText embeds a single ad-hoc string such as an archetype description.
func (g *Generator) EmbedText(ctx context.Context, text string) ([]float32, error) {
	vectors, err := g.EmbedTexts(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedTexts embeds ad-hoc strings, serving repeats from the cache when one is set.
func (g *Generator) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []int
	for i, t := range texts {
		if v, ok := g.cached(ctx, t); ok {
			out[i] = v
			continue
		}
		missing = append(missing, i)
	}
	if len(missing) == 0 {
		return out, g.validate(out, make([]string, len(out)))
	}

	pending := make([]string, len(missing))
	for j, i := range missing {
		pending[j] = texts[i]
	}
	vectors, err := g.embedAll(ctx, pending, make([]string, len(pending)))
	if err != nil {
		return nil, err
	}
	for j, i := range missing {
		out[i] = vectors[j]
		g.store(ctx, texts[i], vectors[j])
	}
	// Cached and fresh vectors must agree on dimension.
	return out, g.validate(out, make([]string, len(out)))
}

func (g *Generator) embedAll(ctx context.Context, texts, ids []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(g.Concurrency)
	for start, batch := 0, 0; start < len(texts); start, batch = start+g.BatchSize, batch+1 {
		end := min(start+g.BatchSize, len(texts))
		eg.Go(func() error {
			got, err := g.embedBatch(egCtx, batch, texts[start:end])
			metrics.RecordEmbeddingBatch(err)
			if err != nil {
				return err
			}
			if len(got) != end-start {
				return common.NewDataError("", "batch %d: provider returned %d vectors for %d inputs", batch, len(got), end-start)
			}
			copy(vectors[start:end], got)
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	if err := g.validate(vectors, ids); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (g *Generator) embedBatch(ctx context.Context, batch int, texts []string) ([][]float32, error) {
	base, maxDelay := g.BaseDelay, g.MaxDelay
	if base <= 0 {
		base = time.Millisecond
	}
	if maxDelay <= base {
		maxDelay = 2 * base
	}
	policy := retrypolicy.NewBuilder[[][]float32]().
		WithMaxRetries(g.MaxRetries).
		WithBackoff(base, maxDelay).
		// A malformed response will not improve on retry.
		HandleIf(func(_ [][]float32, err error) bool {
			return err != nil && !common.IsDataError(err)
		}).
		OnRetry(func(e failsafe.ExecutionEvent[[][]float32]) {
			g.Logger.WithFields(logrus.Fields{
				"batch":   batch,
				"attempt": e.Attempts(),
			}).WithError(e.LastError()).Warn("retrying embedding batch")
		}).
		Build()

	vectors, err := failsafe.With[[][]float32](policy).WithContext(ctx).Get(func() ([][]float32, error) {
		return g.Embedder.Embed(ctx, texts)
	})
	if common.IsDataError(err) {
		return nil, err
	}
	if err != nil {
		return nil, &common.ProviderError{
			Provider:  g.Provider,
			Operation: "embed",
			Batch:     batch,
			Err:       fmt.Errorf("failed to embed %d texts: %w", len(texts), err),
		}
	}
	return vectors, nil
}

// validate enforces one dimension across the call. With no configured
// dimension the first vector decides it.
func (g *Generator) validate(vectors [][]float32, ids []string) error {
	dim := g.Dimension
	for i, v := range vectors {
		if len(v) == 0 {
			return common.NewDataError(ids[i], "empty vector at position %d", i)
		}
		if dim == 0 {
			dim = len(v)
		}
		if len(v) != dim {
			return common.NewDataError(ids[i], "vector length %d does not match dimension %d", len(v), dim)
		}
	}
	return nil
}

func (g *Generator) cached(ctx context.Context, text string) ([]float32, bool) {
	if g.Cache == nil {
		return nil, false
	}
	v, ok, err := g.Cache.Get(ctx, g.Embedder.Model(), text)
	if err != nil {
		g.Logger.WithError(err).Warn("embedding cache read failed")
		return nil, false
	}
	return v, ok
}

func (g *Generator) store(ctx context.Context, text string, v []float32) {
	if g.Cache == nil {
		return
	}
	if err := g.Cache.Set(ctx, g.Embedder.Model(), text, v, g.CacheTTL); err != nil {
		g.Logger.WithError(err).Warn("embedding cache write failed")
	}
}
