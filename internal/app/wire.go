// Package app builds a ready-to-use pipeline from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/agenthands/archetypes/internal/config"
	"github.com/agenthands/archetypes/internal/core"
	"github.com/agenthands/archetypes/internal/core/embedding"
	"github.com/agenthands/archetypes/internal/driver"
	"github.com/agenthands/archetypes/internal/llm"
	"github.com/agenthands/archetypes/internal/store"
)

// LoadConfig reads path, falling back to defaults only when the file does
// not exist, then applies environment overrides and validates. A file that
// exists but cannot be read or parsed is an error.
func LoadConfig(path string, logger logrus.FieldLogger) (*config.Config, error) {
	cfg, err := config.Load(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		logger.WithField("path", path).Warn("config file not found, using default configuration")
		cfg = config.Default()
	case err != nil:
		return nil, err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// OpenGraphStore connects to Memgraph and prepares indices.
func OpenGraphStore(ctx context.Context, cfg config.MemgraphConfig, logger logrus.FieldLogger) (*store.GraphStore, error) {
	uri := cfg.URI
	if uri == "" {
		uri = "bolt://localhost:7687"
	}
	d, err := driver.NewMemgraphDriver(ctx, uri, cfg.User, cfg.Password, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to memgraph: %w", err)
	}
	st := store.NewGraphStore(d)
	if err := st.BuildIndices(ctx); err != nil {
		return nil, err
	}
	return st, nil
}

// NewPipeline wires providers, the optional Redis embedding cache and the
// orchestrator around st. Provider misconfiguration surfaces here as a
// ConfigurationError before any call is made. Callers Close the returned
// orchestrator to release the cache connection.
func NewPipeline(ctx context.Context, cfg *config.Config, st store.ContentStore, logger logrus.FieldLogger) (*core.Orchestrator, error) {
	llmClient, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM client: %w", err)
	}

	embedCfg := cfg.EmbeddingLLM()
	embedder, err := llm.NewEmbedder(ctx, embedCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	gen, err := embedding.NewGenerator(embedder, embedCfg.Provider, cfg.Embedding, logger)
	if err != nil {
		return nil, err
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			logger.WithError(err).WithField("addr", cfg.Redis.Addr).Warn("embedding cache disabled")
			_ = client.Close()
		} else {
			gen.Cache = embedding.NewRedisCache(client, cfg.Redis.Prefix)
		}
	}

	return core.NewOrchestrator(cfg, st, llmClient, gen, logger), nil
}
