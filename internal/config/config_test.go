package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
[llm]
provider = "openai"
model = "gpt-4o-mini"

[embedding]
model = "text-embedding-3-small"
dimension = 1536
batch_size = 50

[clustering]
min_cluster_size = 8
seed = 42

[classification]
classify_threshold = 0.7

[identification.prompts]
similarity = "Rate %s against %s"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, 1536, cfg.Embedding.Dimension)
	assert.Equal(t, 50, cfg.Embedding.BatchSize)
	assert.Equal(t, 8, cfg.Clustering.MinClusterSize)
	assert.Equal(t, int64(42), cfg.Clustering.Seed)
	assert.Equal(t, "Rate %s against %s", cfg.Identification.Prompts.Similarity)

	// Untouched keys keep their defaults.
	assert.Equal(t, 20, cfg.Clustering.MaxClusters)
	assert.Equal(t, 0.3, cfg.Classification.CandidateThreshold)
	assert.Equal(t, 0.7, cfg.Classification.ClassifyThreshold)
	assert.Equal(t, 90, cfg.Influence.TimeWindowDays)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.toml")
	require.NoError(t, os.WriteFile(path, []byte("[llm\nprovider="), 0o600))

	_, err := Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse TOML")
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("LLM_API_KEY", "secret")
	t.Setenv("EMBEDDING_DIMENSION", "768")
	t.Setenv("REDIS_ADDR", "localhost:6379")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "secret", cfg.LLM.APIKey)
	assert.Equal(t, 768, cfg.Embedding.Dimension)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestEmbeddingLLM_FallsBackToLLM(t *testing.T) {
	cfg := Default()
	cfg.LLM.Provider = "openai"
	cfg.LLM.APIKey = "sk-test"

	emb := cfg.EmbeddingLLM()
	assert.Equal(t, "openai", emb.Provider)
	assert.Equal(t, "sk-test", emb.APIKey)
	assert.Equal(t, "nomic-embed-text", emb.Model)

	cfg.Embedding.Provider = "gemini"
	cfg.Embedding.APIKey = "g-key"
	emb = cfg.EmbeddingLLM()
	assert.Equal(t, "gemini", emb.Provider)
	assert.Equal(t, "g-key", emb.APIKey)
}

func TestValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.Embedding.BatchSize = 0
	cfg.Classification.CandidateThreshold = 0.8
	cfg.Influence.Strategy = "pagerank"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch_size")
	assert.Contains(t, err.Error(), "candidate_threshold")
	assert.Contains(t, err.Error(), "pagerank")
}

func TestParseDuration(t *testing.T) {
	assert.Equal(t, 30*time.Second, ParseDuration("30s", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("", time.Minute))
	assert.Equal(t, time.Minute, ParseDuration("soon", time.Minute))
}

func TestLoad_ShippedExample(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "config", "config.toml"))
	require.NoError(t, err)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, Default().Clustering, cfg.Clustering)
	assert.Equal(t, Default().Classification, cfg.Classification)
}
