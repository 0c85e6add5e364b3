package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model"`
	APIKey      string  `toml:"api_key"`
	BaseURL     string  `toml:"base_url"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float32 `toml:"temperature"`
	Timeout     string  `toml:"timeout"`
}

// EmbeddingConfig falls back to the [llm] provider, key and base URL when unset.
type EmbeddingConfig struct {
	Provider    string `toml:"provider"`
	Model       string `toml:"model"`
	APIKey      string `toml:"api_key"`
	BaseURL     string `toml:"base_url"`
	Dimension   int    `toml:"dimension"`
	BatchSize   int    `toml:"batch_size"`
	Concurrency int    `toml:"concurrency"`
	MaxRetries  int    `toml:"max_retries"`
	CacheTTL    string `toml:"cache_ttl"`
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
	Prefix   string `toml:"prefix"`
}

type ClusteringConfig struct {
	MinClusterSize int     `toml:"min_cluster_size"`
	MaxClusters    int     `toml:"max_clusters"`
	Iterations     int     `toml:"iterations"`
	MergeThreshold float64 `toml:"merge_threshold"`
	// Seed fixes the K-means random source; 0 draws from system entropy.
	Seed int64 `toml:"seed"`
}

type IdentificationPrompts struct {
	Similarity string `toml:"similarity"`
	Label      string `toml:"label"`
}

type IdentificationConfig struct {
	MinClusterSize      int                   `toml:"min_cluster_size"`
	CohesionThreshold   float64               `toml:"cohesion_threshold"`
	SimilarityThreshold float64               `toml:"similarity_threshold"`
	SampleSize          int                   `toml:"sample_size"`
	Prompts             IdentificationPrompts `toml:"prompts"`
}

type ScoreWeights struct {
	Vector  float64 `toml:"vector"`
	Keyword float64 `toml:"keyword"`
	Hashtag float64 `toml:"hashtag"`
}

type ClassificationConfig struct {
	Weights            ScoreWeights `toml:"weights"`
	ClassifyThreshold  float64      `toml:"classify_threshold"`
	CandidateThreshold float64      `toml:"candidate_threshold"`
	CandidateBoost     float64      `toml:"candidate_boost"`
}

type StrategyWeights struct {
	Engagement float64 `toml:"engagement"`
	Spread     float64 `toml:"spread"`
	Growth     float64 `toml:"growth"`
}

type InfluenceConfig struct {
	Strategy       string          `toml:"strategy"`
	TimeWindowDays int             `toml:"time_window_days"`
	Weights        StrategyWeights `toml:"weights"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type ServerConfig struct {
	Port string `toml:"port"`
}

type Config struct {
	LLM            LLMConfig            `toml:"llm"`
	Embedding      EmbeddingConfig      `toml:"embedding"`
	Memgraph       MemgraphConfig       `toml:"memgraph"`
	Redis          RedisConfig          `toml:"redis"`
	Clustering     ClusteringConfig     `toml:"clustering"`
	Identification IdentificationConfig `toml:"identification"`
	Classification ClassificationConfig `toml:"classification"`
	Influence      InfluenceConfig      `toml:"influence"`
	Log            LogConfig            `toml:"log"`
	Server         ServerConfig         `toml:"server"`
}

// Default returns the tuning constants the pipeline ships with.
func Default() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:  "ollama",
			Model:     "gpt-oss:latest",
			BaseURL:   "http://localhost:11434",
			MaxTokens: 1000,
			Timeout:   "60s",
		},
		Embedding: EmbeddingConfig{
			Model:       "nomic-embed-text",
			BatchSize:   100,
			Concurrency: 4,
			MaxRetries:  2,
			CacheTTL:    "168h",
		},
		Redis: RedisConfig{
			Prefix: "archetypes:emb:",
		},
		Clustering: ClusteringConfig{
			MinClusterSize: 5,
			MaxClusters:    20,
			Iterations:     100,
			MergeThreshold: 0.95,
		},
		Identification: IdentificationConfig{
			MinClusterSize:      10,
			CohesionThreshold:   0.7,
			SimilarityThreshold: 0.85,
			SampleSize:          5,
		},
		Classification: ClassificationConfig{
			Weights:            ScoreWeights{Vector: 0.6, Keyword: 0.2, Hashtag: 0.2},
			ClassifyThreshold:  0.6,
			CandidateThreshold: 0.3,
			CandidateBoost:     0.1,
		},
		Influence: InfluenceConfig{
			Strategy:       "hybrid",
			TimeWindowDays: 90,
			Weights:        StrategyWeights{Engagement: 0.4, Spread: 0.3, Growth: 0.3},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Server: ServerConfig{
			Port: "8080",
		},
	}
}

// Load reads a TOML file on top of Default, so a file only needs the keys it overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides file values with environment variables when present.
func (c *Config) ApplyEnv() {
	setString(&c.LLM.Provider, "LLM_PROVIDER")
	setString(&c.LLM.Model, "LLM_MODEL")
	setString(&c.LLM.APIKey, "LLM_API_KEY")
	setString(&c.LLM.BaseURL, "LLM_BASE_URL")

	setString(&c.Embedding.Provider, "EMBEDDING_PROVIDER")
	setString(&c.Embedding.Model, "EMBEDDING_MODEL")
	setString(&c.Embedding.APIKey, "EMBEDDING_API_KEY")
	setString(&c.Embedding.BaseURL, "EMBEDDING_BASE_URL")
	setInt(&c.Embedding.Dimension, "EMBEDDING_DIMENSION")

	setString(&c.Memgraph.URI, "MEMGRAPH_URI")
	setString(&c.Memgraph.User, "MEMGRAPH_USER")
	setString(&c.Memgraph.Password, "MEMGRAPH_PASSWORD")

	setString(&c.Redis.Addr, "REDIS_ADDR")
	setString(&c.Redis.Password, "REDIS_PASSWORD")

	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Server.Port, "PORT")
}

// EmbeddingLLM resolves the provider settings used for embeddings.
func (c *Config) EmbeddingLLM() LLMConfig {
	out := LLMConfig{
		Provider: c.Embedding.Provider,
		Model:    c.Embedding.Model,
		APIKey:   c.Embedding.APIKey,
		BaseURL:  c.Embedding.BaseURL,
		Timeout:  c.LLM.Timeout,
	}
	if out.Provider == "" {
		out.Provider = c.LLM.Provider
		if out.APIKey == "" {
			out.APIKey = c.LLM.APIKey
		}
		if out.BaseURL == "" {
			out.BaseURL = c.LLM.BaseURL
		}
	}
	return out
}

// Validate rejects values that would make the pipeline misbehave silently.
func (c *Config) Validate() error {
	var problems []string
	if c.Embedding.BatchSize <= 0 {
		problems = append(problems, "embedding.batch_size must be positive")
	}
	if c.Embedding.Dimension < 0 {
		problems = append(problems, "embedding.dimension must not be negative")
	}
	if c.Clustering.MinClusterSize < 1 {
		problems = append(problems, "clustering.min_cluster_size must be at least 1")
	}
	if c.Clustering.MaxClusters < 1 {
		problems = append(problems, "clustering.max_clusters must be at least 1")
	}
	if c.Clustering.Iterations < 1 {
		problems = append(problems, "clustering.iterations must be at least 1")
	}
	if c.Classification.CandidateThreshold >= c.Classification.ClassifyThreshold {
		problems = append(problems, "classification.candidate_threshold must be below classify_threshold")
	}
	if c.Influence.TimeWindowDays <= 0 {
		problems = append(problems, "influence.time_window_days must be positive")
	}
	switch strings.ToLower(c.Influence.Strategy) {
	case "engagement", "spread", "growth", "hybrid", "":
	default:
		problems = append(problems, fmt.Sprintf("influence.strategy %q is not supported", c.Influence.Strategy))
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}

// ParseDuration parses s, returning fallback for empty or malformed values.
func ParseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}
