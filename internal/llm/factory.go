package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/agenthands/archetypes/internal/config"
	"github.com/agenthands/archetypes/internal/core/common"
)

// NewClient builds the text-generation collaborator. A missing API key for a
// hosted provider is a ConfigurationError; nothing is dialed here.
func NewClient(ctx context.Context, cfg config.LLMConfig) (LLMClient, error) {
	provider := strings.ToLower(cfg.Provider)
	defaults := GenerateOptions{MaxTokens: cfg.MaxTokens, Temperature: cfg.Temperature}
	timeout := config.ParseDuration(cfg.Timeout, 60*time.Second)

	switch provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, common.NewConfigurationError("llm.api_key", "required for provider openai")
		}
		return NewOpenAIClient(cfg.APIKey, cfg.Model, "", cfg.BaseURL, timeout, defaults), nil

	case "gemini":
		if cfg.APIKey == "" {
			return nil, common.NewConfigurationError("llm.api_key", "required for provider gemini")
		}
		return NewGeminiClient(ctx, cfg.APIKey, cfg.Model, "", defaults)

	case "claude", "anthropic":
		if cfg.APIKey == "" {
			return nil, common.NewConfigurationError("llm.api_key", "required for provider claude")
		}
		return NewClaudeClient(cfg.APIKey, cfg.Model, cfg.BaseURL, defaults), nil

	case "ollama":
		return newOllamaClient(cfg, "", timeout, defaults), nil

	default:
		return nil, common.NewConfigurationError("llm.provider", fmt.Sprintf("unsupported llm provider: %q", cfg.Provider))
	}
}

// NewEmbedder builds the embedding collaborator; cfg.Model is the embedding model.
func NewEmbedder(ctx context.Context, cfg config.LLMConfig) (EmbedderClient, error) {
	provider := strings.ToLower(cfg.Provider)
	timeout := config.ParseDuration(cfg.Timeout, 60*time.Second)

	switch provider {
	case "openai":
		if cfg.APIKey == "" {
			return nil, common.NewConfigurationError("embedding.api_key", "required for provider openai")
		}
		model := cfg.Model
		if model == "" {
			model = string(openaiDefaultEmbeddingModel)
		}
		return NewOpenAIClient(cfg.APIKey, "", model, cfg.BaseURL, timeout, GenerateOptions{}), nil

	case "gemini":
		if cfg.APIKey == "" {
			return nil, common.NewConfigurationError("embedding.api_key", "required for provider gemini")
		}
		return NewGeminiClient(ctx, cfg.APIKey, "", cfg.Model, GenerateOptions{})

	case "claude", "anthropic":
		return nil, common.NewConfigurationError("embedding.provider", "claude does not provide embeddings")

	case "ollama":
		return newOllamaClient(cfg, cfg.Model, timeout, GenerateOptions{}), nil

	default:
		return nil, common.NewConfigurationError("embedding.provider", fmt.Sprintf("unsupported embedding provider: %q", cfg.Provider))
	}
}

// Ollama goes through the OpenAI-compatible endpoint, which also batches embeddings.
func newOllamaClient(cfg config.LLMConfig, embeddingModel string, timeout time.Duration, defaults GenerateOptions) *OpenAIClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL = fmt.Sprintf("%s/v1", strings.TrimRight(baseURL, "/"))
	}

	logrus.WithField("base_url", baseURL).Debug("initializing ollama via OpenAI-compatible API")

	// Ollama ignores the key but the client requires one.
	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = "ollama"
	}

	return NewOpenAIClient(apiKey, cfg.Model, embeddingModel, baseURL, timeout, defaults)
}
