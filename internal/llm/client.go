package llm

import (
	"context"
)

// LLMClient is the text-generation collaborator.
type LLMClient interface {
	Generate(ctx context.Context, prompt string, opts ...Option) (string, error)
}

// EmbedderClient turns texts into vectors. Implementations must return
// exactly one vector per input, in input order.
type EmbedderClient interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Model() string
}

type GenerateOptions struct {
	MaxTokens   int
	Temperature float32
	// JSON asks the provider for a JSON object when it supports a response format.
	JSON bool
}

type Option func(*GenerateOptions)

func WithMaxTokens(n int) Option {
	return func(o *GenerateOptions) { o.MaxTokens = n }
}

func WithTemperature(t float32) Option {
	return func(o *GenerateOptions) { o.Temperature = t }
}

func WithJSON() Option {
	return func(o *GenerateOptions) { o.JSON = true }
}

func applyOptions(defaults GenerateOptions, opts []Option) GenerateOptions {
	out := defaults
	for _, opt := range opts {
		opt(&out)
	}
	return out
}
