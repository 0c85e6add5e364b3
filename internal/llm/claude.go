package llm

import (
	"context"
	"fmt"

	"github.com/liushuangls/go-anthropic/v2"
)

// ClaudeClient only generates text; Anthropic has no embeddings endpoint.
type ClaudeClient struct {
	client   *anthropic.Client
	model    string
	defaults GenerateOptions
}

func NewClaudeClient(apiKey, model, baseURL string, defaults GenerateOptions) *ClaudeClient {
	var opts []anthropic.ClientOption
	if baseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(baseURL))
	}

	return &ClaudeClient{
		client:   anthropic.NewClient(apiKey, opts...),
		model:    model,
		defaults: defaults,
	}
}

func (c *ClaudeClient) Generate(ctx context.Context, prompt string, opts ...Option) (string, error) {
	o := applyOptions(c.defaults, opts)
	maxTokens := o.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}

	req := anthropic.MessagesRequest{
		Model: anthropic.Model(c.model),
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(prompt),
				},
			},
		},
		MaxTokens: maxTokens,
	}
	if o.Temperature > 0 {
		t := o.Temperature
		req.Temperature = &t
	}
	if o.JSON {
		req.System = "Respond with a single JSON object and nothing else."
	}

	resp, err := c.client.CreateMessages(ctx, req)
	if err != nil {
		return "", err
	}

	if len(resp.Content) > 0 && resp.Content[0].Text != nil {
		return *resp.Content[0].Text, nil
	}
	return "", fmt.Errorf("no response content")
}
