package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
)

// AnthropicGenerator calls the Anthropic Messages API.
type AnthropicGenerator struct {
	client *anthropic.Client
	model  string
}

// AnthropicConfig configures an AnthropicGenerator.
type AnthropicConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

func NewAnthropicGenerator(cfg AnthropicConfig) (*AnthropicGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-haiku-latest"
	}

	var opts []anthropic.ClientOption
	if cfg.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(cfg.BaseURL))
	}

	return &AnthropicGenerator{
		client: anthropic.NewClient(cfg.APIKey, opts...),
		model:  cfg.Model,
	}, nil
}

func (g *AnthropicGenerator) Name() string {
	return "anthropic"
}

func (g *AnthropicGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	instruction, content := splitParts(req.Parts)

	maxTokens := req.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}

	msgReq := anthropic.MessagesRequest{
		Model:       anthropic.Model(g.model),
		System:      instruction,
		Messages:    []anthropic.Message{anthropic.NewUserTextMessage(strings.Join(content, "\n\n"))},
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	}

	resp, err := g.client.CreateMessages(ctx, msgReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic API error: %w", err)
	}

	text := strings.TrimSpace(resp.GetFirstContentText())
	if text == "" {
		return nil, ErrEmptyCompletion
	}

	return &Response{
		Text: text,
		Usage: Usage{
			PromptTokens:    int64(resp.Usage.InputTokens),
			CandidateTokens: int64(resp.Usage.OutputTokens),
			TotalTokens:     int64(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}, nil
}
