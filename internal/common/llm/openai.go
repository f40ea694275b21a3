package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// OpenAIGenerator calls any OpenAI-compatible chat completion API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// OpenAIConfig configures an OpenAIGenerator.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
}

func NewOpenAIGenerator(cfg OpenAIConfig) (*OpenAIGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = openai.GPT4oMini
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &OpenAIGenerator{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
	}, nil
}

func (g *OpenAIGenerator) Name() string {
	return "openai"
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	instruction, content := splitParts(req.Parts)

	messages := make([]openai.ChatCompletionMessage, 0, 2)
	if instruction != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: instruction,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: strings.Join(content, "\n\n"),
	})

	chatReq := openai.ChatCompletionRequest{
		Model:     g.model,
		Messages:  messages,
		MaxTokens: req.MaxOutputTokens,
	}
	if req.Temperature != nil {
		chatReq.Temperature = *req.Temperature
	}

	resp, err := g.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("openai API error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyCompletion
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	if text == "" {
		return nil, ErrEmptyCompletion
	}

	return &Response{
		Text: text,
		Usage: Usage{
			PromptTokens:    int64(resp.Usage.PromptTokens),
			CandidateTokens: int64(resp.Usage.CompletionTokens),
			TotalTokens:     int64(resp.Usage.TotalTokens),
		},
	}, nil
}
