package llm

import (
	"context"
	"fmt"

	"shop-assistant/internal/common/config"
)

// New builds the configured provider. It is called once at startup and the
// result is injected into every component that needs text generation.
func New(ctx context.Context, cfg config.LLMConfig) (Generator, error) {
	switch cfg.Provider {
	case "gemini", "":
		return NewGeminiGenerator(ctx, GeminiConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL})
	case "openai":
		return NewOpenAIGenerator(OpenAIConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL})
	case "anthropic":
		return NewAnthropicGenerator(AnthropicConfig{APIKey: cfg.APIKey, Model: cfg.Model, BaseURL: cfg.BaseURL})
	default:
		return nil, fmt.Errorf("unsupported llm provider %q", cfg.Provider)
	}
}
