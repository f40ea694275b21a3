package llm

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// GeminiGenerator calls the Gemini API through the genai SDK.
type GeminiGenerator struct {
	client *genai.Client
	model  string
}

// GeminiConfig configures a GeminiGenerator.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

func NewGeminiGenerator(ctx context.Context, cfg GeminiConfig) (*GeminiGenerator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	return &GeminiGenerator{client: client, model: cfg.Model}, nil
}

func (g *GeminiGenerator) Name() string {
	return "gemini"
}

// Generate sends every part as one user turn, matching a multi-part generateContent call.
func (g *GeminiGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	parts := make([]*genai.Part, 0, len(req.Parts))
	for _, p := range req.Parts {
		parts = append(parts, genai.NewPartFromText(p))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	genCfg := &genai.GenerateContentConfig{Temperature: req.Temperature}
	if req.MaxOutputTokens > 0 {
		genCfg.MaxOutputTokens = int32(req.MaxOutputTokens)
	}

	result, err := g.client.Models.GenerateContent(ctx, g.model, contents, genCfg)
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}

	text := strings.TrimSpace(result.Text())
	if text == "" {
		return nil, ErrEmptyCompletion
	}

	resp := &Response{Text: text}
	if u := result.UsageMetadata; u != nil {
		resp.Usage = Usage{
			PromptTokens:    int64(u.PromptTokenCount),
			CandidateTokens: int64(u.CandidatesTokenCount),
			TotalTokens:     int64(u.TotalTokenCount),
		}
	}
	return resp, nil
}
