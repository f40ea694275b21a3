// Package llm wraps text-completion providers behind a single Generator interface.
package llm

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/common/metrics"
	"shop-assistant/internal/common/observability"
)

var (
	ErrEmptyRequest    = errors.New("EMPTY_GENERATION_REQUEST")
	ErrEmptyCompletion = errors.New("EMPTY_COMPLETION")
)

// Generator is a text-completion capability.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	Name() string
}

// Request is an ordered list of text parts. By convention the first part is
// the instruction and the rest is user content.
type Request struct {
	Parts           []string
	Temperature     *float32
	MaxOutputTokens int
}

// Response carries generated text and usage metadata.
type Response struct {
	Text  string
	Usage Usage
}

// Usage is informational only and never drives control flow.
type Usage struct {
	PromptTokens    int64 `json:"promptTokens"`
	CandidateTokens int64 `json:"candidateTokens"`
	TotalTokens     int64 `json:"totalTokens"`
}

// Float32 returns a pointer to v.
func Float32(v float32) *float32 {
	return &v
}

// splitParts separates the instruction from the user content.
func splitParts(parts []string) (string, []string) {
	if len(parts) < 2 {
		return "", parts
	}
	return parts[0], parts[1:]
}

// ObservedGenerator decorates a Generator with logging, metrics and tracing.
type ObservedGenerator struct {
	next   Generator
	obs    *observability.Observability
	logger logger.Logger
}

func NewObservedGenerator(next Generator, obs *observability.Observability, log logger.Logger) *ObservedGenerator {
	return &ObservedGenerator{
		next:   next,
		obs:    obs,
		logger: log.With(map[string]interface{}{"provider": next.Name()}),
	}
}

func (g *ObservedGenerator) Name() string {
	return g.next.Name()
}

func (g *ObservedGenerator) Generate(ctx context.Context, req Request) (*Response, error) {
	if len(req.Parts) == 0 {
		return nil, ErrEmptyRequest
	}

	ctx, span := observability.StartSpan(ctx, "llm.generate",
		attribute.String("llm.provider", g.next.Name()),
		attribute.Int("llm.parts", len(req.Parts)),
	)
	start := time.Now()

	resp, err := g.next.Generate(ctx, req)
	metrics.StageDuration.WithLabelValues("generate").Observe(time.Since(start).Seconds())
	if err != nil {
		observability.EndSpan(span, err)
		g.logger.Error("generation failed", map[string]interface{}{
			"error":      err.Error(),
			"durationMs": time.Since(start).Milliseconds(),
		})
		return nil, err
	}
	span.SetAttributes(
		attribute.Int64("llm.tokens.prompt", resp.Usage.PromptTokens),
		attribute.Int64("llm.tokens.candidate", resp.Usage.CandidateTokens),
	)
	observability.EndSpan(span, nil)

	metrics.LLMTokens.WithLabelValues(g.next.Name(), "prompt").Add(float64(resp.Usage.PromptTokens))
	metrics.LLMTokens.WithLabelValues(g.next.Name(), "candidate").Add(float64(resp.Usage.CandidateTokens))
	if g.obs != nil {
		g.obs.RecordTokenUsage(ctx, g.next.Name(), resp.Usage.PromptTokens, resp.Usage.CandidateTokens)
	}

	g.logger.Debug("generation completed", map[string]interface{}{
		"promptTokens":    resp.Usage.PromptTokens,
		"candidateTokens": resp.Usage.CandidateTokens,
		"totalTokens":     resp.Usage.TotalTokens,
		"durationMs":      time.Since(start).Milliseconds(),
	})
	return resp, nil
}
