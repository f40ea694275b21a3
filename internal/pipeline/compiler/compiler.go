// Package compiler turns prompts into generated query or reply text.
package compiler

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "shop-assistant/internal/common/errors"
	"shop-assistant/internal/common/llm"
	"shop-assistant/internal/common/logger"
	"shop-assistant/internal/common/metrics"
	"shop-assistant/internal/common/observability"
	"shop-assistant/internal/models"
)

// Options holds generation parameters per template family.
type Options struct {
	QueryTemperature float32
	ChatTemperature  float32
	MaxOutputTokens  int
}

// Compiler embeds prompts in instruction templates and sends them through
// the shared generator. It performs no retries.
type Compiler struct {
	gen    llm.Generator
	opts   Options
	logger logger.Logger
}

func NewCompiler(gen llm.Generator, opts Options, log logger.Logger) *Compiler {
	return &Compiler{
		gen:    gen,
		opts:   opts,
		logger: log.WithFields(map[string]interface{}{"stage": "compile"}),
	}
}

// Compile returns unvalidated generated text for the given template. prior is
// the stored result and is only used by the contextual template.
func (c *Compiler) Compile(ctx context.Context, kind models.TemplateKind, rawText string, prior *models.RawResult) (models.CompiledQuery, error) {
	ctx, span := observability.StartSpan(ctx, "pipeline.compile", attribute.String("template", string(kind)))
	start := time.Now()
	defer func() {
		metrics.StageDuration.WithLabelValues("compile").Observe(time.Since(start).Seconds())
	}()

	if kind == models.TemplateContextual && asksMissingDescription(rawText, prior) {
		observability.EndSpan(span, nil)
		c.logger.Debug("description missing from prior result, using fallback", nil)
		return models.CompiledQuery{TemplateKind: kind, Text: MissingDescriptionReply, Validated: true}, nil
	}

	parts, err := c.parts(kind, rawText, prior)
	if err != nil {
		observability.EndSpan(span, err)
		return models.CompiledQuery{}, err
	}

	resp, err := c.gen.Generate(ctx, llm.Request{
		Parts:           parts,
		Temperature:     llm.Float32(c.temperature(kind)),
		MaxOutputTokens: c.opts.MaxOutputTokens,
	})
	if err != nil {
		observability.EndSpan(span, err)
		return models.CompiledQuery{}, apperrors.NewLLMGenerationError(err)
	}
	observability.EndSpan(span, nil)

	c.logger.Debug("text generated", map[string]interface{}{
		"template":   string(kind),
		"chars":      len(resp.Text),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return models.CompiledQuery{TemplateKind: kind, Text: resp.Text}, nil
}

func (c *Compiler) parts(kind models.TemplateKind, rawText string, prior *models.RawResult) ([]string, error) {
	switch kind {
	case models.TemplateCommerceQuery:
		return []string{commerceInstruction, rawText}, nil
	case models.TemplateStoreQuery:
		return []string{storeInstruction, rawText}, nil
	case models.TemplateCouponCampaign:
		return []string{couponInstruction, rawText}, nil
	case models.TemplateGeneralChat:
		return []string{chatInstruction, rawText}, nil
	case models.TemplateContextual:
		serialized, err := json.Marshal(prior.Items())
		if err != nil {
			return nil, apperrors.NewInternalError(fmt.Errorf("serialize prior result: %w", err))
		}
		return []string{
			contextualInstruction,
			"Previous result:\n" + string(serialized),
			"User: " + rawText,
		}, nil
	}
	return nil, apperrors.NewInternalError(fmt.Errorf("unknown template %q", kind))
}

func (c *Compiler) temperature(kind models.TemplateKind) float32 {
	if kind == models.TemplateGeneralChat || kind == models.TemplateContextual {
		return c.opts.ChatTemperature
	}
	return c.opts.QueryTemperature
}

// asksMissingDescription reports whether the prompt asks about descriptions
// while no stored product carries one.
func asksMissingDescription(rawText string, prior *models.RawResult) bool {
	if !strings.Contains(strings.ToLower(rawText), "description") {
		return false
	}
	for _, item := range prior.Items() {
		switch v := item.(type) {
		case models.Product:
			if v.Description != "" && v.Description != "No description available" {
				return false
			}
		case models.Record:
			if d, ok := v["description"].(string); ok && d != "" {
				return false
			}
		}
	}
	return true
}
