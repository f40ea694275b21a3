package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records pipeline and token usage instruments through OpenTelemetry.
type Observability struct {
	meterProvider *metric.MeterProvider
	pipelineRuns  otelmetric.Int64Counter
	pipelineTime  otelmetric.Float64Histogram
	tokenUsage    otelmetric.Int64Counter
}

// Logger is the subset of the logging interface used during setup.
type Logger interface {
	Warn(msg string, fields map[string]interface{})
}

func New(serviceName string, log Logger) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Warn("failed to create prometheus exporter", map[string]interface{}{"error": err.Error()})
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	pipelineRuns, _ := meter.Int64Counter(
		"pipeline.runs",
		otelmetric.WithDescription("Number of prompt pipeline runs"),
	)
	pipelineTime, _ := meter.Float64Histogram(
		"pipeline.duration",
		otelmetric.WithDescription("Prompt pipeline duration"),
		otelmetric.WithUnit("ms"),
	)
	tokenUsage, _ := meter.Int64Counter(
		"llm.tokens",
		otelmetric.WithDescription("Tokens reported by the text-completion provider"),
	)

	return &Observability{
		meterProvider: provider,
		pipelineRuns:  pipelineRuns,
		pipelineTime:  pipelineTime,
		tokenUsage:    tokenUsage,
	}
}

// RecordPipelineRun counts one pipeline run and its duration.
func (o *Observability) RecordPipelineRun(ctx context.Context, intent, status string, duration time.Duration) {
	attrs := otelmetric.WithAttributes(
		attribute.String("intent", intent),
		attribute.String("status", status),
	)
	if o.pipelineRuns != nil {
		o.pipelineRuns.Add(ctx, 1, attrs)
	}
	if o.pipelineTime != nil {
		o.pipelineTime.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

// RecordTokenUsage adds prompt and candidate token counts for a provider.
func (o *Observability) RecordTokenUsage(ctx context.Context, provider string, promptTokens, candidateTokens int64) {
	if o.tokenUsage == nil {
		return
	}
	o.tokenUsage.Add(ctx, promptTokens, otelmetric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("kind", "prompt"),
	))
	o.tokenUsage.Add(ctx, candidateTokens, otelmetric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("kind", "candidate"),
	))
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o.meterProvider == nil {
		return nil
	}
	return o.meterProvider.Shutdown(ctx)
}
