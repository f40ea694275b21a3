// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_http_requests_total",
			Help: "Total number of HTTP requests by route and status",
		},
		[]string{"route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "assistant_http_request_duration_seconds",
			Help: "Duration of HTTP requests in seconds",
		},
		[]string{"route"},
	)

	IntentsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_intents_classified_total",
			Help: "Total number of prompts classified per intent",
		},
		[]string{"intent"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "assistant_pipeline_stage_duration_seconds",
			Help:    "Duration of pipeline stages in seconds",
			Buckets: []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		},
		[]string{"stage"},
	)

	LLMTokens = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_llm_tokens_total",
			Help: "Total number of tokens reported by the text-completion provider",
		},
		[]string{"provider", "kind"},
	)

	CommerceCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_commerce_calls_total",
			Help: "Total number of commerce GraphQL calls by outcome",
		},
		[]string{"outcome"},
	)

	MemoryLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_memory_lookups_total",
			Help: "Total number of follow-up memory lookups by kind and result",
		},
		[]string{"kind", "result"},
	)

	CouponCredits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_coupon_credits_total",
			Help: "Total number of coupon campaigns by target and outcome",
		},
		[]string{"target", "outcome"},
	)
)
