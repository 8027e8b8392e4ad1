package metrics

import (
	"strconv"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(
		aiTokensIn,
		aiTokensOut,
		aiTokensTotal,
		aiTokensCached,
		aiCostUSD,
		aiCallsLatencyMs,
	)
}

var (
	aiTokensIn = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_in",
			Help: "Sum of prompt (input) tokens per provider/model.",
		},
		[]string{"provider", "model"},
	)

	aiTokensOut = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_out",
			Help: "Sum of completion (output) tokens per provider/model.",
		},
		[]string{"provider", "model"},
	)

	aiTokensTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_total",
			Help: "Sum of total tokens per provider/model.",
		},
		[]string{"provider", "model"},
	)

	aiTokensCached = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_tokens_cache_read",
			Help: "Sum of prompt tokens served from the provider prompt cache.",
		},
		[]string{"provider", "model"},
	)

	aiCostUSD = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ai_cost_usd",
			Help: "Estimated USD spent per provider/model.",
		},
		[]string{"provider", "model"},
	)

	aiCallsLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "ai_calls_latency_ms",
			Help:    "AI call latency distribution in milliseconds.",
			Buckets: []float64{100, 250, 500, 1000, 2500, 5000, 10000, 30000, 60000, 120000},
		},
		[]string{"provider", "model", "success"},
	)
)

func norm(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

// ObserveLLMCall records usage, cost and latency for one completion call.
func ObserveLLMCall(provider, model string, tokensIn, tokensOut, tokensTotal, tokensCached int, costUSD float64, latencyMs int64, success bool) {
	lbl := []string{norm(provider), norm(model)}
	aiTokensIn.WithLabelValues(lbl...).Add(float64(tokensIn))
	aiTokensOut.WithLabelValues(lbl...).Add(float64(tokensOut))
	aiTokensTotal.WithLabelValues(lbl...).Add(float64(tokensTotal))
	aiTokensCached.WithLabelValues(lbl...).Add(float64(tokensCached))
	aiCostUSD.WithLabelValues(lbl...).Add(costUSD)
	aiCallsLatencyMs.WithLabelValues(norm(provider), norm(model), strconv.FormatBool(success)).
		Observe(float64(latencyMs))
}
