package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(jobsTotal, jobStageMs, codegenRejects, assetRewrites)
}

var (
	jobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_jobs_total",
			Help: "Generation jobs finished, labeled by terminal status.",
		},
		[]string{"status", "project_type"},
	)

	jobStageMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "forge_job_stage_ms",
			Help:    "Wall-clock duration of pipeline stages in milliseconds.",
			Buckets: []float64{10, 50, 250, 1000, 5000, 15000, 60000, 180000},
		},
		[]string{"stage"},
	)

	codegenRejects = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_codegen_rejects_total",
			Help: "LLM outputs rejected before materialization, by reason.",
		},
		[]string{"reason"}, // 'parse', 'validation'
	)

	assetRewrites = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_asset_rewrites_total",
			Help: "Image references rewritten to approved placeholders, by category.",
		},
		[]string{"category"},
	)
)

func IncJob(status, projectType string) {
	jobsTotal.WithLabelValues(norm(status), norm(projectType)).Inc()
}

func ObserveStage(stage string, ms int64) {
	jobStageMs.WithLabelValues(norm(stage)).Observe(float64(ms))
}

func IncCodegenReject(reason string) {
	codegenRejects.WithLabelValues(norm(reason)).Inc()
}

func IncAssetRewrite(category string) {
	assetRewrites.WithLabelValues(norm(category)).Inc()
}
