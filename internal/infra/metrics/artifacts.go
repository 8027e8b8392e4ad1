package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(filesMaterialized, archivesTotal, retentionRemovals)
}

var (
	filesMaterialized = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "forge_files_materialized_total",
			Help: "Generated files written to job workspaces.",
		},
	)

	archivesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "forge_archives_total",
			Help: "Zip archive builds by outcome.",
		},
		[]string{"outcome"}, // 'success', 'failure'
	)

	retentionRemovals = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "forge_retention_removals_total",
			Help: "Expired job directories and archives removed by the janitor.",
		},
	)
)

func AddFilesMaterialized(n int) { filesMaterialized.Add(float64(n)) }
func IncArchive(outcome string)  { archivesTotal.WithLabelValues(norm(outcome)).Inc() }
func AddRetentionRemovals(n int) { retentionRemovals.Add(float64(n)) }
