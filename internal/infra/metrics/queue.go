package metrics

import "github.com/prometheus/client_golang/prometheus"

func init() {
	register(queueDepth, queueWaitMs, queueRejects)
}

var (
	queueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "forge_queue_depth",
			Help: "Items waiting in the generation queue (active item excluded).",
		},
	)

	queueWaitMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "forge_queue_wait_ms",
			Help:    "Time items spend queued before execution starts, in milliseconds.",
			Buckets: []float64{10, 100, 1000, 5000, 15000, 60000, 300000},
		},
	)

	queueRejects = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "forge_queue_admission_rejects_total",
			Help: "Enqueue attempts rejected because the user was already queued or active.",
		},
	)
)

func SetQueueDepth(n int)        { queueDepth.Set(float64(n)) }
func ObserveQueueWait(ms int64)  { queueWaitMs.Observe(float64(ms)) }
func IncQueueAdmissionRejected() { queueRejects.Inc() }
