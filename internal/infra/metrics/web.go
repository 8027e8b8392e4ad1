package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	register(httpRequestsTotal, httpRequestMs)
}

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests served by the status API.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_ms",
			Help:    "HTTP request duration in milliseconds.",
			Buckets: []float64{1, 5, 10, 50, 100, 500, 1000, 5000},
		},
		[]string{"method", "route"},
	)
)

// ObserveHTTPRequest records one served request. Route is the chi route
// pattern, not the raw path, to keep label cardinality bounded.
func ObserveHTTPRequest(method, route string, status int, ms int64) {
	httpRequestsTotal.WithLabelValues(norm(method), route, strconv.Itoa(status)).Inc()
	httpRequestMs.WithLabelValues(norm(method), route).Observe(float64(ms))
}
