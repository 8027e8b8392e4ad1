// Package metrics defines the Prometheus instruments for the generation
// service: job and queue counters, LLM call metrics, artifact and HTTP
// instrumentation. Each file enqueues its collectors from init; nothing
// touches the default registry until MustRegister runs in main.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	regMu   sync.Mutex
	regDone bool
	pending []prometheus.Collector
)

// register enqueues collectors during package init.
func register(cs ...prometheus.Collector) {
	regMu.Lock()
	defer regMu.Unlock()
	pending = append(pending, cs...)
}

// MustRegister installs every enqueued collector into the default
// registry. Safe to call more than once; only the first call registers.
func MustRegister() {
	regMu.Lock()
	defer regMu.Unlock()
	if regDone {
		return
	}
	regDone = true
	if len(pending) > 0 {
		prometheus.MustRegister(pending...)
	}
}
