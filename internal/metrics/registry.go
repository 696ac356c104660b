// Package metrics wires Prometheus counters/histograms for request
// latency, handler error rate, compaction runs, and per-family cache hit
// rate (SPEC_FULL.md §4.8), grounded on the teacher's pkg/metrics Registry
// pattern built on promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry bundles every metric this module defines. The gateway records
// RequestDuration and HandlerErrors; nothing in the storage engine calls
// RecordCompaction or SetCacheHitRatio, and ActiveWorkers is never set.
type Registry struct {
	RequestDuration *prometheus.HistogramVec
	HandlerErrors   *prometheus.CounterVec
	CompactionRuns  *prometheus.CounterVec
	CacheHitRatio   *prometheus.GaugeVec
	ActiveWorkers   prometheus.Gauge
}

// NewRegistry registers every metric against reg (use
// prometheus.NewRegistry() for test isolation, or
// prometheus.DefaultRegisterer in production).
func NewRegistry(reg prometheus.Registerer) *Registry {
	factory := promauto.With(reg)
	return &Registry{
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "latticedb",
			Subsystem: "gateway",
			Name:      "request_duration_seconds",
			Help:      "Handler request latency in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		HandlerErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "latticedb",
			Subsystem: "gateway",
			Name:      "handler_errors_total",
			Help:      "Handler invocations that returned a non-nil error.",
		}, []string{"route"}),
		CompactionRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "latticedb",
			Subsystem: "storage",
			Name:      "compaction_runs_total",
			Help:      "Completed compaction passes per column family.",
		}, []string{"family"}),
		CacheHitRatio: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "latticedb",
			Subsystem: "storage",
			Name:      "cache_hit_ratio",
			Help:      "Block cache hit ratio per column family.",
		}, []string{"family"}),
		ActiveWorkers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "latticedb",
			Subsystem: "gateway",
			Name:      "active_workers",
			Help:      "Worker-pool goroutines currently processing a request.",
		}),
	}
}

// ObserveRequest records one handler invocation's latency and, if err is
// non-nil, increments the error counter for route.
func (r *Registry) ObserveRequest(route string, seconds float64, err error) {
	r.RequestDuration.WithLabelValues(route).Observe(seconds)
	if err != nil {
		r.HandlerErrors.WithLabelValues(route).Inc()
	}
}

// RecordCompaction increments the compaction counter for family.
func (r *Registry) RecordCompaction(family string) {
	r.CompactionRuns.WithLabelValues(family).Inc()
}

// SetCacheHitRatio sets the current cache hit ratio for family.
func (r *Registry) SetCacheHitRatio(family string, ratio float64) {
	r.CacheHitRatio.WithLabelValues(family).Set(ratio)
}
