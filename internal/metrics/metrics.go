// Package metrics exposes counters for money movement and governance
// operations. Services depend on the Collector interface; the server wires
// the prometheus implementation and tests use NoopCollector.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector defines the interface for collecting escrow core metrics
type Collector interface {
	// Operation metrics
	RecordOperationDuration(operation string, duration time.Duration)
	RecordOperationResult(operation, result string)

	// State machine metrics
	RecordTransition(machine, from, to string)

	// Money movement
	RecordMoneyMovement(kind, currency string, amountCents int64)

	// Auditor
	RecordViolations(severity string, count int)

	// Cache metrics
	RecordCacheHit(key string)
	RecordCacheMiss(key string)
}

// NoopCollector is a no-op implementation of Collector
type NoopCollector struct{}

func (NoopCollector) RecordOperationDuration(string, time.Duration) {}
func (NoopCollector) RecordOperationResult(string, string)          {}
func (NoopCollector) RecordTransition(string, string, string)       {}
func (NoopCollector) RecordMoneyMovement(string, string, int64)     {}
func (NoopCollector) RecordViolations(string, int)                  {}
func (NoopCollector) RecordCacheHit(string)                         {}
func (NoopCollector) RecordCacheMiss(string)                        {}

type PrometheusCollector struct {
	registry    *prometheus.Registry
	duration    *prometheus.HistogramVec
	results     *prometheus.CounterVec
	transitions *prometheus.CounterVec
	moved       *prometheus.CounterVec
	violations  *prometheus.GaugeVec
	cache       *prometheus.CounterVec
}

// NewPrometheusCollector registers all series on a fresh registry.
func NewPrometheusCollector() *PrometheusCollector {
	c := &PrometheusCollector{
		registry: prometheus.NewRegistry(),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "crewpay",
			Name:      "operation_duration_seconds",
			Help:      "Duration of escrow core operations.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crewpay",
			Name:      "operation_results_total",
			Help:      "Operation outcomes by result.",
		}, []string{"operation", "result"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crewpay",
			Name:      "state_transitions_total",
			Help:      "Committed state machine transitions.",
		}, []string{"machine", "from", "to"}),
		moved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crewpay",
			Name:      "money_moved_cents_total",
			Help:      "Minor currency units moved, by movement kind.",
		}, []string{"kind", "currency"}),
		violations: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "crewpay",
			Name:      "payout_audit_violations",
			Help:      "Violations found by the last payout audit run.",
		}, []string{"severity"}),
		cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "crewpay",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by outcome.",
		}, []string{"key", "outcome"}),
	}
	c.registry.MustRegister(c.duration, c.results, c.transitions, c.moved, c.violations, c.cache)
	return c
}

// Registry is what the /metrics handler gathers from.
func (c *PrometheusCollector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *PrometheusCollector) RecordOperationDuration(operation string, d time.Duration) {
	c.duration.WithLabelValues(operation).Observe(d.Seconds())
}

func (c *PrometheusCollector) RecordOperationResult(operation, result string) {
	c.results.WithLabelValues(operation, result).Inc()
}

func (c *PrometheusCollector) RecordTransition(machine, from, to string) {
	c.transitions.WithLabelValues(machine, from, to).Inc()
}

func (c *PrometheusCollector) RecordMoneyMovement(kind, currency string, amountCents int64) {
	if amountCents <= 0 {
		return
	}
	c.moved.WithLabelValues(kind, currency).Add(float64(amountCents))
}

func (c *PrometheusCollector) RecordViolations(severity string, count int) {
	c.violations.WithLabelValues(severity).Set(float64(count))
}

func (c *PrometheusCollector) RecordCacheHit(key string) {
	c.cache.WithLabelValues(key, "hit").Inc()
}

func (c *PrometheusCollector) RecordCacheMiss(key string) {
	c.cache.WithLabelValues(key, "miss").Inc()
}
