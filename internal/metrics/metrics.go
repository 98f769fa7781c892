// Package metrics provides Prometheus collectors for ledger engine outcomes.
// It implements engine.Observer and serves its own registry over HTTP.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector records engine operation counts and latencies.
type Collector struct {
	registry *prometheus.Registry

	operations    *prometheus.CounterVec
	operationTime *prometheus.HistogramVec
	ledgerEntries prometheus.Counter
	cacheLookups  *prometheus.CounterVec
}

// NewCollector creates a collector with a private registry.
func NewCollector(namespace string) *Collector {
	if namespace == "" {
		namespace = "pointecon"
	}

	c := &Collector{registry: prometheus.NewRegistry()}

	c.operations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operations_total",
			Help:      "Engine operations by name and outcome (ok or error code)",
		},
		[]string{"op", "outcome"},
	)

	c.operationTime = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operation_duration_seconds",
			Help:      "Time taken by engine operations",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12), // 0.5ms to ~1s
		},
		[]string{"op"},
	)

	c.ledgerEntries = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ledger",
			Name:      "entries_appended_total",
			Help:      "Activities appended to the ledger",
		},
	)

	c.cacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "balance_cache",
			Name:      "lookups_total",
			Help:      "Balance cache lookups by result (hit or miss)",
		},
		[]string{"result"},
	)

	c.registry.MustRegister(
		c.operations,
		c.operationTime,
		c.ledgerEntries,
		c.cacheLookups,
		collectors.NewGoCollector(),
	)

	return c
}

// Registry returns the private registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveOperation implements engine.Observer.
func (c *Collector) ObserveOperation(op, outcome string, elapsed time.Duration) {
	c.operations.WithLabelValues(op, outcome).Inc()
	c.operationTime.WithLabelValues(op).Observe(elapsed.Seconds())
}

// ObserveLedgerEntries implements engine.Observer.
func (c *Collector) ObserveLedgerEntries(n int) {
	c.ledgerEntries.Add(float64(n))
}

// ObserveCacheLookup implements engine.Observer.
func (c *Collector) ObserveCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	c.cacheLookups.WithLabelValues(result).Inc()
}
