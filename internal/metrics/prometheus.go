// Package metrics exports the statistics service metrics to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"donaid/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const defaultNamespace = "donaid"

// StatsCollector implements stats.MetricsCollector on a private registry.
//
// Safe for concurrent use.
type StatsCollector struct {
	registry *prometheus.Registry

	operationDuration *prometheus.HistogramVec
	operationResults  *prometheus.CounterVec
	errors            *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
	snapshotsCreated  *prometheus.CounterVec
	donationTotal     *prometheus.GaugeVec
}

// NewStatsCollector registers the stats metrics under namespace. Go runtime
// and process collectors are registered alongside when withRuntime is set.
func NewStatsCollector(namespace string, withRuntime bool) *StatsCollector {
	if namespace == "" {
		namespace = defaultNamespace
	}

	c := &StatsCollector{
		registry: prometheus.NewRegistry(),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "stats",
			Name:      "operation_duration_seconds",
			Help:      "Duration of statistics operations in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		operationResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stats",
			Name:      "operations_total",
			Help:      "Statistics operations by result.",
		}, []string{"operation", "result"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stats",
			Name:      "errors_total",
			Help:      "Statistics operation errors by error code.",
		}, []string{"operation", "type"}),
		cacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "hits_total",
			Help:      "Snapshot cache hits.",
		}, []string{"key"}),
		cacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "misses_total",
			Help:      "Snapshot cache misses.",
		}, []string{"key"}),
		snapshotsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "stats",
			Name:      "snapshots_created_total",
			Help:      "Snapshots created by period type.",
		}, []string{"period"}),
		donationTotal: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "stats",
			Name:      "last_snapshot_donation_amount",
			Help:      "Donation total of the most recently created snapshot per period type.",
		}, []string{"period"}),
	}

	c.registry.MustRegister(
		c.operationDuration,
		c.operationResults,
		c.errors,
		c.cacheHits,
		c.cacheMisses,
		c.snapshotsCreated,
		c.donationTotal,
	)
	if withRuntime {
		c.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}
	return c
}

func (c *StatsCollector) RecordOperationDuration(operation string, duration time.Duration) {
	c.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (c *StatsCollector) RecordOperationResult(operation, result string) {
	c.operationResults.WithLabelValues(operation, result).Inc()
}

func (c *StatsCollector) RecordError(operation, errType string) {
	c.errors.WithLabelValues(operation, errType).Inc()
}

func (c *StatsCollector) RecordCacheHit(key string) {
	c.cacheHits.WithLabelValues(key).Inc()
}

func (c *StatsCollector) RecordCacheMiss(key string) {
	c.cacheMisses.WithLabelValues(key).Inc()
}

func (c *StatsCollector) RecordSnapshot(period models.PeriodType, donationTotal float64) {
	c.snapshotsCreated.WithLabelValues(string(period)).Inc()
	c.donationTotal.WithLabelValues(string(period)).Set(donationTotal)
}

// Registry exposes the underlying registry for tests and extra collectors.
func (c *StatsCollector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus text format.
func (c *StatsCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}
