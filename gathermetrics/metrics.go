// Package gathermetrics reports a Gather operator's statistics to
// Prometheus, the same metrics backend cockroach's execinfra.DistSQLMetrics
// reports through (flow_scheduler.go's fs.metrics.FlowStart/FlowStop are
// the flow-level analog of what this package does per Gather scan).
package gathermetrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the counters and histograms a Gather operator reports
// whenever it is constructed with a non-nil *Metrics, independently of
// Config.StatisticsEnabled.
type Metrics struct {
	TuplesRead      prometheus.Counter
	ReadLatency     prometheus.Histogram
	WorkersLaunched prometheus.Gauge
	LatchWaits      prometheus.Counter
}

// NewMetrics constructs and registers a fresh Metrics set against reg.
// Passing a nil registry is fine for tests that do not care about
// Prometheus export; the returned Metrics still accumulate correctly.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TuplesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gather",
			Name:      "tuples_read_total",
			Help:      "Number of worker-sourced tuples returned by the Gather operator.",
		}),
		ReadLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gather",
			Name:      "read_latency_seconds",
			Help:      "Latency of each worker-sourced tuple read.",
			Buckets:   prometheus.DefBuckets,
		}),
		WorkersLaunched: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "gather",
			Name:      "workers_launched",
			Help:      "Number of workers launched by the most recent scan.",
		}),
		LatchWaits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gather",
			Name:      "latch_waits_total",
			Help:      "Number of times the operator blocked waiting for a worker wakeup.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.TuplesRead, m.ReadLatency, m.WorkersLaunched, m.LatchWaits)
	}
	return m
}
