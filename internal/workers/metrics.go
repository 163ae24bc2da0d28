package workers

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// sweepCount tracks completed redeploy sweeps
	sweepCount = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "dockhand_sweeps_total",
			Help: "Total completed periodic redeploy sweeps",
		},
	)

	// sweepSeconds tracks how long a full sweep takes
	sweepSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "dockhand_sweep_duration_seconds",
			Help:    "Duration of full redeploy sweeps",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
	)
)

// recordSweep records one completed sweep and its duration
func recordSweep(seconds float64) {
	sweepCount.Inc()
	sweepSeconds.Observe(seconds)
}
