package deploy

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for invocation counters.
const (
	outcomeSuccess       = "success"
	outcomeProcessFailed = "process_failed"
	outcomeIOError       = "io_error"
)

var (
	// redeployCount tracks redeploy invocations by composition and outcome
	redeployCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dockhand_redeploys_total",
			Help: "Total redeploy invocations by composition and outcome",
		},
		[]string{"composition", "outcome"},
	)

	// pruneCount tracks image prune invocations by outcome
	pruneCount = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dockhand_prunes_total",
			Help: "Total image prune invocations by outcome",
		},
		[]string{"outcome"},
	)

	// invocationSeconds tracks how long external invocations take
	invocationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dockhand_invocation_duration_seconds",
			Help:    "Duration of external tool invocations by operation",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"op"},
	)
)

// recordRedeploy increments the redeploy counter
func recordRedeploy(composition, outcome string) {
	redeployCount.WithLabelValues(composition, outcome).Inc()
}

// recordPrune increments the prune counter
func recordPrune(outcome string) {
	pruneCount.WithLabelValues(outcome).Inc()
}

// observeInvocation records the duration of a completed invocation
func observeInvocation(op string, seconds float64) {
	invocationSeconds.WithLabelValues(op).Observe(seconds)
}
