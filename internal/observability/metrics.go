package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels for FriendshipTransitions.
const (
	OutcomeOK       = "ok"
	OutcomeRejected = "rejected"
	OutcomeConflict = "conflict"
	OutcomeError    = "error"
)

var (
	// FriendshipTransitions counts state machine operations by result.
	FriendshipTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "amity_friendship_transitions_total",
		Help: "Total number of friendship state transitions by operation and outcome",
	}, []string{"operation", "outcome"})

	// CooldownCacheErrors counts failed cooldown cache reads and writes.
	CooldownCacheErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "amity_cooldown_cache_errors_total",
		Help: "Total number of cooldown cache errors by operation",
	}, []string{"operation"})

	// StoreTxDuration records how long store transactions take.
	StoreTxDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "amity_store_tx_duration_seconds",
		Help:    "Duration of relationship store transactions in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
)

// RecordTransition increments the transition counter for an operation.
func RecordTransition(operation, outcome string) {
	FriendshipTransitions.WithLabelValues(operation, outcome).Inc()
}

// TrackTx returns a function that records transaction duration when called (e.g. defer).
func TrackTx(operation string) func() {
	start := time.Now()
	return func() {
		StoreTxDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	}
}
