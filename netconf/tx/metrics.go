package tx

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// transactionsTotal counts write transactions reaching a terminal state, by profile and outcome.
	transactionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ncbroker_tx_transactions_total",
		Help: "Total write transactions by profile and outcome",
	}, []string{"profile", "outcome"})

	// editsTotal counts edit-config rpcs by action and result.
	editsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ncbroker_tx_edits_total",
		Help: "Total edit-config rpcs by action and result",
	}, []string{"action", "result"})

	// lockRetriesTotal counts candidate locks retried after discarding changes.
	lockRetriesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ncbroker_tx_lock_retries_total",
		Help: "Total candidate lock retries",
	})

	// cleanupFailuresTotal counts discard-changes and unlock rpcs that failed while releasing a transaction.
	cleanupFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ncbroker_tx_cleanup_failures_total",
		Help: "Total failed cleanup rpcs by rpc name",
	}, []string{"rpc"})

	// commitDuration tracks the latency of remote commits.
	commitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ncbroker_tx_commit_duration_seconds",
		Help:    "Commit rpc duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14),
	})
)

func editResult(err error) string {
	if err != nil {
		return "failure"
	}
	return "success"
}
