package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	batchCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "batchstore",
			Subsystem: "client",
			Name:      "batch_total",
			Help:      "Total number of batches by terminal event.",
		}, []string{"event"})

	commitConflictCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "batchstore",
			Subsystem: "client",
			Name:      "commit_conflict_total",
			Help:      "Total number of commits rejected by conflict detection.",
		})

	batchRetryCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "batchstore",
			Subsystem: "client",
			Name:      "batch_retry_total",
			Help:      "Total number of batch attempts retried after a conflict.",
		})
)

// IncBatchCreated inc the count of created batches
func IncBatchCreated() {
	batchCounter.WithLabelValues("created").Inc()
}

// IncBatchCommitted inc the count of committed batches
func IncBatchCommitted() {
	batchCounter.WithLabelValues("committed").Inc()
}

// IncBatchAborted inc the count of aborted batches
func IncBatchAborted() {
	batchCounter.WithLabelValues("aborted").Inc()
}

// IncCommitConflict inc the count of commits that failed with a conflict
func IncCommitConflict() {
	commitConflictCounter.Inc()
}

// IncBatchRetry inc the count of retried batch attempts
func IncBatchRetry() {
	batchRetryCounter.Inc()
}
