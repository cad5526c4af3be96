package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

func init() {
	prometheus.MustRegister(activeBatchGauge)

	prometheus.MustRegister(batchCounter)
	prometheus.MustRegister(commitConflictCounter)
	prometheus.MustRegister(batchRetryCounter)
}
