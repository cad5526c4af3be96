package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	activeBatchGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "batchstore",
			Subsystem: "client",
			Name:      "batch_active",
			Help:      "Current number of open batches.",
		})
)

// AddActiveBatch add an open batch
func AddActiveBatch() {
	activeBatchGauge.Inc()
}

// RemoveActiveBatch remove an open batch
func RemoveActiveBatch() {
	activeBatchGauge.Dec()
}
