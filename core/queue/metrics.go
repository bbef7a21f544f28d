package queue

import "github.com/prometheus/client_golang/prometheus"

var (
	queueDepth   prometheus.Gauge
	batchesTotal prometheus.Counter
)

// newCollectors creates new metric collectors.
func newCollectors() (prometheus.Gauge, prometheus.Counter) {
	depth := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "batch_queue_depth",
		Help: "Trains remaining in the running batch",
	})
	total := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "batches_total",
		Help: "Batch runs that ran to completion or cancellation",
	})
	return depth, total
}

func init() {
	queueDepth, batchesTotal = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers queue metrics on the provided registry. If
// reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(queueDepth, batchesTotal)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	queueDepth, batchesTotal = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}
