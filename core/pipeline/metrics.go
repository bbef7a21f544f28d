package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	pipelineRuns     *prometheus.CounterVec
	pipelineDuration *prometheus.HistogramVec
	trainingDuration prometheus.Histogram
	holdoutMAE       prometheus.Histogram
)

// newCollectors creates new metric collectors.
func newCollectors() (*prometheus.CounterVec, *prometheus.HistogramVec, prometheus.Histogram, prometheus.Histogram) {
	runs := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Pipeline runs by terminal status",
		},
		[]string{"status"},
	)
	dur := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "pipeline_run_duration_seconds",
			Help:    "End-to-end duration of one train's pipeline run",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
		},
		[]string{"status"},
	)
	fit := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "training_duration_seconds",
			Help:    "Duration of model fits",
			Buckets: prometheus.DefBuckets,
		},
	)
	mae := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "model_holdout_mae_minutes",
			Help:    "Holdout mean absolute error of fitted models",
			Buckets: prometheus.LinearBuckets(0, 5, 13),
		},
	)
	return runs, dur, fit, mae
}

func init() {
	pipelineRuns, pipelineDuration, trainingDuration, holdoutMAE = newCollectors()
	MustRegisterMetrics(nil)
}

// MustRegisterMetrics registers pipeline metrics on the provided registry.
// If reg is nil, prometheus.DefaultRegisterer is used.
func MustRegisterMetrics(reg prometheus.Registerer) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(pipelineRuns, pipelineDuration, trainingDuration, holdoutMAE)
}

// ResetMetrics reinitializes metrics collectors for testing purposes and
// registers them on the provided registry if not nil.
func ResetMetrics(reg prometheus.Registerer) {
	pipelineRuns, pipelineDuration, trainingDuration, holdoutMAE = newCollectors()
	if reg != nil {
		MustRegisterMetrics(reg)
	}
}

func observeRun(status Status, d time.Duration) {
	pipelineRuns.WithLabelValues(status.String()).Inc()
	pipelineDuration.WithLabelValues(status.String()).Observe(d.Seconds())
}

func observeTraining(d time.Duration, mae float64) {
	trainingDuration.Observe(d.Seconds())
	holdoutMAE.Observe(mae)
}
