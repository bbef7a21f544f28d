package metrics

import (
	coremetrics "github.com/Parthita/train-delay-backend/core/metrics"
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records pipeline events in Prometheus metrics.
type PromSink struct {
	runs       *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	predicted  *prometheus.GaugeVec
	fitMAE     prometheus.Histogram
	ingestRows prometheus.Histogram
	batch      *prometheus.CounterVec
}

// NewPromSink registers pipeline metrics on the default Prometheus registerer.
// The /metrics endpoint is served separately, see StartPromServer.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "train_runs_total",
		Help: "Total number of pipeline runs by terminal status",
	}, []string{"status"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "train_run_duration_seconds",
		Help:    "Duration of one train's pipeline run",
		Buckets: prometheus.ExponentialBuckets(0.05, 2, 14),
	}, []string{"status"})
	predicted := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "predicted_delay_minutes",
		Help: "Latest predicted arrival delay per train and station",
	}, []string{"train", "station"})
	fitMAE := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "model_fit_mae_minutes",
		Help:    "Holdout mean absolute error of model fits",
		Buckets: prometheus.LinearBuckets(0, 5, 13),
	})
	ingestRows := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "history_rows_fetched",
		Help:    "Raw history rows returned per ingest",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	})
	batch := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "batch_trains_total",
		Help: "Trains processed by batches, by outcome",
	}, []string{"result"})

	if err := reg.Register(runs); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			runs = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(*prometheus.HistogramVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(predicted); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			predicted = are.ExistingCollector.(*prometheus.GaugeVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(fitMAE); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			fitMAE = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(ingestRows); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			ingestRows = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(batch); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			batch = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}

	return &PromSink{
		runs:       runs,
		duration:   duration,
		predicted:  predicted,
		fitMAE:     fitMAE,
		ingestRows: ingestRows,
		batch:      batch,
	}, nil
}

// RecordPipelineRun counts the run and exports the predicted delay per
// station. Unavailable stations keep their previous value.
func (s *PromSink) RecordPipelineRun(ev coremetrics.PipelineRunEvent) error {
	s.runs.WithLabelValues(ev.Status).Inc()
	s.duration.WithLabelValues(ev.Status).Observe(ev.Duration.Seconds())
	for station, d := range ev.Delays {
		if d.Unavailable {
			continue
		}
		s.predicted.WithLabelValues(ev.Train, station).Set(d.Minutes)
	}
	return nil
}

// RecordTrainingRun observes the holdout error of a fit.
func (s *PromSink) RecordTrainingRun(ev coremetrics.TrainingRunEvent) error {
	s.fitMAE.Observe(ev.MAE)
	return nil
}

// RecordIngest observes the row count of a history fetch.
func (s *PromSink) RecordIngest(ev coremetrics.IngestEvent) error {
	s.ingestRows.Observe(float64(ev.Rows))
	return nil
}

// RecordBatch counts batch outcomes.
func (s *PromSink) RecordBatch(ev coremetrics.BatchEvent) error {
	s.batch.WithLabelValues("completed").Add(float64(ev.Completed))
	s.batch.WithLabelValues("failed").Add(float64(ev.Failed))
	return nil
}
