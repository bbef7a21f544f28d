// Package metrics defines the sink interfaces pipeline observability flows
// through. Sinks like PromSink and InfluxSink record run outcomes, training
// quality and batch progress, and can be combined with NewMultiSink; the
// factory helpers return a MultiSink automatically when multiple sinks are
// configured.
package metrics

import (
	"time"

	"github.com/Parthita/train-delay-backend/core/model"
)

// PipelineRunEvent is one terminal pipeline run. Delays is nil for runs that
// produced no prediction.
type PipelineRunEvent struct {
	Train    string
	Name     string
	Status   string
	Date     time.Time
	Delays   model.PredictionResult
	Duration time.Duration
	Time     time.Time
}

// MetricsSink records pipeline runs for observability purposes.
type MetricsSink interface {
	RecordPipelineRun(ev PipelineRunEvent) error
}

// TrainingRunEvent captures the holdout quality of one model fit.
type TrainingRunEvent struct {
	Train    string
	Rows     int
	MAE      float64
	RMSE     float64
	R2       float64
	Duration time.Duration
	Time     time.Time
}

// TrainingRunRecorder records model fits.
type TrainingRunRecorder interface {
	RecordTrainingRun(ev TrainingRunEvent) error
}

// IngestEvent captures one external history fetch.
type IngestEvent struct {
	Train    string
	Rows     int
	Usable   int
	Duration time.Duration
	Time     time.Time
}

// IngestRecorder records history fetches.
type IngestRecorder interface {
	RecordIngest(ev IngestEvent) error
}

// BatchEvent summarises one queue drain.
type BatchEvent struct {
	Batch     string
	Trains    int
	Completed int
	Failed    int
	Duration  time.Duration
	Time      time.Time
}

// BatchRecorder records batch completions.
type BatchRecorder interface {
	RecordBatch(ev BatchEvent) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordPipelineRun(PipelineRunEvent) error { return nil }
func (NopSink) RecordTrainingRun(TrainingRunEvent) error { return nil }
func (NopSink) RecordIngest(IngestEvent) error           { return nil }
func (NopSink) RecordBatch(BatchEvent) error             { return nil }
