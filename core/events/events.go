// Package events defines the messages published on the application event bus.
// Producers (pipeline, queue) publish fire-and-forget; slow consumers drop
// rather than block a run.
package events

import (
	"time"

	"github.com/Parthita/train-delay-backend/core/model"
)

// Event is implemented by every bus message.
type Event interface {
	Kind() string
}

// RunCompleted is emitted once per pipeline run with its terminal status.
type RunCompleted struct {
	Train    string
	Name     string
	Date     time.Time
	Status   string
	Delays   model.PredictionResult
	Message  string
	Duration time.Duration
	At       time.Time
}

func (RunCompleted) Kind() string { return "run_completed" }

// ModelTrained is emitted after a successful fit, before prediction.
type ModelTrained struct {
	Train    string
	Rows     int
	MAE      float64
	RMSE     float64
	R2       float64
	Duration time.Duration
	At       time.Time
}

func (ModelTrained) Kind() string { return "model_trained" }

// HistoryIngested reports one external history fetch.
type HistoryIngested struct {
	Train    string
	Rows     int // raw rows returned by the ingestor
	Usable   int // rows surviving outlier filtering
	Duration time.Duration
	At       time.Time
}

func (HistoryIngested) Kind() string { return "history_ingested" }

// BatchStarted and BatchFinished bracket one queue drain.
type BatchStarted struct {
	Batch  string
	Trains int
	At     time.Time
}

func (BatchStarted) Kind() string { return "batch_started" }

type BatchFinished struct {
	Batch     string
	Completed int
	Failed    int
	Duration  time.Duration
	At        time.Time
}

func (BatchFinished) Kind() string { return "batch_finished" }
