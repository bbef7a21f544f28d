package pipeline

import (
	"time"

	"github.com/Parthita/train-delay-backend/core/model"
	"github.com/Parthita/train-delay-backend/core/training"
)

// Status is the terminal state of one pipeline run. Every run ends in exactly
// one of these; callers never see a partially-populated result.
type Status string

const (
	StatusPending          Status = "pending"
	StatusSuccess          Status = "success"
	StatusNoData           Status = "no_data"
	StatusInsufficientData Status = "insufficient_data"
	StatusModelFailed      Status = "model_failed"
	StatusPredictionFailed Status = "prediction_failed"
	StatusError            Status = "error"
)

func (s Status) String() string { return string(s) }

// Terminal reports whether the run has finished, successfully or not.
func (s Status) Terminal() bool { return s != StatusPending && s != "" }

// Result is the outcome of one train's pipeline run. Delays is only set on
// success; Message explains failures in plain words; Metrics carries holdout
// quality when a model was fit during the run.
type Result struct {
	Train   string                 `json:"train_number"`
	Name    string                 `json:"train_name,omitempty"`
	Date    time.Time              `json:"date"`
	Status  Status                 `json:"status"`
	Delays  model.PredictionResult `json:"delays,omitempty"`
	Message string                 `json:"message,omitempty"`
	Metrics *training.Metrics      `json:"metrics,omitempty"`
}
