package prediction

import (
	"time"

	"github.com/Parthita/train-delay-backend/core/model"
)

// Engine scores a train's route for a target date from cached state only.
type Engine interface {
	// Predict returns the per-station delay mapping for the target date. An
	// empty mapping means no route could be derived; stations that could not
	// be scored carry the unavailable marker instead of being omitted.
	Predict(train model.Train, targetDate time.Time) (model.PredictionResult, error)
}

var _ Engine = (*Predictor)(nil)
