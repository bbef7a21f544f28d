package prediction

import (
	"time"

	"github.com/Parthita/train-delay-backend/core/model"
)

// MockEngine returns canned results keyed by train number.
type MockEngine struct {
	Results map[string]model.PredictionResult
	Err     error
}

// Predict returns the configured result for the train, or an empty mapping
// when none is configured.
func (m MockEngine) Predict(train model.Train, _ time.Time) (model.PredictionResult, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if res, ok := m.Results[train.Number]; ok {
		cp := make(model.PredictionResult, len(res))
		for k, v := range res {
			cp[k] = v
		}
		return cp, nil
	}
	return model.PredictionResult{}, nil
}
