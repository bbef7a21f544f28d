package prediction

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/Parthita/train-delay-backend/core/features"
	"github.com/Parthita/train-delay-backend/core/history"
	"github.com/Parthita/train-delay-backend/core/logger"
	"github.com/Parthita/train-delay-backend/core/model"
	"github.com/Parthita/train-delay-backend/core/modelstore"
)

// Predictor scores per-station delays from a cached artifact. It never
// ingests or trains: an absent artifact or history degrades to an
// all-unavailable result instead of an error, so cache-only callers always
// get a well-formed mapping.
type Predictor struct {
	store   modelstore.Store
	history history.Store
	builder *features.Builder
	log     logger.Logger
}

// NewPredictor wires a Predictor over the given stores.
func NewPredictor(store modelstore.Store, hist history.Store, builder *features.Builder, log logger.Logger) *Predictor {
	return &Predictor{store: store, history: hist, builder: builder, log: log}
}

// Predict scores each station on the train's route for the target date.
// When the train carries no route the station order cached with its history
// is used, origin first. Identical artifact, history and date always produce
// identical output.
//
// Raw model output is rounded to two decimals and clamped to zero or more;
// the origin is then forced to exactly zero, since a service cannot be late
// relative to its own start. If the route names stations the stored encoder
// has never seen, the encoder is extended and written back through the model
// store so later calls score them consistently.
func (p *Predictor) Predict(train model.Train, targetDate time.Time) (model.PredictionResult, error) {
	recs, err := p.history.Load(train.Number)
	histAbsent := errors.Is(err, history.ErrNoHistory)
	if err != nil && !histAbsent {
		return nil, fmt.Errorf("load history for train %s: %w", train.Number, err)
	}

	route := train.Route
	if len(route) == 0 {
		route = stationsInOrder(recs)
	}
	if len(route) == 0 {
		return model.PredictionResult{}, nil
	}

	art, err := p.store.Get(train.Number)
	if errors.Is(err, modelstore.ErrNotFound) {
		p.log.Debugf("no artifact for train %s, returning unavailable", train.Number)
		return model.UnavailableResult(route), nil
	}
	if err != nil {
		return nil, fmt.Errorf("load artifact for train %s: %w", train.Number, err)
	}
	if histAbsent {
		p.log.Debugf("no cached history for train %s, returning unavailable", train.Number)
		return model.UnavailableResult(route), nil
	}

	enc := art.Encoder
	if missing := enc.Missing(route); len(missing) > 0 {
		enc = enc.Extend(missing)
		refit := *art
		refit.Encoder = enc
		if err := p.store.Put(train.Number, &refit); err != nil {
			p.log.Errorf("train %s: persisting refit encoder failed: %v", train.Number, err)
		} else {
			p.log.Infof("train %s: encoder extended with %d unseen stations", train.Number, len(missing))
		}
	}

	ix := features.NewIndex(recs)
	day := model.Day(targetDate)
	result := make(model.PredictionResult, len(route))
	for _, station := range route {
		row := p.builder.Row(ix, enc, station, day)
		raw := art.Model.Predict(row)
		delay := math.Round(raw*100) / 100
		if delay < 0 {
			delay = 0
		}
		result[station] = model.StationDelay{Minutes: delay}
	}
	result[route[0]] = model.StationDelay{Minutes: 0}
	return result, nil
}

// stationsInOrder returns unique stations by first appearance. Cached
// histories list stations in route order, so the first one is the origin.
func stationsInOrder(recs []model.HistoryRecord) []string {
	seen := make(map[string]struct{}, len(recs))
	var out []string
	for _, r := range recs {
		if _, ok := seen[r.Station]; ok {
			continue
		}
		seen[r.Station] = struct{}{}
		out = append(out, r.Station)
	}
	return out
}
