package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/Parthita/train-delay-backend/core/events"
	"github.com/Parthita/train-delay-backend/core/features"
	"github.com/Parthita/train-delay-backend/core/history"
	"github.com/Parthita/train-delay-backend/core/ingest"
	"github.com/Parthita/train-delay-backend/core/logger"
	"github.com/Parthita/train-delay-backend/core/model"
	"github.com/Parthita/train-delay-backend/core/modelstore"
	"github.com/Parthita/train-delay-backend/core/monitoring"
	"github.com/Parthita/train-delay-backend/core/prediction"
	"github.com/Parthita/train-delay-backend/core/training"
	"github.com/Parthita/train-delay-backend/internal/eventbus"
)

// Config defines pipeline-level settings.
type Config struct {
	IngestTimeoutSeconds int `json:"ingest_timeout_seconds"`
	TrainTimeoutSeconds  int `json:"train_timeout_seconds"`
	// RefreshAfterHours ages out cached models; zero keeps them forever.
	RefreshAfterHours int `json:"refresh_after_hours"`
}

// SetDefaults fills zero timeouts with workable bounds.
func (c *Config) SetDefaults() {
	if c.IngestTimeoutSeconds == 0 {
		c.IngestTimeoutSeconds = 60
	}
	if c.TrainTimeoutSeconds == 0 {
		c.TrainTimeoutSeconds = 120
	}
}

// Validate rejects unusable settings.
func (c Config) Validate() error {
	if c.IngestTimeoutSeconds < 0 || c.TrainTimeoutSeconds < 0 || c.RefreshAfterHours < 0 {
		return fmt.Errorf("pipeline timeouts must not be negative")
	}
	return nil
}

// Orchestrator runs the full per-train pipeline: ingest history, fit a model,
// persist it, predict. Every run ends in exactly one terminal status; no
// failure escapes Process, so one bad train never takes down a batch.
type Orchestrator struct {
	ingestor  ingest.HistoryIngestor
	history   history.Store
	models    modelstore.Store
	trainer   *training.Trainer
	predictor *prediction.Predictor
	builder   *features.Builder
	bus       *eventbus.Bus[events.Event]
	monitor   monitoring.Monitor
	log       logger.Logger
	cfg       Config
}

// NewOrchestrator wires the pipeline. bus may be nil when nothing consumes
// events; monitor may be nil to disable error tracking.
func NewOrchestrator(
	cfg Config,
	ingestor ingest.HistoryIngestor,
	hist history.Store,
	models modelstore.Store,
	trainer *training.Trainer,
	predictor *prediction.Predictor,
	builder *features.Builder,
	bus *eventbus.Bus[events.Event],
	monitor monitoring.Monitor,
	log logger.Logger,
) *Orchestrator {
	cfg.SetDefaults()
	if monitor == nil {
		monitor = monitoring.NopMonitor{}
	}
	return &Orchestrator{
		ingestor:  ingestor,
		history:   hist,
		models:    models,
		trainer:   trainer,
		predictor: predictor,
		builder:   builder,
		bus:       bus,
		monitor:   monitor,
		log:       log,
		cfg:       cfg,
	}
}

// Process runs one train through the pipeline for the given date and always
// returns a terminal Result. A cached model with enough usable history skips
// straight to prediction; otherwise the run ingests, trains and persists
// before predicting. Panics are converted to StatusError at this boundary.
func (o *Orchestrator) Process(ctx context.Context, train model.Train, date time.Time) (res Result) {
	start := time.Now()
	day := model.Day(date)
	res = Result{Train: train.Number, Name: train.Name, Date: day, Status: StatusPending}

	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("pipeline panic: %v", r)
			o.monitor.CaptureException(err, monitoring.Tags(train.Number, "process"))
			o.log.Errorf("train %s: %v", train.Number, err)
			res.Status = StatusError
			res.Message = fmt.Sprintf("internal error: %v", r)
			res.Delays = nil
		}
		d := time.Since(start)
		observeRun(res.Status, d)
		o.publish(events.RunCompleted{
			Train:    train.Number,
			Name:     train.Name,
			Date:     day,
			Status:   res.Status.String(),
			Delays:   res.Delays,
			Message:  res.Message,
			Duration: d,
			At:       time.Now(),
		})
	}()

	if err := train.Validate(); err != nil {
		res.Status = StatusError
		res.Message = err.Error()
		return res
	}

	if o.cacheUsable(train.Number) {
		o.log.Infof("train %s: cached model and history found, skipping ingest", train.Number)
		return o.finishPredict(res, train, day)
	}

	recs, err := o.fetchHistory(ctx, train)
	if err != nil || len(recs) == 0 {
		res.Status = StatusNoData
		res.Message = ingestFailureMessage(err)
		o.log.Warnf("train %s: %s", train.Number, res.Message)
		return res
	}
	if err := o.history.Save(train.Number, recs); err != nil {
		o.log.Warnf("train %s: caching history failed: %v", train.Number, err)
	}

	usable := features.FilterOutliers(recs)
	if len(usable) < training.MinTrainingRows {
		res.Status = StatusInsufficientData
		res.Message = fmt.Sprintf("only %d usable rows after filtering, need at least %d", len(usable), training.MinTrainingRows)
		return res
	}

	fitStart := time.Now()
	ix := features.NewIndex(recs)
	enc := features.NewStationEncoder(ix.Stations())
	x, y := o.builder.TrainingMatrix(ix, enc)
	art, m, err := o.fitBounded(ctx, x, y, enc)
	if err != nil {
		if errors.Is(err, training.ErrInsufficientData) {
			res.Status = StatusInsufficientData
		} else {
			res.Status = StatusModelFailed
			o.monitor.CaptureException(err, monitoring.Tags(train.Number, "train"))
		}
		res.Message = err.Error()
		return res
	}
	res.Metrics = &m
	fitDur := time.Since(fitStart)
	observeTraining(fitDur, m.MAE)
	o.publish(events.ModelTrained{
		Train:    train.Number,
		Rows:     m.Rows,
		MAE:      m.MAE,
		RMSE:     m.RMSE,
		R2:       m.R2,
		Duration: fitDur,
		At:       time.Now(),
	})

	if err := o.models.Put(train.Number, art); err != nil {
		o.monitor.CaptureException(err, monitoring.Tags(train.Number, "persist"))
		res.Status = StatusModelFailed
		res.Message = fmt.Sprintf("persist model: %v", err)
		return res
	}

	return o.finishPredict(res, train, day)
}

// Predict is the cache-only scoring path: no ingestion or training side
// effects, ever.
func (o *Orchestrator) Predict(train model.Train, date time.Time) (model.PredictionResult, error) {
	return o.predictor.Predict(train, model.Day(date))
}

func (o *Orchestrator) finishPredict(res Result, train model.Train, day time.Time) Result {
	delays, err := o.predictor.Predict(train, day)
	if err != nil {
		o.monitor.CaptureException(err, monitoring.Tags(train.Number, "predict"))
		res.Status = StatusPredictionFailed
		res.Message = err.Error()
		return res
	}
	if len(delays) == 0 {
		res.Status = StatusPredictionFailed
		res.Message = "prediction produced no stations"
		return res
	}
	res.Status = StatusSuccess
	res.Delays = delays
	return res
}

// cacheUsable reports whether a stored model and enough cached history exist
// to skip ingestion and training.
func (o *Orchestrator) cacheUsable(number string) bool {
	art, err := o.models.Get(number)
	if err != nil {
		return false
	}
	if ttl := time.Duration(o.cfg.RefreshAfterHours) * time.Hour; ttl > 0 && time.Since(art.TrainedAt) > ttl {
		o.log.Debugf("train %s: cached model older than %s, refitting", number, ttl)
		return false
	}
	recs, err := o.history.Load(number)
	if err != nil {
		return false
	}
	return len(features.FilterOutliers(recs)) >= training.MinTrainingRows
}

func (o *Orchestrator) fetchHistory(ctx context.Context, train model.Train) ([]model.HistoryRecord, error) {
	timeout := time.Duration(o.cfg.IngestTimeoutSeconds) * time.Second
	ictx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	recs, err := o.ingestor.FetchHistory(ictx, train.Name, train.Number)
	o.publish(events.HistoryIngested{
		Train:    train.Number,
		Rows:     len(recs),
		Usable:   len(features.FilterOutliers(recs)),
		Duration: time.Since(start),
		At:       time.Now(),
	})
	return recs, err
}

// fitBounded runs the trainer in its own goroutine so an overlong fit turns
// into a soft failure. The goroutine is never interrupted; an expired fit
// finishes in the background and its result is discarded.
func (o *Orchestrator) fitBounded(ctx context.Context, x *mat.Dense, y []float64, enc *features.StationEncoder) (*training.Artifact, training.Metrics, error) {
	type fitResult struct {
		art *training.Artifact
		m   training.Metrics
		err error
	}
	done := make(chan fitResult, 1)
	go func() {
		art, m, err := o.trainer.Fit(x, y, enc)
		done <- fitResult{art, m, err}
	}()

	timeout := time.Duration(o.cfg.TrainTimeoutSeconds) * time.Second
	select {
	case r := <-done:
		return r.art, r.m, r.err
	case <-time.After(timeout):
		return nil, training.Metrics{}, fmt.Errorf("training timed out after %s", timeout)
	case <-ctx.Done():
		return nil, training.Metrics{}, fmt.Errorf("training aborted: %w", ctx.Err())
	}
}

func (o *Orchestrator) publish(e events.Event) {
	if o.bus != nil {
		o.bus.Publish(e)
	}
}

func ingestFailureMessage(err error) string {
	switch {
	case err == nil, errors.Is(err, ingest.ErrNoData):
		return "no delay history found for train"
	case errors.Is(err, context.DeadlineExceeded):
		return "history fetch timed out"
	default:
		return fmt.Sprintf("history fetch failed: %v", err)
	}
}
