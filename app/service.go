// Package app assembles the prediction service from configuration: ingest
// client, stores, pipeline, queue, notification, metrics and the HTTP API.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/Parthita/train-delay-backend/api/trains"
	"github.com/Parthita/train-delay-backend/config"
	"github.com/Parthita/train-delay-backend/core/events"
	"github.com/Parthita/train-delay-backend/core/features"
	"github.com/Parthita/train-delay-backend/core/history"
	coremetrics "github.com/Parthita/train-delay-backend/core/metrics"
	"github.com/Parthita/train-delay-backend/core/modelstore"
	coremon "github.com/Parthita/train-delay-backend/core/monitoring"
	"github.com/Parthita/train-delay-backend/core/notify"
	"github.com/Parthita/train-delay-backend/core/pipeline"
	"github.com/Parthita/train-delay-backend/core/pipeline/runlog"
	"github.com/Parthita/train-delay-backend/core/prediction"
	"github.com/Parthita/train-delay-backend/core/queue"
	"github.com/Parthita/train-delay-backend/core/training"
	"github.com/Parthita/train-delay-backend/infra/etrain"
	"github.com/Parthita/train-delay-backend/infra/kpi"
	"github.com/Parthita/train-delay-backend/infra/logger"
	"github.com/Parthita/train-delay-backend/infra/metrics"
	"github.com/Parthita/train-delay-backend/infra/monitoring"
	infranotify "github.com/Parthita/train-delay-backend/infra/notify"
	"github.com/Parthita/train-delay-backend/internal/eventbus"
	"github.com/Parthita/train-delay-backend/pkg/export"
)

// Service wires the pipeline, queue, API and observability together.
type Service struct {
	Orch      *pipeline.Orchestrator
	Queue     *queue.Queue
	Predictor *prediction.Predictor

	cfg     *config.Config
	mux     *http.ServeMux
	bus     *eventbus.Bus[events.Event]
	sink    coremetrics.MetricsSink
	store   runlog.LogStore
	pub     notify.Publisher
	kpis    coremetrics.KPIStore
	monitor coremon.Monitor
	log     logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	stations, err := cfg.Stations.Load()
	if err != nil {
		return nil, fmt.Errorf("station index: %w", err)
	}
	client, err := etrain.NewClient(cfg.Ingest, stations)
	if err != nil {
		return nil, fmt.Errorf("ingest client: %w", err)
	}

	models, err := modelstore.NewFileStore(cfg.Storage.ModelsDir(), logger.New("modelstore"))
	if err != nil {
		return nil, fmt.Errorf("model store: %w", err)
	}
	hist, err := history.NewFileStore(cfg.Storage.HistoryDir(), logger.New("history"))
	if err != nil {
		return nil, fmt.Errorf("history store: %w", err)
	}

	builder := features.NewBuilder(logger.New("features"))
	trainer := training.NewTrainer(cfg.Training, logger.New("training"))
	predictor := prediction.NewPredictor(models, hist, builder, logger.New("prediction"))

	monitor, err := monitoring.NewSentryMonitor(cfg.Sentry)
	if err != nil {
		return nil, fmt.Errorf("sentry monitor: %w", err)
	}

	bus := eventbus.New[events.Event]()
	orch := pipeline.NewOrchestrator(cfg.Pipeline, client, hist, models, trainer, predictor, builder, bus, monitor, logger.New("pipeline"))

	store, err := NewRunLogStore(cfg.RunLog)
	if err != nil {
		return nil, fmt.Errorf("run log: %w", err)
	}

	var pub notify.Publisher = notify.NopPublisher{}
	if cfg.Notify.Enabled {
		pub, err = infranotify.NewMQTTPublisher(cfg.Notify)
		if err != nil {
			return nil, fmt.Errorf("mqtt publisher: %w", err)
		}
	}

	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	var kpis coremetrics.KPIStore
	if cfg.Storage.KPIFile != "" {
		kpiStore, err := kpi.NewSQLiteStore(cfg.Storage.KPIFile)
		if err != nil {
			return nil, fmt.Errorf("kpi store: %w", err)
		}
		kpis = kpiStore
		sink = coremetrics.NewMultiSink(sink, metrics.NewPunctualitySinkWithStore(prometheus.DefaultRegisterer, kpiStore))
	}

	q, err := queue.New(cfg.Queue, orch, export.NewFileWriter(cfg.Storage.ResultsFile), store, pub, bus, logger.New("queue"))
	if err != nil {
		return nil, fmt.Errorf("queue: %w", err)
	}

	mux := trains.NewMux(client, client, orch, q, predictor, store, kpis, cfg.Server.Token)

	return &Service{
		Orch:      orch,
		Queue:     q,
		Predictor: predictor,
		cfg:       cfg,
		mux:       mux,
		bus:       bus,
		sink:      sink,
		store:     store,
		pub:       pub,
		kpis:      kpis,
		monitor:   monitor,
		log:       logg,
	}, nil
}

// NewRunLogStore selects the run log backend. Unknown backends were already
// rejected by config validation.
func NewRunLogStore(cfg config.RunLogConfig) (runlog.LogStore, error) {
	if cfg.Backend == "sqlite" {
		return runlog.NewSQLiteStore(cfg.Path)
	}
	if cfg.MaxSizeMB > 0 {
		return runlog.NewRotatingJSONLStore(cfg.Path, cfg.MaxSizeMB, cfg.MaxBackups, cfg.MaxAgeDays)
	}
	return runlog.NewJSONLStore(cfg.Path)
}

// Run serves the API and streams pipeline events into the metrics sinks
// until the context is cancelled. Shutdown is graceful: the running batch
// stops dequeuing, in-flight trains finish and the listener drains within
// the configured timeout.
func (s *Service) Run(ctx context.Context) error {
	metrics.StartEventCollector(ctx, s.bus, s.sink)
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		go func() {
			if err := metrics.StartPromServer(ctx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	srv := &http.Server{Addr: s.cfg.Server.Addr, Handler: s.mux}
	errc := make(chan error, 1)
	go func() {
		s.log.Infof("api listening on %s", s.cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	timeout := time.Duration(s.cfg.Server.ShutdownTimeoutSeconds) * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.Queue.Cancel()
	if err := s.Queue.Drain(shutdownCtx); err != nil {
		s.log.Warnf("batch still draining at shutdown: %v", err)
	}
	return srv.Shutdown(shutdownCtx)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	s.pub.Close()
	s.monitor.Flush(2 * time.Second)
	var err error
	if s.kpis != nil {
		err = s.kpis.Close()
	}
	if cerr := s.store.Close(); err == nil {
		err = cerr
	}
	s.bus.Close()
	return err
}
