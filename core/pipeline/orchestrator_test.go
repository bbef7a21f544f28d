package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Parthita/train-delay-backend/core/events"
	"github.com/Parthita/train-delay-backend/core/features"
	"github.com/Parthita/train-delay-backend/core/history"
	"github.com/Parthita/train-delay-backend/core/ingest"
	"github.com/Parthita/train-delay-backend/core/model"
	"github.com/Parthita/train-delay-backend/core/modelstore"
	"github.com/Parthita/train-delay-backend/core/prediction"
	"github.com/Parthita/train-delay-backend/core/training"
	"github.com/Parthita/train-delay-backend/infra/logger"
	"github.com/Parthita/train-delay-backend/internal/eventbus"
)

func day(n int) time.Time {
	return time.Date(2025, 5, n, 0, 0, 0, 0, time.UTC)
}

func series(station string, delays ...float64) []model.HistoryRecord {
	recs := make([]model.HistoryRecord, len(delays))
	for i, d := range delays {
		recs[i] = model.HistoryRecord{Station: station, Date: day(i + 1), DelayMinutes: d}
	}
	return recs
}

func usableHistory() []model.HistoryRecord {
	var recs []model.HistoryRecord
	for _, s := range []string{"HWH", "BWN"} {
		recs = append(recs, series(s, 5, 10, 0, 8, 12, 3, 7, 9, 2, 6)...)
	}
	return recs
}

type captureMonitor struct {
	mu       sync.Mutex
	captured []error
}

func (m *captureMonitor) CaptureException(err error, _ map[string]string) {
	m.mu.Lock()
	m.captured = append(m.captured, err)
	m.mu.Unlock()
}
func (m *captureMonitor) Recover()            {}
func (m *captureMonitor) Flush(time.Duration) {}

func (m *captureMonitor) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.captured)
}

type testDeps struct {
	ingestor *ingest.MockIngestor
	history  history.Store
	models   modelstore.Store
	bus      *eventbus.Bus[events.Event]
	monitor  *captureMonitor
}

func newTestOrchestrator(t *testing.T, mutate func(*testDeps)) (*Orchestrator, *testDeps) {
	t.Helper()
	deps := &testDeps{
		ingestor: ingest.NewMockIngestor(),
		history:  history.NewMemoryStore(),
		models:   modelstore.NewMemoryStore(),
		bus:      eventbus.New[events.Event](),
		monitor:  &captureMonitor{},
	}
	if mutate != nil {
		mutate(deps)
	}
	log := logger.NopLogger{}
	builder := features.NewBuilder(log)
	trainer := training.NewTrainer(training.DefaultParams(), log)
	predictor := prediction.NewPredictor(deps.models, deps.history, builder, log)
	o := NewOrchestrator(Config{}, deps.ingestor, deps.history, deps.models, trainer, predictor, builder, deps.bus, deps.monitor, log)
	return o, deps
}

func TestProcessSuccess(t *testing.T) {
	o, deps := newTestOrchestrator(t, nil)
	deps.ingestor.Records["12303"] = usableHistory()
	train := model.Train{Number: "12303", Name: "Poorva Express", Route: []string{"HWH", "BWN"}}

	res := o.Process(context.Background(), train, day(11))
	if res.Status != StatusSuccess {
		t.Fatalf("expected success got %s (%s)", res.Status, res.Message)
	}
	if len(res.Delays) != 2 {
		t.Fatalf("expected 2 stations got %d", len(res.Delays))
	}
	if res.Delays["HWH"].Minutes != 0 {
		t.Fatalf("origin must be 0, got %v", res.Delays["HWH"].Minutes)
	}
	if res.Metrics == nil || res.Metrics.Rows != 20 {
		t.Fatalf("expected holdout metrics over 20 rows, got %+v", res.Metrics)
	}
	if !deps.models.Exists("12303") {
		t.Fatal("artifact not persisted")
	}
	if !deps.history.Exists("12303") {
		t.Fatal("history not cached")
	}
	if !res.Date.Equal(day(11)) {
		t.Fatalf("result date not normalized: %v", res.Date)
	}
}

func TestProcessCacheSkipsIngest(t *testing.T) {
	o, deps := newTestOrchestrator(t, nil)
	deps.ingestor.Records["12303"] = usableHistory()
	train := model.Train{Number: "12303", Route: []string{"HWH", "BWN"}}

	first := o.Process(context.Background(), train, day(11))
	second := o.Process(context.Background(), train, day(12))
	if first.Status != StatusSuccess || second.Status != StatusSuccess {
		t.Fatalf("expected both runs to succeed: %s / %s", first.Status, second.Status)
	}
	if got := deps.ingestor.Calls("12303"); got != 1 {
		t.Fatalf("cache hit should not re-ingest, got %d fetches", got)
	}
	if second.Metrics != nil {
		t.Fatalf("cache hit should not refit, got metrics %+v", second.Metrics)
	}
}

func TestProcessNoData(t *testing.T) {
	o, deps := newTestOrchestrator(t, nil)
	train := model.Train{Number: "40001"}

	res := o.Process(context.Background(), train, day(11))
	if res.Status != StatusNoData {
		t.Fatalf("expected no_data got %s", res.Status)
	}
	if res.Message == "" {
		t.Fatal("expected a human-readable message")
	}
	if deps.models.Exists("40001") {
		t.Fatal("no artifact should be written")
	}
}

func TestProcessIngestTimeout(t *testing.T) {
	o, deps := newTestOrchestrator(t, nil)
	deps.ingestor.FailFor["12303"] = context.DeadlineExceeded
	train := model.Train{Number: "12303"}

	res := o.Process(context.Background(), train, day(11))
	if res.Status != StatusNoData {
		t.Fatalf("expected no_data got %s", res.Status)
	}
	if !strings.Contains(res.Message, "timed out") {
		t.Fatalf("expected timeout message, got %q", res.Message)
	}
}

func TestProcessInsufficientData(t *testing.T) {
	o, deps := newTestOrchestrator(t, nil)
	// One usable row; the 300-minute row is filtered as an outlier.
	deps.ingestor.Records["12303"] = []model.HistoryRecord{
		{Station: "HWH", Date: day(1), DelayMinutes: 5},
		{Station: "HWH", Date: day(2), DelayMinutes: 300},
	}
	train := model.Train{Number: "12303"}

	res := o.Process(context.Background(), train, day(11))
	if res.Status != StatusInsufficientData {
		t.Fatalf("expected insufficient_data got %s", res.Status)
	}
}

type failingModelStore struct {
	modelstore.Store
	failPut bool
	failGet bool
}

func (s *failingModelStore) Put(train string, art *training.Artifact) error {
	if s.failPut {
		return errors.New("disk full")
	}
	return s.Store.Put(train, art)
}

func (s *failingModelStore) Get(train string) (*training.Artifact, error) {
	if s.failGet {
		return nil, errors.New("corrupt artifact")
	}
	return s.Store.Get(train)
}

func TestProcessModelFailedOnPersist(t *testing.T) {
	o, deps := newTestOrchestrator(t, func(d *testDeps) {
		d.models = &failingModelStore{Store: modelstore.NewMemoryStore(), failPut: true}
	})
	deps.ingestor.Records["12303"] = usableHistory()
	train := model.Train{Number: "12303"}

	res := o.Process(context.Background(), train, day(11))
	if res.Status != StatusModelFailed {
		t.Fatalf("expected model_failed got %s", res.Status)
	}
	if !strings.Contains(res.Message, "persist model") {
		t.Fatalf("unexpected message %q", res.Message)
	}
}

func TestProcessPredictionFailed(t *testing.T) {
	o, deps := newTestOrchestrator(t, func(d *testDeps) {
		d.models = &failingModelStore{Store: modelstore.NewMemoryStore(), failGet: true}
	})
	deps.ingestor.Records["12303"] = usableHistory()
	train := model.Train{Number: "12303"}

	res := o.Process(context.Background(), train, day(11))
	if res.Status != StatusPredictionFailed {
		t.Fatalf("expected prediction_failed got %s", res.Status)
	}
	if deps.monitor.count() == 0 {
		t.Fatal("prediction failure should be reported to the monitor")
	}
}

type panickyHistory struct {
	history.Store
}

func (panickyHistory) Save(string, []model.HistoryRecord) error {
	panic("going down")
}

func TestProcessPanicIsConverted(t *testing.T) {
	o, deps := newTestOrchestrator(t, func(d *testDeps) {
		d.history = panickyHistory{Store: history.NewMemoryStore()}
	})
	deps.ingestor.Records["12303"] = usableHistory()
	train := model.Train{Number: "12303"}

	res := o.Process(context.Background(), train, day(11))
	if res.Status != StatusError {
		t.Fatalf("expected error got %s", res.Status)
	}
	if !strings.Contains(res.Message, "internal error") {
		t.Fatalf("unexpected message %q", res.Message)
	}
	if deps.monitor.count() != 1 {
		t.Fatalf("expected 1 capture got %d", deps.monitor.count())
	}
}

func TestProcessPublishesEvents(t *testing.T) {
	o, deps := newTestOrchestrator(t, nil)
	sub := deps.bus.Subscribe()
	deps.ingestor.Records["12303"] = usableHistory()
	train := model.Train{Number: "12303", Route: []string{"HWH", "BWN"}}

	res := o.Process(context.Background(), train, day(11))
	if res.Status != StatusSuccess {
		t.Fatalf("expected success got %s", res.Status)
	}

	kinds := map[string]bool{}
	for i := 0; i < 3; i++ {
		select {
		case ev := <-sub:
			kinds[ev.Kind()] = true
		case <-time.After(time.Second):
			t.Fatalf("missing events, saw %v", kinds)
		}
	}
	for _, k := range []string{"history_ingested", "model_trained", "run_completed"} {
		if !kinds[k] {
			t.Fatalf("missing %s event, saw %v", k, kinds)
		}
	}
}

func TestConfigDefaultsAndValidate(t *testing.T) {
	var c Config
	c.SetDefaults()
	if c.IngestTimeoutSeconds != 60 || c.TrainTimeoutSeconds != 120 {
		t.Fatalf("unexpected defaults %+v", c)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	bad := Config{IngestTimeoutSeconds: -1}
	if err := bad.Validate(); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() {
		t.Fatal("pending is not terminal")
	}
	for _, s := range []Status{StatusSuccess, StatusNoData, StatusInsufficientData, StatusModelFailed, StatusPredictionFailed, StatusError} {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
}
