package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/Parthita/train-delay-backend/core/metrics"
	"github.com/Parthita/train-delay-backend/core/model"
)

func TestPromSinkRecordPipelineRun(t *testing.T) {
	reg := prometheus.NewRegistry()
	sinkIf, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	sink, ok := sinkIf.(*PromSink)
	if !ok {
		t.Fatalf("expected PromSink")
	}

	ev := coremetrics.PipelineRunEvent{
		Train:    "12303",
		Name:     "Poorva Express",
		Status:   "success",
		Date:     time.Date(2025, 5, 11, 0, 0, 0, 0, time.UTC),
		Duration: 2 * time.Second,
		Delays: model.PredictionResult{
			"HWH": {Minutes: 0},
			"BWN": {Minutes: 7.25},
			"GZB": {Unavailable: true},
		},
		Time: time.Now(),
	}
	if err := sink.RecordPipelineRun(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}

	expected := `
# HELP train_runs_total Total number of pipeline runs by terminal status
# TYPE train_runs_total counter
train_runs_total{status="success"} 1
`
	if err := testutil.CollectAndCompare(sink.runs, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}

	// the unavailable station must not produce a series
	expectedDelays := `
# HELP predicted_delay_minutes Latest predicted arrival delay per train and station
# TYPE predicted_delay_minutes gauge
predicted_delay_minutes{station="BWN",train="12303"} 7.25
predicted_delay_minutes{station="HWH",train="12303"} 0
`
	if err := testutil.CollectAndCompare(sink.predicted, strings.NewReader(expectedDelays)); err != nil {
		t.Errorf("unexpected delay gauges: %v", err)
	}

	if c := testutil.CollectAndCount(sink.duration); c == 0 {
		t.Errorf("duration not recorded")
	}
}

func TestPromSinkRecordTrainingAndIngest(t *testing.T) {
	reg := prometheus.NewRegistry()
	sinkIf, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	sink := sinkIf.(*PromSink)

	if err := sink.RecordTrainingRun(coremetrics.TrainingRunEvent{Train: "12303", Rows: 20, MAE: 4.2}); err != nil {
		t.Fatalf("training error: %v", err)
	}
	if err := sink.RecordIngest(coremetrics.IngestEvent{Train: "12303", Rows: 120, Usable: 110}); err != nil {
		t.Fatalf("ingest error: %v", err)
	}
	if c := testutil.CollectAndCount(sink.fitMAE); c == 0 {
		t.Errorf("fit MAE not recorded")
	}
	if c := testutil.CollectAndCount(sink.ingestRows); c == 0 {
		t.Errorf("ingest rows not recorded")
	}
}

func TestPromSinkRecordBatch(t *testing.T) {
	reg := prometheus.NewRegistry()
	sinkIf, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	sink := sinkIf.(*PromSink)

	if err := sink.RecordBatch(coremetrics.BatchEvent{Batch: "b1", Trains: 10, Completed: 7, Failed: 3}); err != nil {
		t.Fatalf("batch error: %v", err)
	}
	expected := `
# HELP batch_trains_total Trains processed by batches, by outcome
# TYPE batch_trains_total counter
batch_trains_total{result="completed"} 7
batch_trains_total{result="failed"} 3
`
	if err := testutil.CollectAndCompare(sink.batch, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected batch metrics: %v", err)
	}
}

func TestPromSinkReregister(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("first sink: %v", err)
	}
	// a second sink on the same registry reuses the existing collectors
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("second sink: %v", err)
	}
}
