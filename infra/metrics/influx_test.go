package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/Parthita/train-delay-backend/core/metrics"
	"github.com/Parthita/train-delay-backend/core/model"
)

func captureServer(t *testing.T, bodies *[]string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		*bodies = append(*bodies, strings.TrimSpace(string(data)))
		w.WriteHeader(http.StatusNoContent)
	}))
}

func TestInfluxSinkRecordPipelineRun(t *testing.T) {
	var bodies []string
	srv := captureServer(t, &bodies)
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	now := time.Now()
	date := time.Date(2025, 5, 11, 0, 0, 0, 0, time.UTC)
	ev := coremetrics.PipelineRunEvent{
		Train:    "12303",
		Status:   "success",
		Date:     date,
		Delays:   model.PredictionResult{"BWN": {Minutes: 7.25}},
		Duration: 2 * time.Second,
		Time:     now,
	}
	if err := sink.RecordPipelineRun(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}

	run := write.NewPointWithMeasurement("pipeline_run").
		AddTag("train", "12303").
		AddTag("status", "success").
		AddTag("date", "2025-05-11").
		AddField("duration_ms", 2000.0).
		AddField("stations", 1).
		SetTime(now)
	delay := write.NewPointWithMeasurement("predicted_delay").
		AddTag("train", "12303").
		AddTag("station", "BWN").
		AddTag("date", "2025-05-11").
		AddField("minutes", 7.25).
		SetTime(now)
	exp := []string{
		strings.TrimSpace(write.PointToLineProtocol(run, time.Nanosecond)),
		strings.TrimSpace(write.PointToLineProtocol(delay, time.Nanosecond)),
	}
	if len(bodies) != 2 || bodies[0] != exp[0] || bodies[1] != exp[1] {
		t.Errorf("unexpected bodies: %#v want %#v", bodies, exp)
	}
}

func TestInfluxSinkRecordTrainingRun(t *testing.T) {
	var bodies []string
	srv := captureServer(t, &bodies)
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	now := time.Now()
	ev := coremetrics.TrainingRunEvent{
		Train:    "12303",
		Rows:     20,
		MAE:      4.256789,
		RMSE:     6.1,
		R2:       0.42,
		Duration: 1500 * time.Millisecond,
		Time:     now,
	}
	if err := sink.RecordTrainingRun(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("model_fit").
		AddTag("train", "12303").
		AddField("rows", 20).
		AddField("mae", 4.257).
		AddField("rmse", 6.1).
		AddField("r2", 0.42).
		AddField("duration_ms", 1500.0).
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(bodies) != 1 || bodies[0] != exp {
		t.Errorf("unexpected body: %#v want %q", bodies, exp)
	}
}

func TestInfluxSinkRecordBatch(t *testing.T) {
	var bodies []string
	srv := captureServer(t, &bodies)
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	now := time.Now()
	ev := coremetrics.BatchEvent{
		Batch:     "b1",
		Trains:    10,
		Completed: 7,
		Failed:    3,
		Duration:  time.Minute,
		Time:      now,
	}
	if err := sink.RecordBatch(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("batch_run").
		AddTag("batch", "b1").
		AddField("trains", 10).
		AddField("completed", 7).
		AddField("failed", 3).
		AddField("duration_ms", 60000.0).
		SetTime(now)
	exp := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if len(bodies) != 1 || bodies[0] != exp {
		t.Errorf("unexpected body: %#v want %q", bodies, exp)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Fatalf("health endpoint not called")
	}
}
