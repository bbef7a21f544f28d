// Package trains exposes the prediction pipeline over HTTP. Handlers stay
// thin: they parse parameters, call into core and shape the JSON response;
// every pipeline semantic lives behind the interfaces they depend on.
package trains

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"github.com/Parthita/train-delay-backend/core/ingest"
	coremetrics "github.com/Parthita/train-delay-backend/core/metrics"
	"github.com/Parthita/train-delay-backend/core/model"
	"github.com/Parthita/train-delay-backend/core/pipeline"
	"github.com/Parthita/train-delay-backend/core/pipeline/runlog"
	"github.com/Parthita/train-delay-backend/core/prediction"
	"github.com/Parthita/train-delay-backend/core/queue"
)

// BatchQueue is the queue surface the batch endpoints need. *queue.Queue
// implements it.
type BatchQueue interface {
	Enqueue(ctx context.Context, trains []model.Train, date time.Time) (string, error)
	Batch() string
	Results() []pipeline.Result
	IsDraining() bool
}

// NewMux assembles every API route onto one ServeMux. token guards the run
// log endpoint; an empty token leaves it open. kpis may be nil, which leaves
// the KPI route unregistered.
func NewMux(
	schedules ingest.ScheduleProvider,
	finder ingest.TrainFinder,
	proc queue.Processor,
	q BatchQueue,
	eng prediction.Engine,
	runs runlog.LogStore,
	kpis coremetrics.KPIStore,
	token string,
) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/api/trains/schedule", NewScheduleHandler(schedules, proc))
	mux.Handle("/api/trains/between", NewBetweenHandler(finder, q))
	mux.Handle("/api/trains/results", NewResultsHandler(q))
	mux.Handle("/api/trains/predict", NewPredictHandler(eng))
	mux.Handle("/api/trains/runs", NewRunsHandler(runs, token))
	if kpis != nil {
		mux.Handle("/api/trains/kpis", NewKPIHandler(kpis))
	}
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respond(w, http.StatusOK, map[string]string{"status": "healthy"})
	})
	return mux
}

type envelope struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

func respond(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func fail(w http.ResponseWriter, code int, msg string) {
	respond(w, code, map[string]string{"error": msg})
}

// missing returns the first named query parameter without a value, or "".
func missing(q url.Values, fields ...string) string {
	for _, f := range fields {
		if q.Get(f) == "" {
			return f
		}
	}
	return ""
}
