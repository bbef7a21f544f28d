package trains

import (
	"errors"
	"net/http"

	"github.com/Parthita/train-delay-backend/core/ingest"
	"github.com/Parthita/train-delay-backend/core/model"
	"github.com/Parthita/train-delay-backend/core/pipeline"
	"github.com/Parthita/train-delay-backend/core/queue"
)

type betweenData struct {
	Batch  string               `json:"batch"`
	Date   string               `json:"date"`
	Trains []model.TrainSummary `json:"trains"`
}

// NewBetweenHandler returns an HTTP handler serving
// GET /api/trains/between?source_name=&source_code=&destination_name=&destination_code=&date=.
// Every train found is enqueued without a fixed route, so the pipeline
// derives stations from history and the origin rule lands on the train's real
// origin rather than the queried boarding station. The response carries the
// batch id to poll /api/trains/results with.
func NewBetweenHandler(finder ingest.TrainFinder, q BatchQueue) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			fail(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		params := r.URL.Query()
		if f := missing(params, "source_name", "source_code", "destination_name", "destination_code", "date"); f != "" {
			fail(w, http.StatusBadRequest, "missing required field: "+f)
			return
		}
		date, err := model.ParseDay(params.Get("date"))
		if err != nil {
			fail(w, http.StatusBadRequest, err.Error())
			return
		}

		summaries, err := finder.FindTrains(r.Context(),
			params.Get("source_name"), params.Get("source_code"),
			params.Get("destination_name"), params.Get("destination_code"),
			date)
		if errors.Is(err, ingest.ErrNoData) {
			fail(w, http.StatusNotFound, "no trains found between stations")
			return
		}
		if err != nil {
			fail(w, http.StatusInternalServerError, err.Error())
			return
		}

		batch := make([]model.Train, len(summaries))
		for i, s := range summaries {
			batch[i] = model.Train{Number: s.Number, Name: s.Name}
		}
		id, err := q.Enqueue(r.Context(), batch, date)
		if errors.Is(err, queue.ErrBusy) {
			fail(w, http.StatusConflict, err.Error())
			return
		}
		if err != nil {
			fail(w, http.StatusInternalServerError, err.Error())
			return
		}
		respond(w, http.StatusAccepted, envelope{Status: "success", Data: betweenData{
			Batch:  id,
			Date:   date.Format("2006-01-02"),
			Trains: summaries,
		}})
	})
}

type resultsData struct {
	Batch    string            `json:"batch"`
	Draining bool              `json:"draining"`
	Results  []pipeline.Result `json:"results"`
}

// NewResultsHandler returns an HTTP handler serving
// GET /api/trains/results?batch=. It reports the current or most recent
// batch; the draining flag tells pollers whether more results are coming.
func NewResultsHandler(q BatchQueue) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			fail(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		current := q.Batch()
		if want := r.URL.Query().Get("batch"); want != "" && want != current {
			fail(w, http.StatusNotFound, "unknown batch "+want)
			return
		}
		results := q.Results()
		if results == nil {
			results = []pipeline.Result{}
		}
		respond(w, http.StatusOK, envelope{Status: "success", Data: resultsData{
			Batch:    current,
			Draining: q.IsDraining(),
			Results:  results,
		}})
	})
}
