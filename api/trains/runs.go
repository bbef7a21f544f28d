package trains

import (
	"net/http"
	"time"

	"github.com/Parthita/train-delay-backend/core/pipeline"
	"github.com/Parthita/train-delay-backend/core/pipeline/runlog"
)

// NewRunsHandler returns an HTTP handler exposing the run log via
// GET /api/trains/runs. Requests must include an Authorization header with
// "Bearer <token>" when token is non-empty.
func NewRunsHandler(store runlog.LogStore, token string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			fail(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		if token != "" {
			auth := r.Header.Get("Authorization")
			if auth != "Bearer "+token {
				fail(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		q := runlog.RunQuery{}
		if s := r.URL.Query().Get("start"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.Start = t
			}
		}
		if s := r.URL.Query().Get("end"); s != "" {
			if t, err := time.Parse(time.RFC3339, s); err == nil {
				q.End = t
			}
		}
		q.Train = r.URL.Query().Get("train")
		q.Batch = r.URL.Query().Get("batch")
		if st := r.URL.Query().Get("status"); st != "" {
			if v, ok := statusFromString(st); ok {
				q.Status = v
			}
		}
		records, err := store.Query(r.Context(), q)
		if err != nil {
			fail(w, http.StatusInternalServerError, err.Error())
			return
		}
		if records == nil {
			records = []runlog.RunRecord{}
		}
		respond(w, http.StatusOK, envelope{Status: "success", Data: records})
	})
}

func statusFromString(s string) (pipeline.Status, bool) {
	switch st := pipeline.Status(s); st {
	case pipeline.StatusPending, pipeline.StatusSuccess, pipeline.StatusNoData,
		pipeline.StatusInsufficientData, pipeline.StatusModelFailed,
		pipeline.StatusPredictionFailed, pipeline.StatusError:
		return st, true
	default:
		return "", false
	}
}
