package trains

import (
	"net/http"
	"time"

	coremetrics "github.com/Parthita/train-delay-backend/core/metrics"
)

// NewKPIHandler exposes daily punctuality KPIs via
// GET /api/trains/kpis?train=&start=&end=. end defaults to now.
func NewKPIHandler(store coremetrics.KPIStore) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			fail(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		train := r.URL.Query().Get("train")
		if train == "" {
			fail(w, http.StatusBadRequest, "missing required field: train")
			return
		}
		start, _ := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
		end, _ := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
		if end.IsZero() {
			end = time.Now()
		}
		recs, err := store.Query(train, start, end)
		if err != nil {
			fail(w, http.StatusInternalServerError, err.Error())
			return
		}
		type out struct {
			Day          string  `json:"day"`
			Runs         int     `json:"runs"`
			Successes    int     `json:"successes"`
			SuccessRatio float64 `json:"success_ratio"`
			MeanDelay    float64 `json:"mean_delay_minutes"`
		}
		outSlice := make([]out, len(recs))
		for i, rec := range recs {
			outSlice[i] = out{
				Day:          rec.Day.Format("2006-01-02"),
				Runs:         rec.Runs,
				Successes:    rec.Successes,
				SuccessRatio: rec.SuccessRatio(),
				MeanDelay:    rec.MeanDelay(),
			}
		}
		respond(w, http.StatusOK, envelope{Status: "success", Data: outSlice})
	})
}
