package trains

import (
	"net/http"
	"time"

	"github.com/Parthita/train-delay-backend/core/model"
	"github.com/Parthita/train-delay-backend/core/prediction"
)

type predictData struct {
	TrainNumber string                 `json:"train_number"`
	Date        string                 `json:"date"`
	Delays      model.PredictionResult `json:"delays"`
}

// NewPredictHandler returns an HTTP handler serving
// GET /api/trains/predict?number=&date=. It scores from cached artifacts
// only, with no ingestion side effects; date defaults to today.
func NewPredictHandler(eng prediction.Engine) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			fail(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		params := r.URL.Query()
		number := params.Get("number")
		if number == "" {
			fail(w, http.StatusBadRequest, "missing required field: number")
			return
		}
		date := time.Now()
		if s := params.Get("date"); s != "" {
			var err error
			if date, err = model.ParseDay(s); err != nil {
				fail(w, http.StatusBadRequest, err.Error())
				return
			}
		}

		train := model.Train{Number: number, Name: params.Get("name")}
		delays, err := eng.Predict(train, date)
		if err != nil {
			fail(w, http.StatusInternalServerError, err.Error())
			return
		}
		if len(delays) == 0 {
			fail(w, http.StatusNotFound, "no cached data for train "+number)
			return
		}
		respond(w, http.StatusOK, envelope{Status: "success", Data: predictData{
			TrainNumber: number,
			Date:        model.Day(date).Format("2006-01-02"),
			Delays:      delays,
		}})
	})
}
