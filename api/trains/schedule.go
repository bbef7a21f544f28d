package trains

import (
	"errors"
	"net/http"

	"github.com/Parthita/train-delay-backend/core/ingest"
	"github.com/Parthita/train-delay-backend/core/model"
	"github.com/Parthita/train-delay-backend/core/pipeline"
	"github.com/Parthita/train-delay-backend/core/queue"
)

type scheduleStop struct {
	model.ScheduleStop
	PredictedDelay model.StationDelay `json:"predicted_delay"`
}

type scheduleData struct {
	TrainNumber string          `json:"train_number"`
	TrainName   string          `json:"train_name"`
	Date        string          `json:"date"`
	RunStatus   pipeline.Status `json:"run_status"`
	Message     string          `json:"message,omitempty"`
	Schedule    []scheduleStop  `json:"schedule"`
}

// NewScheduleHandler returns an HTTP handler serving
// GET /api/trains/schedule?name=&number=&date=. It fetches the timetable,
// runs the train through the pipeline and merges the predicted delay into
// each stop. Stops the run could not score carry the unavailable marker.
func NewScheduleHandler(schedules ingest.ScheduleProvider, proc queue.Processor) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			fail(w, http.StatusMethodNotAllowed, "method not allowed")
			return
		}
		params := r.URL.Query()
		if f := missing(params, "name", "number", "date"); f != "" {
			fail(w, http.StatusBadRequest, "missing required field: "+f)
			return
		}
		date, err := model.ParseDay(params.Get("date"))
		if err != nil {
			fail(w, http.StatusBadRequest, err.Error())
			return
		}

		sched, err := schedules.FetchSchedule(r.Context(), params.Get("name"), params.Get("number"))
		if errors.Is(err, ingest.ErrNoData) {
			fail(w, http.StatusNotFound, "no schedule found for train "+params.Get("number"))
			return
		}
		if err != nil {
			fail(w, http.StatusInternalServerError, err.Error())
			return
		}

		train := sched.Train
		train.Route = sched.Route()
		res := proc.Process(r.Context(), train, date)

		stops := make([]scheduleStop, len(sched.Stops))
		for i, st := range sched.Stops {
			delay, ok := res.Delays[st.Code]
			if !ok {
				delay = model.StationDelay{Unavailable: true}
			}
			stops[i] = scheduleStop{ScheduleStop: st, PredictedDelay: delay}
		}
		respond(w, http.StatusOK, envelope{Status: "success", Data: scheduleData{
			TrainNumber: train.Number,
			TrainName:   train.Name,
			Date:        date.Format("2006-01-02"),
			RunStatus:   res.Status,
			Message:     res.Message,
			Schedule:    stops,
		}})
	})
}
