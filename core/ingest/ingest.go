package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/Parthita/train-delay-backend/core/model"
)

// ErrNoData indicates the upstream source has no observations for the train.
var ErrNoData = errors.New("no history data")

// HistoryIngestor fetches a train's historical delay observations from an
// external source. Implementations return ErrNoData when the source has
// nothing for the train and honor ctx cancellation, since this is the
// slowest call in the pipeline.
type HistoryIngestor interface {
	FetchHistory(ctx context.Context, trainName, trainNumber string) ([]model.HistoryRecord, error)
}

// ScheduleProvider fetches a train's published timetable.
type ScheduleProvider interface {
	FetchSchedule(ctx context.Context, trainName, trainNumber string) (*model.Schedule, error)
}

// TrainFinder lists trains running between two stations on a date.
type TrainFinder interface {
	FindTrains(ctx context.Context, srcName, srcCode, dstName, dstCode string, date time.Time) ([]model.TrainSummary, error)
}
