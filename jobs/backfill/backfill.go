// Package backfill rebuilds derived stores from the run log.
package backfill

import (
	"context"

	coremetrics "github.com/Parthita/train-delay-backend/core/metrics"
	"github.com/Parthita/train-delay-backend/core/model"
	"github.com/Parthita/train-delay-backend/core/pipeline"
	"github.com/Parthita/train-delay-backend/core/pipeline/runlog"
)

type dayKey struct {
	train string
	day   int64
}

// KPIs replays every run log record into the punctuality store and returns
// the number of runs processed. Records are aggregated per train and day
// first so each pair is added exactly once; the target store must start
// empty or the additive merge double-counts.
func KPIs(ctx context.Context, runs runlog.LogStore, kpis coremetrics.KPIStore) (int, error) {
	recs, err := runs.Query(ctx, runlog.RunQuery{})
	if err != nil {
		return 0, err
	}
	agg := make(map[dayKey]coremetrics.KPIRecord)
	for _, r := range recs {
		day := model.Day(r.Result.Date)
		key := dayKey{train: r.Result.Train, day: day.Unix()}
		rec := agg[key]
		rec.Train = r.Result.Train
		rec.Day = day
		rec.Runs++
		if r.Result.Status == pipeline.StatusSuccess {
			rec.Successes++
		}
		for _, d := range r.Result.Delays {
			if d.Unavailable {
				continue
			}
			rec.DelaySum += d.Minutes
			rec.DelayN++
		}
		agg[key] = rec
	}
	for _, rec := range agg {
		if err := kpis.Add(rec); err != nil {
			return 0, err
		}
	}
	return len(recs), nil
}
