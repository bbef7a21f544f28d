package metrics

import (
	"context"

	"github.com/Parthita/train-delay-backend/core/events"
	coremetrics "github.com/Parthita/train-delay-backend/core/metrics"
	"github.com/Parthita/train-delay-backend/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and records metrics for
// pipeline and batch events. It stops when the context is canceled.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[events.Event], sink coremetrics.MetricsSink) {
	if bus == nil || sink == nil {
		return
	}
	sub := bus.Subscribe()
	go func() {
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				switch e := ev.(type) {
				case events.RunCompleted:
					_ = sink.RecordPipelineRun(coremetrics.PipelineRunEvent{
						Train:    e.Train,
						Name:     e.Name,
						Status:   e.Status,
						Date:     e.Date,
						Delays:   e.Delays,
						Duration: e.Duration,
						Time:     e.At,
					})
				case events.ModelTrained:
					if r, ok := sink.(coremetrics.TrainingRunRecorder); ok {
						_ = r.RecordTrainingRun(coremetrics.TrainingRunEvent{
							Train:    e.Train,
							Rows:     e.Rows,
							MAE:      e.MAE,
							RMSE:     e.RMSE,
							R2:       e.R2,
							Duration: e.Duration,
							Time:     e.At,
						})
					}
				case events.HistoryIngested:
					if r, ok := sink.(coremetrics.IngestRecorder); ok {
						_ = r.RecordIngest(coremetrics.IngestEvent{
							Train:    e.Train,
							Rows:     e.Rows,
							Usable:   e.Usable,
							Duration: e.Duration,
							Time:     e.At,
						})
					}
				case events.BatchFinished:
					if r, ok := sink.(coremetrics.BatchRecorder); ok {
						_ = r.RecordBatch(coremetrics.BatchEvent{
							Batch:     e.Batch,
							Trains:    e.Completed + e.Failed,
							Completed: e.Completed,
							Failed:    e.Failed,
							Duration:  e.Duration,
							Time:      e.At,
						})
					}
				}
			}
		}
	}()
}
