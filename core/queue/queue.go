// Package queue runs batches of trains through the pipeline on a bounded
// worker pool. A single batch runs at a time; the aggregate result file is
// rewritten after every finished train so partial progress survives a crash
// or a cancelled batch.
package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Parthita/train-delay-backend/core/events"
	"github.com/Parthita/train-delay-backend/core/logger"
	"github.com/Parthita/train-delay-backend/core/model"
	"github.com/Parthita/train-delay-backend/core/notify"
	"github.com/Parthita/train-delay-backend/core/pipeline"
	"github.com/Parthita/train-delay-backend/core/pipeline/runlog"
	"github.com/Parthita/train-delay-backend/internal/eventbus"
)

// Processor runs a single train through the pipeline and always returns a
// terminal result.
type Processor interface {
	Process(ctx context.Context, train model.Train, date time.Time) pipeline.Result
}

// ResultWriter persists the aggregate result snapshot after each finished
// train.
type ResultWriter interface {
	Write(results []pipeline.Result) error
}

// ErrBusy is returned by Enqueue while a previous batch is still draining.
var ErrBusy = errors.New("queue: a batch is already running")

// Config defines worker pool settings.
type Config struct {
	Workers         int `json:"workers"`
	ItemDelayMillis int `json:"item_delay_millis"`
}

// SetDefaults fills zero values with workable settings.
func (c *Config) SetDefaults() {
	if c.Workers == 0 {
		c.Workers = 5
	}
	if c.ItemDelayMillis == 0 {
		c.ItemDelayMillis = 500
	}
}

// Validate rejects unusable settings.
func (c Config) Validate() error {
	if c.Workers < 0 || c.ItemDelayMillis < 0 {
		return fmt.Errorf("queue settings must not be negative")
	}
	return nil
}

// Queue executes one batch at a time and fans trains out to workers.
type Queue struct {
	cfg    Config
	proc   Processor
	writer ResultWriter
	store  runlog.LogStore
	pub    notify.Publisher
	bus    *eventbus.Bus[events.Event]
	log    logger.Logger

	mu       sync.Mutex
	draining bool
	batch    string
	results  []pipeline.Result
	cancel   context.CancelFunc
	done     chan struct{}
}

// New wires a queue. writer, store, pub and bus may each be nil, which
// disables the corresponding output.
func New(cfg Config, proc Processor, writer ResultWriter, store runlog.LogStore, pub notify.Publisher, bus *eventbus.Bus[events.Event], log logger.Logger) (*Queue, error) {
	if proc == nil {
		return nil, fmt.Errorf("queue: nil processor provided to New")
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Queue{cfg: cfg, proc: proc, writer: writer, store: store, pub: pub, bus: bus, log: log}, nil
}

// Enqueue starts processing the given trains for the target date and returns
// the batch identifier. The batch runs detached from ctx: a caller going away
// does not abort it, only Cancel does. ErrBusy is returned while an earlier
// batch is still draining.
func (q *Queue) Enqueue(ctx context.Context, trains []model.Train, date time.Time) (string, error) {
	if len(trains) == 0 {
		return "", fmt.Errorf("queue: empty batch")
	}

	q.mu.Lock()
	if q.draining {
		q.mu.Unlock()
		return "", ErrBusy
	}
	batch := uuid.NewString()
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	q.draining = true
	q.batch = batch
	q.results = nil
	q.cancel = cancel
	q.done = done
	q.mu.Unlock()

	items := make(chan model.Train, len(trains))
	for _, tr := range trains {
		items <- tr
	}
	close(items)
	queueDepth.Set(float64(len(trains)))

	q.publish(events.BatchStarted{Batch: batch, Trains: len(trains), At: time.Now()})
	q.log.Infof("batch %s: %d trains queued for %s", batch, len(trains), date.Format("2006-01-02"))

	workers := q.cfg.Workers
	if workers > len(trains) {
		workers = len(trains)
	}
	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			q.work(runCtx, batch, items, date)
		}()
	}
	go func() {
		wg.Wait()
		cancel()
		queueDepth.Set(0)
		completed, failed := q.finish()
		close(done)
		batchesTotal.Inc()
		dur := time.Since(start)
		q.publish(events.BatchFinished{Batch: batch, Completed: completed, Failed: failed, Duration: dur, At: time.Now()})
		q.log.Infof("batch %s: finished, %d succeeded, %d failed in %s", batch, completed, failed, dur.Round(time.Millisecond))
	}()
	return batch, nil
}

// work drains the item channel until it is empty or the batch is cancelled.
// A run already handed to the processor finishes even after cancellation, so
// its result is never lost.
func (q *Queue) work(ctx context.Context, batch string, items <-chan model.Train, date time.Time) {
	delay := time.Duration(q.cfg.ItemDelayMillis) * time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return
		case tr, ok := <-items:
			if !ok {
				return
			}
			res := q.proc.Process(context.WithoutCancel(ctx), tr, date)
			q.record(ctx, batch, res)
			queueDepth.Dec()
			select {
			case <-ctx.Done():
				return
			case <-time.After(delay):
			}
		}
	}
}

// record appends the result and rewrites the aggregate snapshot while holding
// the lock, so a slow writer can never clobber a newer snapshot with an older
// one. Run log appends and publishes happen outside the lock.
func (q *Queue) record(ctx context.Context, batch string, res pipeline.Result) {
	q.mu.Lock()
	q.results = append(q.results, res)
	if q.writer != nil {
		if err := q.writer.Write(append([]pipeline.Result(nil), q.results...)); err != nil {
			q.log.Errorf("train %s: writing result snapshot failed: %v", res.Train, err)
		}
	}
	q.mu.Unlock()

	if q.store != nil {
		rec := runlog.RunRecord{Timestamp: time.Now(), Batch: batch, Result: res}
		if err := q.store.Append(context.WithoutCancel(ctx), rec); err != nil {
			q.log.Errorf("train %s: appending run log failed: %v", res.Train, err)
		}
	}
	if q.pub != nil {
		if err := q.pub.PublishResult(res); err != nil {
			q.log.Errorf("train %s: publishing result failed: %v", res.Train, err)
		}
	}
}

func (q *Queue) finish() (completed, failed int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.draining = false
	for _, r := range q.results {
		if r.Status == pipeline.StatusSuccess {
			completed++
		} else {
			failed++
		}
	}
	return completed, failed
}

// Results returns a copy of the results recorded so far for the current or
// most recent batch.
func (q *Queue) Results() []pipeline.Result {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]pipeline.Result(nil), q.results...)
}

// Batch returns the identifier of the current or most recent batch.
func (q *Queue) Batch() string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.batch
}

// IsDraining reports whether a batch is currently running.
func (q *Queue) IsDraining() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.draining
}

// Cancel stops dequeuing further trains from the running batch. Trains
// already in flight finish and are recorded.
func (q *Queue) Cancel() {
	q.mu.Lock()
	cancel := q.cancel
	q.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// Drain blocks until the current batch finishes or ctx expires.
func (q *Queue) Drain(ctx context.Context) error {
	q.mu.Lock()
	done := q.done
	q.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (q *Queue) publish(e events.Event) {
	if q.bus != nil {
		q.bus.Publish(e)
	}
}
