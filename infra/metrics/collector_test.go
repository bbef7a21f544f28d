package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Parthita/train-delay-backend/core/events"
	coremetrics "github.com/Parthita/train-delay-backend/core/metrics"
	"github.com/Parthita/train-delay-backend/internal/eventbus"
)

// recordingSink counts every event type it receives.
type recordingSink struct {
	mu      sync.Mutex
	runs    int
	fits    int
	ingests int
	batches int
}

func (s *recordingSink) RecordPipelineRun(coremetrics.PipelineRunEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs++
	return nil
}

func (s *recordingSink) RecordTrainingRun(coremetrics.TrainingRunEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fits++
	return nil
}

func (s *recordingSink) RecordIngest(coremetrics.IngestEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ingests++
	return nil
}

func (s *recordingSink) RecordBatch(coremetrics.BatchEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.batches++
	return nil
}

func (s *recordingSink) counts() (int, int, int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runs, s.fits, s.ingests, s.batches
}

func TestStartEventCollector(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := eventbus.New[events.Event]()
	defer bus.Close()
	sink := &recordingSink{}
	StartEventCollector(ctx, bus, sink)

	bus.Publish(events.RunCompleted{Train: "12303", Status: "success", At: time.Now()})
	bus.Publish(events.ModelTrained{Train: "12303", Rows: 20, At: time.Now()})
	bus.Publish(events.HistoryIngested{Train: "12303", Rows: 100, Usable: 90, At: time.Now()})
	bus.Publish(events.BatchStarted{Batch: "b1", Trains: 1, At: time.Now()})
	bus.Publish(events.BatchFinished{Batch: "b1", Completed: 1, At: time.Now()})

	deadline := time.After(2 * time.Second)
	for {
		runs, fits, ingests, batches := sink.counts()
		if runs == 1 && fits == 1 && ingests == 1 && batches == 1 {
			return
		}
		select {
		case <-deadline:
			t.Fatalf("collector did not record all events: runs=%d fits=%d ingests=%d batches=%d",
				runs, fits, ingests, batches)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestStartEventCollectorNilArgs(t *testing.T) {
	// must not panic
	StartEventCollector(context.Background(), nil, &recordingSink{})
	bus := eventbus.New[events.Event]()
	defer bus.Close()
	StartEventCollector(context.Background(), bus, nil)
}
