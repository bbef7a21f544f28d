package ingest

import (
	"context"
	"sync"
	"time"

	"github.com/Parthita/train-delay-backend/core/model"
)

// MockIngestor serves canned history and counts calls per train. Tests use
// it to assert the cache short-circuit never re-ingests and that failures
// stay isolated to their train.
type MockIngestor struct {
	Records map[string][]model.HistoryRecord
	FailFor map[string]error
	Latency time.Duration // simulated fetch time, for timeout tests

	mu    sync.Mutex
	calls map[string]int
}

// NewMockIngestor creates an empty MockIngestor.
func NewMockIngestor() *MockIngestor {
	return &MockIngestor{
		Records: make(map[string][]model.HistoryRecord),
		FailFor: make(map[string]error),
		calls:   make(map[string]int),
	}
}

// FetchHistory returns the canned records, the configured failure, or
// ErrNoData when nothing is configured for the train.
func (m *MockIngestor) FetchHistory(ctx context.Context, trainName, trainNumber string) ([]model.HistoryRecord, error) {
	m.mu.Lock()
	m.calls[trainNumber]++
	m.mu.Unlock()

	if m.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Latency):
		}
	}
	if err := m.FailFor[trainNumber]; err != nil {
		return nil, err
	}
	recs, ok := m.Records[trainNumber]
	if !ok || len(recs) == 0 {
		return nil, ErrNoData
	}
	out := make([]model.HistoryRecord, len(recs))
	copy(out, recs)
	return out, nil
}

// Calls reports how many times the train's history was fetched.
func (m *MockIngestor) Calls(trainNumber string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[trainNumber]
}
