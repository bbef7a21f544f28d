package history

import (
	"sync"

	"github.com/Parthita/train-delay-backend/core/model"
)

// MemoryStore keeps histories in a map, for tests.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]model.HistoryRecord
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string][]model.HistoryRecord{}}
}

func (s *MemoryStore) Load(train string) ([]model.HistoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	recs, ok := s.data[train]
	if !ok {
		return nil, ErrNoHistory
	}
	out := make([]model.HistoryRecord, len(recs))
	copy(out, recs)
	return out, nil
}

func (s *MemoryStore) Save(train string, records []model.HistoryRecord) error {
	cp := make([]model.HistoryRecord, len(records))
	copy(cp, records)
	s.mu.Lock()
	s.data[train] = cp
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Exists(train string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[train]
	return ok
}
