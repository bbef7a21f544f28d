package modelstore

import (
	"sync"

	"github.com/Parthita/train-delay-backend/core/training"
)

// MemoryStore keeps artifacts in a map. Used by tests and cache-only API
// deployments that hydrate from elsewhere.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]training.Artifact
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: map[string]training.Artifact{}}
}

func (s *MemoryStore) Get(train string) (*training.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	art, ok := s.data[train]
	if !ok {
		return nil, ErrNotFound
	}
	return &art, nil
}

func (s *MemoryStore) Put(train string, art *training.Artifact) error {
	stamped := *art
	stamped.Train = train
	s.mu.Lock()
	s.data[train] = stamped
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Exists(train string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.data[train]
	return ok
}
