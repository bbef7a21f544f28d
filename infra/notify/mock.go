package notify

import (
	"fmt"
	"sync"

	"github.com/Parthita/train-delay-backend/core/pipeline"
)

// MockPublisher records published results in memory. Exported so other
// packages can use it in their tests.
type MockPublisher struct {
	mu        sync.Mutex
	Published []pipeline.Result
	FailFor   map[string]bool
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{FailFor: map[string]bool{}}
}

func (m *MockPublisher) PublishResult(res pipeline.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailFor[res.Train] {
		return fmt.Errorf("mock publish failure for train %s", res.Train)
	}
	m.Published = append(m.Published, res)
	return nil
}

func (m *MockPublisher) Close() {}

// Results returns a copy of everything published so far.
func (m *MockPublisher) Results() []pipeline.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]pipeline.Result, len(m.Published))
	copy(out, m.Published)
	return out
}
