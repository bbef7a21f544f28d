package monitoring

import (
	"testing"

	coremon "github.com/Parthita/train-delay-backend/core/monitoring"
)

func TestNewSentryMonitorDisabled(t *testing.T) {
	m, err := NewSentryMonitor(Config{})
	if err != nil {
		t.Fatalf("new monitor: %v", err)
	}
	if _, ok := m.(coremon.NopMonitor); !ok {
		t.Fatalf("empty DSN should yield NopMonitor, got %T", m)
	}
	// no-op monitor must be safe to use
	m.CaptureException(nil, nil)
	m.Flush(0)
}
