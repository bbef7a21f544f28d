// Package runlog persists the outcome of every pipeline run so batches are
// auditable after the fact and a crash loses at most the in-flight item.
package runlog

import (
	"context"
	"time"

	"github.com/Parthita/train-delay-backend/core/pipeline"
)

// RunRecord captures one pipeline run and its result.
type RunRecord struct {
	Timestamp time.Time       `json:"timestamp"`
	Batch     string          `json:"batch,omitempty"`
	Result    pipeline.Result `json:"result"`
}

// RunQuery defines filters for retrieving records. Zero fields match all.
type RunQuery struct {
	Start  time.Time
	End    time.Time
	Train  string
	Status pipeline.Status
	Batch  string
}

func (q RunQuery) matches(r RunRecord) bool {
	if !q.Start.IsZero() && r.Timestamp.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Timestamp.After(q.End) {
		return false
	}
	if q.Train != "" && r.Result.Train != q.Train {
		return false
	}
	if q.Status != "" && r.Result.Status != q.Status {
		return false
	}
	if q.Batch != "" && r.Batch != q.Batch {
		return false
	}
	return true
}

// LogStore persists RunRecords and supports querying.
type LogStore interface {
	Append(ctx context.Context, rec RunRecord) error
	Query(ctx context.Context, q RunQuery) ([]RunRecord, error)
	Close() error
}
