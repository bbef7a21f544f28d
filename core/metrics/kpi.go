package metrics

import "time"

// KPIRecord aggregates one train's pipeline outcomes for one day. DelaySum
// and DelayN accumulate over scored stations so MeanDelay stays exact when
// records are merged additively.
type KPIRecord struct {
	Train     string
	Day       time.Time
	Runs      int
	Successes int
	DelaySum  float64
	DelayN    int
}

// SuccessRatio returns the share of successful runs, or 0 for no runs.
func (r KPIRecord) SuccessRatio() float64 {
	if r.Runs == 0 {
		return 0
	}
	return float64(r.Successes) / float64(r.Runs)
}

// MeanDelay returns the mean predicted delay over scored stations, or 0 when
// none were scored.
func (r KPIRecord) MeanDelay() float64 {
	if r.DelayN == 0 {
		return 0
	}
	return r.DelaySum / float64(r.DelayN)
}

// KPIStore persists daily punctuality aggregates. Add merges additively:
// recording the same train and day twice accumulates instead of overwriting.
type KPIStore interface {
	Add(rec KPIRecord) error
	Query(train string, start, end time.Time) ([]KPIRecord, error)
	Close() error
}
