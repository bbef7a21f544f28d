package model

import (
	"fmt"
	"time"
)

// HistoryRecord is a single observed arrival delay for one station on one
// service date. Records are produced by the ingestion layer and consumed by
// feature engineering; the core does not keep them beyond a pipeline run.
type HistoryRecord struct {
	Station      string    `json:"station"`       // station code
	Date         time.Time `json:"date"`          // service date, midnight UTC
	DelayMinutes float64   `json:"delay_minutes"` // arrival delay in minutes, negative means early
}

// Day truncates t to midnight UTC so service dates compare exactly no matter
// what wall-clock component the source carried.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a service date in either ISO (2006-01-02) or compact
// (20060102) form, the two layouts the upstream source uses.
func ParseDay(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", "20060102"} {
		if t, err := time.Parse(layout, s); err == nil {
			return Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, want YYYY-MM-DD or YYYYMMDD", s)
}
