package features

import "github.com/Parthita/train-delay-backend/core/model"

// Delay observations outside this band are treated as data errors (bad
// scrapes, diverted services) and excluded before any feature is computed.
// Both bounds are exclusive.
const (
	MinUsableDelay = -30.0
	MaxUsableDelay = 120.0
)

// NumFeatures is the width of every feature row.
const NumFeatures = 15

// Columns lists the feature columns in the exact order rows are laid out.
func Columns() []string {
	return []string{
		"station_encoded", "day", "month", "year", "day_of_week", "is_weekend",
		"month_sin", "month_cos", "day_sin", "day_cos",
		"prev_delay_1", "prev_delay_2", "prev_delay_3",
		"rolling_mean_3", "rolling_median_7",
	}
}

// FilterOutliers returns the records whose delay lies strictly inside the
// usable band. The input slice is not modified.
func FilterOutliers(records []model.HistoryRecord) []model.HistoryRecord {
	out := make([]model.HistoryRecord, 0, len(records))
	for _, r := range records {
		if r.DelayMinutes > MinUsableDelay && r.DelayMinutes < MaxUsableDelay {
			out = append(out, r)
		}
	}
	return out
}
