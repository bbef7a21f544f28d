package model

import (
	"encoding/json"
	"fmt"
)

// StationDelay is one station's predicted delay in minutes. Unavailable marks
// a station the pipeline ran for but could not score, which is distinct from
// a prediction of zero.
type StationDelay struct {
	Minutes     float64
	Unavailable bool
}

// MarshalJSON encodes an available delay as a bare number and an unavailable
// one as the string "unavailable".
func (d StationDelay) MarshalJSON() ([]byte, error) {
	if d.Unavailable {
		return json.Marshal("unavailable")
	}
	return json.Marshal(d.Minutes)
}

// UnmarshalJSON accepts both encodings produced by MarshalJSON.
func (d *StationDelay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if s != "unavailable" {
			return fmt.Errorf("unexpected delay marker %q", s)
		}
		*d = StationDelay{Unavailable: true}
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*d = StationDelay{Minutes: f}
	return nil
}

// PredictionResult maps each station code on a train's route to its predicted
// delay for the target date. Every route station is present; missing values
// are expressed through the unavailable marker, never by omission.
type PredictionResult map[string]StationDelay

// UnavailableResult marks every station in route unavailable. Used when no
// artifact exists or prediction failed as a whole.
func UnavailableResult(route []string) PredictionResult {
	r := make(PredictionResult, len(route))
	for _, s := range route {
		r[s] = StationDelay{Unavailable: true}
	}
	return r
}
