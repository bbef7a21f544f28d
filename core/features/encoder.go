package features

import "sort"

// StationEncoder maps station codes to the dense integer ids the regressor
// consumes. Fitting sorts the unique codes so identical inputs always yield
// identical ids. Extending appends unseen codes after the existing ones, so
// ids already baked into a persisted model never move.
type StationEncoder struct {
	Classes []string `json:"classes"` // the code at index i encodes to i
}

// NewStationEncoder fits an encoder over codes. Duplicates are dropped and
// the remainder sorted.
func NewStationEncoder(codes []string) *StationEncoder {
	seen := make(map[string]struct{}, len(codes))
	classes := make([]string, 0, len(codes))
	for _, c := range codes {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		classes = append(classes, c)
	}
	sort.Strings(classes)
	return &StationEncoder{Classes: classes}
}

// Encode returns the id for code. ok is false when the code was never fit.
func (e *StationEncoder) Encode(code string) (int, bool) {
	for i, c := range e.Classes {
		if c == code {
			return i, true
		}
	}
	return 0, false
}

// Missing returns the subset of codes the encoder does not know, in input
// order and without duplicates.
func (e *StationEncoder) Missing(codes []string) []string {
	var missing []string
	seen := make(map[string]struct{})
	for _, c := range codes {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		if _, ok := e.Encode(c); !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// Extend returns a new encoder covering every existing class plus the given
// codes. Existing ids are preserved; unseen codes are sorted among themselves
// and appended. The receiver is not modified.
func (e *StationEncoder) Extend(codes []string) *StationEncoder {
	missing := e.Missing(codes)
	if len(missing) == 0 {
		return e
	}
	sort.Strings(missing)
	classes := make([]string, 0, len(e.Classes)+len(missing))
	classes = append(classes, e.Classes...)
	classes = append(classes, missing...)
	return &StationEncoder{Classes: classes}
}

// Len returns the number of known classes.
func (e *StationEncoder) Len() int { return len(e.Classes) }
