package model

import "strings"

// StationIndex resolves station display names to station codes. It is built
// once at startup from configuration and never mutated afterwards; components
// receive it explicitly and treat it as read-only.
type StationIndex struct {
	codes map[string]string
}

// NewStationIndex builds an index from a name to code map. Lookups are
// case-insensitive and ignore surrounding or repeated whitespace, since
// scraped names carry inconsistent spacing.
func NewStationIndex(names map[string]string) StationIndex {
	codes := make(map[string]string, len(names))
	for name, code := range names {
		key := normalizeStationName(name)
		if key == "" {
			continue
		}
		codes[key] = strings.ToUpper(strings.TrimSpace(code))
	}
	return StationIndex{codes: codes}
}

// Code resolves a station name to its code. The second return is false for
// names the index does not know.
func (idx StationIndex) Code(name string) (string, bool) {
	code, ok := idx.codes[normalizeStationName(name)]
	return code, ok
}

// Len reports how many stations the index knows.
func (idx StationIndex) Len() int {
	return len(idx.codes)
}

func normalizeStationName(name string) string {
	return strings.ToUpper(strings.Join(strings.Fields(name), " "))
}
