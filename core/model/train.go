package model

import "fmt"

// Train identifies one scheduled service and the ordered stations it calls at.
type Train struct {
	Number string   // numeric identifier, e.g. "12303"
	Name   string   // public name, e.g. "Poorva Express"
	Route  []string // station codes in calling order, origin first
}

// Origin returns the first station of the route, or "" for an empty route.
func (t Train) Origin() string {
	if len(t.Route) == 0 {
		return ""
	}
	return t.Route[0]
}

// Validate checks that the train carries enough information to be processed.
// The route is optional: pipelines that only know the number derive stations
// from cached history.
func (t Train) Validate() error {
	if t.Number == "" {
		return fmt.Errorf("train number is required")
	}
	return nil
}
