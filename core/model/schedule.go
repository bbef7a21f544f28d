package model

// ScheduleStop is one row of a train's published timetable.
type ScheduleStop struct {
	Number       int    `json:"station_number"` // 1-based position on the route
	Code         string `json:"station_code"`
	Name         string `json:"name"`
	Distance     string `json:"distance"` // cumulative distance as published, e.g. "528 km"
	Platform     string `json:"platform"`
	Arrival      string `json:"arrival"` // "HH:MM", or the source marker
	ArrivalDay   int    `json:"arrival_day"`
	Departure    string `json:"departure"`
	DepartureDay int    `json:"departure_day"`
}

// Schedule is a train's full timetable as returned by the schedule provider.
type Schedule struct {
	Train Train          `json:"train"`
	Stops []ScheduleStop `json:"schedule"`
}

// Route returns the ordered station codes of the schedule.
func (s Schedule) Route() []string {
	codes := make([]string, 0, len(s.Stops))
	for _, st := range s.Stops {
		codes = append(codes, st.Code)
	}
	return codes
}
