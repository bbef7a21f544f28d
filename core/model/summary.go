package model

// TrainSummary is one row of a "trains between stations" listing, as
// published by the timetable source.
type TrainSummary struct {
	Number         string   `json:"train_number"`
	Name           string   `json:"train_name"`
	Source         string   `json:"source"`
	DepartureTime  string   `json:"departure_time"`
	Destination    string   `json:"destination"`
	ArrivalTime    string   `json:"arrival_time"`
	Duration       string   `json:"duration"`
	RunningDays    string   `json:"running_days"`
	BookingClasses []string `json:"booking_classes"`
	HasPantry      bool     `json:"has_pantry"`
}
