package entity

// ClassifiedFlight is a surviving record tagged with the leg that happens at
// the airport of interest and that leg's time category.
type ClassifiedFlight struct {
	Record       FlightRecord `json:"record"`
	Leg          LegKind      `json:"leg"`
	Category     TimeCategory `json:"time_category"`
	TimeSource   TimeSource   `json:"time_source,omitempty"`
	Timestamp    string       `json:"timestamp,omitempty"`
	DelayMinutes *int         `json:"delay_minutes,omitempty"`
}

// LocalLeg returns the leg at the airport of interest and the opposite leg.
// Unresolved flights fall back to the arrival leg as local.
func (c ClassifiedFlight) LocalLeg() (local Leg, remote Leg) {
	if c.Leg == LegDeparture {
		return c.Record.Departure, c.Record.Arrival
	}
	return c.Record.Arrival, c.Record.Departure
}
