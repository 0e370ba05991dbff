package entity

// TimeCategory is the time-of-day band a movement falls into
type TimeCategory string

const (
	CategoryNight    TimeCategory = "Night"
	CategoryShoulder TimeCategory = "Shoulder"
	CategoryRegular  TimeCategory = "Regular"
	CategoryUnknown  TimeCategory = "Unknown"
)

// Categories lists every category in reporting order
var Categories = []TimeCategory{CategoryRegular, CategoryShoulder, CategoryNight, CategoryUnknown}

// ParseTimeCategory maps a stored or user-supplied value back to a category.
// Anything unrecognised is Unknown.
func ParseTimeCategory(s string) TimeCategory {
	switch TimeCategory(s) {
	case CategoryNight, CategoryShoulder, CategoryRegular:
		return TimeCategory(s)
	}
	switch s {
	case "night", "Night hour flights", "Night hour arrivals", "Night hour departures":
		return CategoryNight
	case "shoulder", "Shoulder hour flights":
		return CategoryShoulder
	case "regular", "Regular flights", "Regular arrivals", "Regular departures":
		return CategoryRegular
	}
	return CategoryUnknown
}

// LegKind says which half of a record happens at the airport of interest
type LegKind string

const (
	LegArrival    LegKind = "arrival"
	LegDeparture  LegKind = "departure"
	LegUnresolved LegKind = "unresolved"
)

// TimeSource names the timestamp a classification was read from
type TimeSource string

const (
	SourceActual    TimeSource = "actual"
	SourceEstimated TimeSource = "estimated"
	SourceScheduled TimeSource = "scheduled"
	SourceNone      TimeSource = ""
)
