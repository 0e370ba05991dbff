package entity

// CategoryHistogram counts movements per time category
type CategoryHistogram struct {
	Regular  int `json:"Regular" bson:"regular"`
	Shoulder int `json:"Shoulder" bson:"shoulder"`
	Night    int `json:"Night" bson:"night"`
	Unknown  int `json:"Unknown" bson:"unknown"`
}

// Add counts one movement in category c.
func (h *CategoryHistogram) Add(c TimeCategory) {
	switch c {
	case CategoryRegular:
		h.Regular++
	case CategoryShoulder:
		h.Shoulder++
	case CategoryNight:
		h.Night++
	default:
		h.Unknown++
	}
}

// Get returns the count for category c.
func (h CategoryHistogram) Get(c TimeCategory) int {
	switch c {
	case CategoryRegular:
		return h.Regular
	case CategoryShoulder:
		return h.Shoulder
	case CategoryNight:
		return h.Night
	default:
		return h.Unknown
	}
}

// Total is the sum over all categories.
func (h CategoryHistogram) Total() int {
	return h.Regular + h.Shoulder + h.Night + h.Unknown
}

// Merge returns the element-wise sum of h and o.
func (h CategoryHistogram) Merge(o CategoryHistogram) CategoryHistogram {
	return CategoryHistogram{
		Regular:  h.Regular + o.Regular,
		Shoulder: h.Shoulder + o.Shoulder,
		Night:    h.Night + o.Night,
		Unknown:  h.Unknown + o.Unknown,
	}
}

// Summary aggregates one or more classified batches.
// Unresolved legs count toward Total and Categories only.
type Summary struct {
	Total               int               `json:"total" bson:"total"`
	Arrivals            int               `json:"arrivals" bson:"arrivals"`
	Departures          int               `json:"departures" bson:"departures"`
	Categories          CategoryHistogram `json:"categories" bson:"categories"`
	ArrivalCategories   CategoryHistogram `json:"arrival_categories" bson:"arrivalCategories"`
	DepartureCategories CategoryHistogram `json:"departure_categories" bson:"departureCategories"`
}

// Add counts one classified movement.
func (s *Summary) Add(leg LegKind, c TimeCategory) {
	s.Total++
	s.Categories.Add(c)
	switch leg {
	case LegArrival:
		s.Arrivals++
		s.ArrivalCategories.Add(c)
	case LegDeparture:
		s.Departures++
		s.DepartureCategories.Add(c)
	}
}

// Merge returns the sum of s and o.
func (s Summary) Merge(o Summary) Summary {
	return Summary{
		Total:               s.Total + o.Total,
		Arrivals:            s.Arrivals + o.Arrivals,
		Departures:          s.Departures + o.Departures,
		Categories:          s.Categories.Merge(o.Categories),
		ArrivalCategories:   s.ArrivalCategories.Merge(o.ArrivalCategories),
		DepartureCategories: s.DepartureCategories.Merge(o.DepartureCategories),
	}
}
