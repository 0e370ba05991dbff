// internal/domain/entity/flight_record.go
package entity

import "strings"

// FlightRecord is one upstream row describing a flight as seen by a single
// marketing designator. Missing upstream fields are left as zero values.
type FlightRecord struct {
	FlightDate string      `json:"flight_date" bson:"flightDate"`
	Status     string      `json:"flight_status" bson:"flightStatus"`
	Flight     FlightIdent `json:"flight" bson:"flight"`
	Airline    AirlineRef  `json:"airline" bson:"airline"`
	Departure  Leg         `json:"departure" bson:"departure"`
	Arrival    Leg         `json:"arrival" bson:"arrival"`
	Codeshare  *Codeshare  `json:"codeshared,omitempty" bson:"codeshared,omitempty"`
}

// FlightIdent identifies the flight under its own designator
type FlightIdent struct {
	Number string `json:"number" bson:"number"`
	IATA   string `json:"iata" bson:"iata"`
	ICAO   string `json:"icao" bson:"icao"`
}

// AirlineRef is the marketing airline of a record
type AirlineRef struct {
	Name string `json:"name" bson:"name"`
	IATA string `json:"iata" bson:"iata"`
	ICAO string `json:"icao" bson:"icao"`
}

// Leg is the departure or arrival half of a record. Timestamps are kept as
// the upstream strings; classification parses them on demand.
type Leg struct {
	Airport   string `json:"airport" bson:"airport"`
	IATA      string `json:"iata" bson:"iata"`
	ICAO      string `json:"icao" bson:"icao"`
	Scheduled string `json:"scheduled" bson:"scheduled"`
	Estimated string `json:"estimated" bson:"estimated"`
	Actual    string `json:"actual" bson:"actual"`
	Terminal  string `json:"terminal" bson:"terminal"`
	Gate      string `json:"gate" bson:"gate"`
	Delay     *int   `json:"delay,omitempty" bson:"delay,omitempty"`
}

// Codeshare points at the primary flight this record is marketed under
type Codeshare struct {
	AirlineName  string `json:"airline_name" bson:"airlineName"`
	AirlineIATA  string `json:"airline_iata" bson:"airlineIata"`
	FlightNumber string `json:"flight_number" bson:"flightNumber"`
	FlightIATA   string `json:"flight_iata" bson:"flightIata"`
}

// Designator returns the best available flight designator for display and storage.
func (r FlightRecord) Designator() string {
	if r.Flight.IATA != "" {
		return r.Flight.IATA
	}
	if r.Flight.Number != "" {
		return strings.TrimSpace(r.Airline.IATA + r.Flight.Number)
	}
	return r.Flight.ICAO
}

// IsCodeshare reports whether the record is marketed under another flight.
func (r FlightRecord) IsCodeshare() bool {
	return r.Codeshare != nil && (r.Codeshare.FlightNumber != "" || r.Codeshare.FlightIATA != "")
}

// Code returns the airport code used for matching and keys: IATA, else ICAO,
// else the airport name, upper-cased.
func (l Leg) Code() string {
	switch {
	case l.IATA != "":
		return strings.ToUpper(strings.TrimSpace(l.IATA))
	case l.ICAO != "":
		return strings.ToUpper(strings.TrimSpace(l.ICAO))
	default:
		return strings.ToUpper(strings.TrimSpace(l.Airport))
	}
}

// Matches reports whether the leg's IATA or ICAO code equals any of codes,
// ignoring case. Empty codes never match.
func (l Leg) Matches(codes ...string) bool {
	for _, code := range codes {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if strings.EqualFold(l.IATA, code) || strings.EqualFold(l.ICAO, code) {
			return true
		}
	}
	return false
}
