// Package codeshare collapses rows that describe the same physical flight
// under different marketing designators.
package codeshare

import (
	"errors"
	"fmt"
	"strings"

	"flightwindow-service/internal/domain/entity"
	"flightwindow-service/pkg/categorizer"
)

// ErrUnknownStrategy is returned by ParseStrategy
var ErrUnknownStrategy = errors.New("unknown dedup strategy")

// Strategy selects how the primary key of a record is built.
type Strategy string

const (
	// StrategyScheduleRoute keys on scheduled departure, scheduled arrival,
	// origin and destination.
	StrategyScheduleRoute Strategy = "schedule_route"
	// StrategyFlightNumber keys on the codeshare target when present, else
	// on the record's own airline and flight number. Coarser: distinct
	// flights reusing a number on the same day are merged.
	StrategyFlightNumber Strategy = "flight_number"
)

// ParseStrategy accepts a strategy name; empty means StrategyScheduleRoute.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyScheduleRoute:
		return StrategyScheduleRoute, nil
	case StrategyFlightNumber:
		return StrategyFlightNumber, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, s)
}

// Key is the primary key of a record under some strategy.
type Key [4]string

// KeyFor returns the primary key of r, or false if r cannot be keyed. A
// record with neither its own flight number nor a codeshare reference is
// unkeyable under every strategy.
func KeyFor(strategy Strategy, r entity.FlightRecord) (Key, bool) {
	if !identified(r) {
		return Key{}, false
	}
	if strategy == StrategyFlightNumber {
		return flightNumberKey(r)
	}
	return scheduleRouteKey(r)
}

func identified(r entity.FlightRecord) bool {
	if r.Codeshare != nil {
		return true
	}
	return flightNumber(r.Flight.Number, r.Flight.IATA, r.Airline.IATA) != "" ||
		strings.TrimSpace(r.Flight.ICAO) != ""
}

func scheduleRouteKey(r entity.FlightRecord) (Key, bool) {
	dep := scheduleKey(r.Departure.Scheduled)
	arr := scheduleKey(r.Arrival.Scheduled)
	if dep == "" && arr == "" {
		return Key{}, false
	}
	return Key{dep, arr, r.Departure.Code(), r.Arrival.Code()}, true
}

// scheduleKey writes equal instants the same way: offset-bearing values in
// UTC, dated local values in one layout. Anything else is kept as written.
func scheduleKey(value string) string {
	value = strings.TrimSpace(value)
	res := categorizer.Parse(value)
	switch {
	case !res.OK() || !res.HasDate:
		return value
	case res.HasOffset:
		return res.Time.UTC().Format("2006-01-02T15:04:05Z")
	default:
		return res.Time.Format("2006-01-02T15:04:05")
	}
}

func flightNumberKey(r entity.FlightRecord) (Key, bool) {
	if cs := r.Codeshare; cs != nil {
		airline := firstNonEmpty(cs.AirlineIATA, cs.AirlineName)
		if number := flightNumber(cs.FlightNumber, cs.FlightIATA, cs.AirlineIATA); number != "" {
			return Key{strings.ToUpper(airline), number}, true
		}
	}
	airline := firstNonEmpty(r.Airline.IATA, r.Airline.Name)
	number := flightNumber(r.Flight.Number, r.Flight.IATA, r.Airline.IATA)
	if number == "" {
		return Key{}, false
	}
	return Key{strings.ToUpper(airline), number}, true
}

// flightNumber prefers the bare number and falls back to the designator with
// the airline prefix removed.
func flightNumber(number, designator, airlineIATA string) string {
	number = strings.TrimSpace(number)
	if number != "" {
		return strings.ToUpper(number)
	}
	designator = strings.ToUpper(strings.TrimSpace(designator))
	prefix := strings.ToUpper(strings.TrimSpace(airlineIATA))
	if prefix != "" && strings.HasPrefix(designator, prefix) && len(designator) > len(prefix) {
		return designator[len(prefix):]
	}
	return designator
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// Duplicate describes a dropped record.
type Duplicate struct {
	Record    entity.FlightRecord
	Index     int // position in the input
	KeptIndex int // input position of the surviving record
}

// Result is the output of Deduplicate.
type Result struct {
	Records   []entity.FlightRecord
	Dropped   []Duplicate
	Unkeyable []int // input positions passed through without a key
}

// Deduplicate keeps the first record seen for every primary key, in input
// order. Records that cannot be keyed are always kept.
func Deduplicate(records []entity.FlightRecord, strategy Strategy) Result {
	res := Result{Records: make([]entity.FlightRecord, 0, len(records))}
	seen := make(map[Key]int, len(records))

	for i, r := range records {
		key, ok := KeyFor(strategy, r)
		if !ok {
			res.Unkeyable = append(res.Unkeyable, i)
			res.Records = append(res.Records, r)
			continue
		}
		if kept, dup := seen[key]; dup {
			res.Dropped = append(res.Dropped, Duplicate{Record: r, Index: i, KeptIndex: kept})
			continue
		}
		seen[key] = i
		res.Records = append(res.Records, r)
	}
	return res
}
