package usecase

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"flightwindow-service/internal/domain/entity"
	"flightwindow-service/pkg/categorizer"
	"flightwindow-service/pkg/codeshare"
)

// ErrNoAirport is returned when a pipeline has no airport of interest
var ErrNoAirport = errors.New("pipeline needs at least one airport code")

// PipelineConfig is the whole classification policy for one airport
type PipelineConfig struct {
	AirportCodes    []string
	Window          categorizer.Window
	DedupStrategy   codeshare.Strategy
	ExcludeStatuses []string
	// Location, when set, converts offset-bearing timestamps before
	// classification. Nil classifies the wall clock as written.
	Location *time.Location
}

// Batch is one airport-day as returned by the arrival and departure queries
type Batch struct {
	Arrivals   []entity.FlightRecord `json:"arrivals"`
	Departures []entity.FlightRecord `json:"departures"`
}

// PipelineResult is the output of Pipeline.Run
type PipelineResult struct {
	Flights             []entity.ClassifiedFlight `json:"flights"`
	Arrivals            []entity.FlightRecord     `json:"-"`
	Departures          []entity.FlightRecord     `json:"-"`
	Summary             entity.Summary            `json:"summary"`
	Excluded            int                       `json:"excluded"`
	Dropped             int                       `json:"dropped"`
	Unkeyable           int                       `json:"unkeyable"`
	AverageDelayMinutes float64                   `json:"average_delay_minutes"`
}

// Pipeline deduplicates and classifies batches. It holds no mutable state
// besides the diagnostic sink and does no I/O.
type Pipeline struct {
	codes       []string
	strategy    codeshare.Strategy
	exclude     map[string]struct{}
	categorizer *categorizer.Categorizer
	sink        categorizer.Sink
}

// NewPipeline validates cfg. A nil sink discards diagnostics.
func NewPipeline(cfg PipelineConfig, sink categorizer.Sink) (*Pipeline, error) {
	var codes []string
	for _, c := range cfg.AirportCodes {
		if c = strings.TrimSpace(c); c != "" {
			codes = append(codes, c)
		}
	}
	if len(codes) == 0 {
		return nil, ErrNoAirport
	}

	strategy, err := codeshare.ParseStrategy(string(cfg.DedupStrategy))
	if err != nil {
		return nil, err
	}

	if sink == nil {
		sink = categorizer.NopSink{}
	}
	cat, err := categorizer.New(cfg.Window, categorizer.WithSink(sink), categorizer.WithLocation(cfg.Location))
	if err != nil {
		return nil, fmt.Errorf("pipeline window: %w", err)
	}

	exclude := make(map[string]struct{}, len(cfg.ExcludeStatuses))
	for _, s := range cfg.ExcludeStatuses {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			exclude[s] = struct{}{}
		}
	}

	return &Pipeline{
		codes:       codes,
		strategy:    strategy,
		exclude:     exclude,
		categorizer: cat,
		sink:        sink,
	}, nil
}

// Run deduplicates each side of the batch independently, classifies every
// survivor and aggregates the summary.
func (p *Pipeline) Run(batch Batch) PipelineResult {
	var res PipelineResult

	arrivals, excludedArr := p.filter(batch.Arrivals)
	departures, excludedDep := p.filter(batch.Departures)
	res.Excluded = excludedArr + excludedDep

	arrDedup := p.dedup(arrivals)
	depDedup := p.dedup(departures)
	res.Arrivals = arrDedup.Records
	res.Departures = depDedup.Records
	res.Dropped = len(arrDedup.Dropped) + len(depDedup.Dropped)
	res.Unkeyable = len(arrDedup.Unkeyable) + len(depDedup.Unkeyable)

	res.Flights = make([]entity.ClassifiedFlight, 0, len(res.Arrivals)+len(res.Departures))
	for _, r := range res.Arrivals {
		res.Flights = append(res.Flights, p.Classify(r, entity.LegArrival))
	}
	for _, r := range res.Departures {
		res.Flights = append(res.Flights, p.Classify(r, entity.LegDeparture))
	}

	var delaySum, delayCount int
	for _, f := range res.Flights {
		res.Summary.Add(f.Leg, f.Category)
		if f.DelayMinutes != nil {
			delaySum += *f.DelayMinutes
			delayCount++
		}
	}
	if delayCount > 0 {
		res.AverageDelayMinutes = roundHundredths(float64(delaySum) / float64(delayCount))
	}
	return res
}

func (p *Pipeline) filter(records []entity.FlightRecord) ([]entity.FlightRecord, int) {
	if len(p.exclude) == 0 {
		return records, 0
	}
	kept := make([]entity.FlightRecord, 0, len(records))
	for _, r := range records {
		if _, skip := p.exclude[strings.ToLower(strings.TrimSpace(r.Status))]; skip {
			continue
		}
		kept = append(kept, r)
	}
	return kept, len(records) - len(kept)
}

func (p *Pipeline) dedup(records []entity.FlightRecord) codeshare.Result {
	res := codeshare.Deduplicate(records, p.strategy)
	for _, i := range res.Unkeyable {
		p.sink.Report(entity.Diagnostic{
			Kind:   entity.DiagnosticUnkeyableRecord,
			Field:  string(p.strategy),
			Flight: records[i].Designator(),
		})
	}
	return res
}

// Leg decides which half of r happens at the airport of interest by looking
// at the airport codes carried in the record. direction only breaks the tie
// when both halves match.
func (p *Pipeline) Leg(r entity.FlightRecord, direction entity.LegKind) entity.LegKind {
	arrives := r.Arrival.Matches(p.codes...)
	departs := r.Departure.Matches(p.codes...)
	switch {
	case arrives && departs:
		if direction == entity.LegDeparture {
			return entity.LegDeparture
		}
		return entity.LegArrival
	case arrives:
		return entity.LegArrival
	case departs:
		return entity.LegDeparture
	}
	return entity.LegUnresolved
}

// Classify tags a single record that came from the given query direction.
func (p *Pipeline) Classify(r entity.FlightRecord, direction entity.LegKind) entity.ClassifiedFlight {
	out := entity.ClassifiedFlight{
		Record:   r,
		Leg:      p.Leg(r, direction),
		Category: entity.CategoryUnknown,
	}

	var leg entity.Leg
	var prefix string
	switch out.Leg {
	case entity.LegArrival:
		leg, prefix = r.Arrival, "arrival"
	case entity.LegDeparture:
		leg, prefix = r.Departure, "departure"
	default:
		p.sink.Report(entity.Diagnostic{
			Kind:   entity.DiagnosticUnresolvedLeg,
			Field:  "airport",
			Value:  r.Departure.Code() + "-" + r.Arrival.Code(),
			Flight: r.Designator(),
		})
		return out
	}

	candidates := []struct {
		source entity.TimeSource
		value  string
	}{
		{entity.SourceActual, leg.Actual},
		{entity.SourceEstimated, leg.Estimated},
		{entity.SourceScheduled, leg.Scheduled},
	}
	for _, c := range candidates {
		category, res := p.categorizer.CategorizeField(prefix+"."+string(c.source), c.value)
		if res.OK() {
			out.Category = category
			out.TimeSource = c.source
			out.Timestamp = c.value
			break
		}
	}

	out.DelayMinutes = delayMinutes(leg)
	return out
}

func roundHundredths(v float64) float64 {
	return math.Round(v*100) / 100
}

// delayMinutes is actual minus scheduled when both carry a date, else the
// upstream delay field.
func delayMinutes(leg entity.Leg) *int {
	sched := categorizer.Parse(leg.Scheduled)
	actual := categorizer.Parse(leg.Actual)
	if sched.OK() && actual.OK() && sched.HasDate && actual.HasDate {
		d := int(actual.Time.Sub(sched.Time) / time.Minute)
		return &d
	}
	if leg.Delay != nil {
		d := *leg.Delay
		return &d
	}
	return nil
}
