package aviation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	"flightwindow-service/internal/domain/entity"
	"flightwindow-service/internal/domain/repository"
)

// AviationEdgeClient reads the historical schedules endpoint
type AviationEdgeClient struct {
	req    *requester
	apiKey string
}

// NewAviationEdgeClient creates a new Aviation Edge client
func NewAviationEdgeClient(apiKey string, opts ClientOptions) *AviationEdgeClient {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://aviation-edge.com"
	}
	return &AviationEdgeClient{
		req:    newRequester("aviationedge", opts),
		apiKey: apiKey,
	}
}

// Name returns the provider name
func (c *AviationEdgeClient) Name() string { return "aviationedge" }

// FetchArrivals returns every arrival at airport on date
func (c *AviationEdgeClient) FetchArrivals(ctx context.Context, airport repository.Airport, date time.Time) (*repository.FetchResult, error) {
	return c.fetch(ctx, "arrival", airport, date)
}

// FetchDepartures returns every departure from airport on date
func (c *AviationEdgeClient) FetchDepartures(ctx context.Context, airport repository.Airport, date time.Time) (*repository.FetchResult, error) {
	return c.fetch(ctx, "departure", airport, date)
}

func (c *AviationEdgeClient) fetch(ctx context.Context, kind string, airport repository.Airport, date time.Time) (*repository.FetchResult, error) {
	code := airport.IATA
	if code == "" {
		code = airport.ICAO
	}
	day := date.Format(dateLayout)

	query := url.Values{}
	query.Set("key", c.apiKey)
	query.Set("code", code)
	query.Set("type", kind)
	query.Set("date_from", day)
	query.Set("date_to", day)

	body, err := c.req.get(ctx, "/v2/public/flightsHistory", query)
	if err != nil {
		return nil, err
	}

	result := &repository.FetchResult{}
	trimmed := bytes.TrimSpace(body)
	// Errors arrive as an object with HTTP 200.
	if len(trimmed) > 0 && trimmed[0] == '{' {
		var apiErr struct {
			Error interface{} `json:"error"`
		}
		if err := json.Unmarshal(trimmed, &apiErr); err != nil {
			return nil, fmt.Errorf("failed to decode aviationedge response: %w", err)
		}
		msg := fmt.Sprint(apiErr.Error)
		if apiErr.Error == nil || strings.Contains(strings.ToLower(msg), "no record") {
			return result, nil
		}
		return nil, fmt.Errorf("aviationedge error for %s %s: %s", kind, day, msg)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("failed to decode aviationedge response: %w", err)
	}
	if err := appendItems(result, items, decodeAviationEdge); err != nil {
		return nil, err
	}

	c.req.logger.Debug("Fetched flights", "direction", kind, "date", day, "count", len(result.Records))
	return result, nil
}

type aviationEdgeFlight struct {
	Type       string               `json:"type"`
	Status     string               `json:"status"`
	Departure  aviationEdgeLeg      `json:"departure"`
	Arrival    aviationEdgeLeg      `json:"arrival"`
	Airline    aviationEdgeAirline  `json:"airline"`
	Flight     aviationEdgeFlightID `json:"flight"`
	Codeshared *struct {
		Airline aviationEdgeAirline  `json:"airline"`
		Flight  aviationEdgeFlightID `json:"flight"`
	} `json:"codeshared"`
}

type aviationEdgeLeg struct {
	IATACode      string  `json:"iataCode"`
	ICAOCode      string  `json:"icaoCode"`
	Terminal      string  `json:"terminal"`
	Gate          string  `json:"gate"`
	Delay         flexInt `json:"delay"`
	ScheduledTime string  `json:"scheduledTime"`
	EstimatedTime string  `json:"estimatedTime"`
	ActualTime    string  `json:"actualTime"`
}

type aviationEdgeAirline struct {
	Name     string `json:"name"`
	IATACode string `json:"iataCode"`
	ICAOCode string `json:"icaoCode"`
}

type aviationEdgeFlightID struct {
	Number     string `json:"number"`
	IATANumber string `json:"iataNumber"`
	ICAONumber string `json:"icaoNumber"`
}

func (l aviationEdgeLeg) leg() entity.Leg {
	return entity.Leg{
		IATA:      strings.ToUpper(l.IATACode),
		ICAO:      strings.ToUpper(l.ICAOCode),
		Terminal:  l.Terminal,
		Gate:      l.Gate,
		Delay:     l.Delay.Ptr(),
		Scheduled: edgeTime(l.ScheduledTime),
		Estimated: edgeTime(l.EstimatedTime),
		Actual:    edgeTime(l.ActualTime),
	}
}

// edgeTime upper-cases the lowercase date/time separator the API emits
func edgeTime(v string) string {
	return strings.ToUpper(strings.TrimSpace(v))
}

func (f aviationEdgeFlight) record() entity.FlightRecord {
	record := entity.FlightRecord{
		Status: f.Status,
		Flight: entity.FlightIdent{
			Number: f.Flight.Number,
			IATA:   strings.ToUpper(f.Flight.IATANumber),
			ICAO:   strings.ToUpper(f.Flight.ICAONumber),
		},
		Airline: entity.AirlineRef{
			Name: f.Airline.Name,
			IATA: strings.ToUpper(f.Airline.IATACode),
			ICAO: strings.ToUpper(f.Airline.ICAOCode),
		},
		Departure: f.Departure.leg(),
		Arrival:   f.Arrival.leg(),
	}
	if len(record.Departure.Scheduled) >= len(dateLayout) {
		record.FlightDate = record.Departure.Scheduled[:len(dateLayout)]
	}
	if cs := f.Codeshared; cs != nil && (cs.Flight.Number != "" || cs.Flight.IATANumber != "") {
		record.Codeshare = &entity.Codeshare{
			AirlineName:  cs.Airline.Name,
			AirlineIATA:  strings.ToUpper(cs.Airline.IATACode),
			FlightNumber: cs.Flight.Number,
			FlightIATA:   strings.ToUpper(cs.Flight.IATANumber),
		}
	}
	return record
}

func decodeAviationEdge(item json.RawMessage) (entity.FlightRecord, error) {
	var f aviationEdgeFlight
	if err := json.Unmarshal(item, &f); err != nil {
		return entity.FlightRecord{}, err
	}
	return f.record(), nil
}
