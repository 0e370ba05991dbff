package aviation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"flightwindow-service/internal/domain/entity"
	"flightwindow-service/internal/domain/repository"
)

// OpenSkyClient reads the flights-by-airport endpoints. OpenSky records
// carry only observed times, so every leg is classified on its actual time.
// The HTTP client in ClientOptions is expected to add the bearer token.
type OpenSkyClient struct {
	req *requester
}

// NewOpenSkyClient creates a new OpenSky client
func NewOpenSkyClient(opts ClientOptions) *OpenSkyClient {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://opensky-network.org"
	}
	return &OpenSkyClient{req: newRequester("opensky", opts)}
}

// Name returns the provider name
func (c *OpenSkyClient) Name() string { return "opensky" }

// FetchArrivals returns every arrival at airport on date
func (c *OpenSkyClient) FetchArrivals(ctx context.Context, airport repository.Airport, date time.Time) (*repository.FetchResult, error) {
	return c.fetch(ctx, "arrival", airport, date)
}

// FetchDepartures returns every departure from airport on date
func (c *OpenSkyClient) FetchDepartures(ctx context.Context, airport repository.Airport, date time.Time) (*repository.FetchResult, error) {
	return c.fetch(ctx, "departure", airport, date)
}

func (c *OpenSkyClient) fetch(ctx context.Context, kind string, airport repository.Airport, date time.Time) (*repository.FetchResult, error) {
	if airport.ICAO == "" {
		return nil, fmt.Errorf("opensky needs an ICAO airport code")
	}
	begin, end := dayBounds(date)

	query := url.Values{}
	query.Set("airport", airport.ICAO)
	query.Set("begin", strconv.FormatInt(begin.Unix(), 10))
	query.Set("end", strconv.FormatInt(end.Unix()-1, 10))

	result := &repository.FetchResult{}
	body, err := c.req.get(ctx, "/api/flights/"+kind, query)
	if err != nil {
		// No flights in the interval is reported as 404.
		var statusErr *StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusNotFound {
			return result, nil
		}
		return nil, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("failed to decode opensky response: %w", err)
	}
	if err := appendItems(result, items, decodeOpenSky); err != nil {
		return nil, err
	}

	c.req.logger.Debug("Fetched flights", "direction", kind, "date", begin.Format(dateLayout), "count", len(result.Records))
	return result, nil
}

type openSkyFlight struct {
	ICAO24              string `json:"icao24"`
	FirstSeen           int64  `json:"firstSeen"`
	EstDepartureAirport string `json:"estDepartureAirport"`
	LastSeen            int64  `json:"lastSeen"`
	EstArrivalAirport   string `json:"estArrivalAirport"`
	Callsign            string `json:"callsign"`
}

func (f openSkyFlight) record() entity.FlightRecord {
	callsign := strings.ToUpper(strings.TrimSpace(f.Callsign))
	airline, number := splitCallsign(callsign)

	record := entity.FlightRecord{
		Flight: entity.FlightIdent{
			Number: number,
			ICAO:   callsign,
		},
		Airline: entity.AirlineRef{
			ICAO: airline,
		},
		Departure: entity.Leg{
			ICAO:   strings.ToUpper(f.EstDepartureAirport),
			Actual: unixTime(f.FirstSeen),
		},
		Arrival: entity.Leg{
			ICAO:   strings.ToUpper(f.EstArrivalAirport),
			Actual: unixTime(f.LastSeen),
		},
	}
	if f.FirstSeen > 0 {
		record.FlightDate = time.Unix(f.FirstSeen, 0).UTC().Format(dateLayout)
	}
	return record
}

// splitCallsign separates an ICAO airline designator from the flight
// number. Callsigns that are not airline designators are kept whole.
func splitCallsign(callsign string) (airline, number string) {
	if len(callsign) < 4 {
		return "", callsign
	}
	for i := 0; i < 3; i++ {
		if callsign[i] < 'A' || callsign[i] > 'Z' {
			return "", callsign
		}
	}
	if callsign[3] < '0' || callsign[3] > '9' {
		return "", callsign
	}
	return callsign[:3], callsign[3:]
}

func unixTime(sec int64) string {
	if sec <= 0 {
		return ""
	}
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}

func decodeOpenSky(item json.RawMessage) (entity.FlightRecord, error) {
	var f openSkyFlight
	if err := json.Unmarshal(item, &f); err != nil {
		return entity.FlightRecord{}, err
	}
	return f.record(), nil
}
