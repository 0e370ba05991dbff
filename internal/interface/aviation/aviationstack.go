package aviation

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"flightwindow-service/internal/domain/entity"
	"flightwindow-service/internal/domain/repository"
)

// AviationStackClient reads /v1/flights, one page at a time
type AviationStackClient struct {
	req      *requester
	apiKey   string
	pageSize int
}

// NewAviationStackClient creates a new AviationStack client
func NewAviationStackClient(apiKey string, opts ClientOptions) *AviationStackClient {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://api.aviationstack.com"
	}
	pageSize := opts.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	return &AviationStackClient{
		req:      newRequester("aviationstack", opts),
		apiKey:   apiKey,
		pageSize: pageSize,
	}
}

// Name returns the provider name
func (c *AviationStackClient) Name() string { return "aviationstack" }

// FetchArrivals returns every arrival at airport on date
func (c *AviationStackClient) FetchArrivals(ctx context.Context, airport repository.Airport, date time.Time) (*repository.FetchResult, error) {
	return c.fetch(ctx, "arr", airport, date)
}

// FetchDepartures returns every departure from airport on date
func (c *AviationStackClient) FetchDepartures(ctx context.Context, airport repository.Airport, date time.Time) (*repository.FetchResult, error) {
	return c.fetch(ctx, "dep", airport, date)
}

type aviationStackPage struct {
	Pagination struct {
		Limit  int `json:"limit"`
		Offset int `json:"offset"`
		Count  int `json:"count"`
		Total  int `json:"total"`
	} `json:"pagination"`
	Data  []json.RawMessage   `json:"data"`
	Error *aviationStackError `json:"error"`
}

type aviationStackError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (c *AviationStackClient) fetch(ctx context.Context, prefix string, airport repository.Airport, date time.Time) (*repository.FetchResult, error) {
	query := url.Values{}
	query.Set("access_key", c.apiKey)
	query.Set("flight_date", date.Format(dateLayout))
	query.Set("limit", strconv.Itoa(c.pageSize))
	if airport.IATA != "" {
		query.Set(prefix+"_iata", airport.IATA)
	} else {
		query.Set(prefix+"_icao", airport.ICAO)
	}

	result := &repository.FetchResult{}
	offset := 0
	for page := 0; page < maxPages; page++ {
		query.Set("offset", strconv.Itoa(offset))
		body, err := c.req.get(ctx, "/v1/flights", query)
		if err != nil {
			return nil, err
		}

		var p aviationStackPage
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("failed to decode aviationstack page at offset %d: %w", offset, err)
		}
		if p.Error != nil {
			return nil, fmt.Errorf("aviationstack error %s: %s", p.Error.Code, p.Error.Message)
		}
		if err := appendItems(result, p.Data, decodeAviationStack); err != nil {
			return nil, err
		}

		count := p.Pagination.Count
		if count == 0 {
			count = len(p.Data)
		}
		if len(p.Data) == 0 || count < c.pageSize {
			break
		}
		offset += count
		if p.Pagination.Total > 0 && offset >= p.Pagination.Total {
			break
		}
	}

	c.req.logger.Debug("Fetched flights",
		"direction", prefix,
		"date", date.Format(dateLayout),
		"count", len(result.Records))
	return result, nil
}

// AviationStackFlight is one element of the /v1/flights data array
type AviationStackFlight struct {
	FlightDate   string           `json:"flight_date"`
	FlightStatus string           `json:"flight_status"`
	Departure    aviationStackLeg `json:"departure"`
	Arrival      aviationStackLeg `json:"arrival"`
	Airline      struct {
		Name string `json:"name"`
		IATA string `json:"iata"`
		ICAO string `json:"icao"`
	} `json:"airline"`
	Flight struct {
		Number     string                  `json:"number"`
		IATA       string                  `json:"iata"`
		ICAO       string                  `json:"icao"`
		Codeshared *aviationStackCodeshare `json:"codeshared"`
	} `json:"flight"`
}

type aviationStackLeg struct {
	Airport   string  `json:"airport"`
	Timezone  string  `json:"timezone"`
	IATA      string  `json:"iata"`
	ICAO      string  `json:"icao"`
	Terminal  string  `json:"terminal"`
	Gate      string  `json:"gate"`
	Delay     flexInt `json:"delay"`
	Scheduled string  `json:"scheduled"`
	Estimated string  `json:"estimated"`
	Actual    string  `json:"actual"`
}

type aviationStackCodeshare struct {
	AirlineName  string `json:"airline_name"`
	AirlineIATA  string `json:"airline_iata"`
	AirlineICAO  string `json:"airline_icao"`
	FlightNumber string `json:"flight_number"`
	FlightIATA   string `json:"flight_iata"`
	FlightICAO   string `json:"flight_icao"`
}

func (l aviationStackLeg) leg() entity.Leg {
	return entity.Leg{
		Airport:   l.Airport,
		IATA:      strings.ToUpper(l.IATA),
		ICAO:      strings.ToUpper(l.ICAO),
		Scheduled: l.Scheduled,
		Estimated: l.Estimated,
		Actual:    l.Actual,
		Terminal:  l.Terminal,
		Gate:      l.Gate,
		Delay:     l.Delay.Ptr(),
	}
}

// Record converts the upstream object into a FlightRecord
func (f AviationStackFlight) Record() entity.FlightRecord {
	record := entity.FlightRecord{
		FlightDate: f.FlightDate,
		Status:     f.FlightStatus,
		Flight: entity.FlightIdent{
			Number: f.Flight.Number,
			IATA:   strings.ToUpper(f.Flight.IATA),
			ICAO:   strings.ToUpper(f.Flight.ICAO),
		},
		Airline: entity.AirlineRef{
			Name: f.Airline.Name,
			IATA: strings.ToUpper(f.Airline.IATA),
			ICAO: strings.ToUpper(f.Airline.ICAO),
		},
		Departure: f.Departure.leg(),
		Arrival:   f.Arrival.leg(),
	}
	if cs := f.Flight.Codeshared; cs != nil && (cs.FlightNumber != "" || cs.FlightIATA != "") {
		record.Codeshare = &entity.Codeshare{
			AirlineName:  cs.AirlineName,
			AirlineIATA:  strings.ToUpper(cs.AirlineIATA),
			FlightNumber: cs.FlightNumber,
			FlightIATA:   strings.ToUpper(cs.FlightIATA),
		}
	}
	return record
}

func decodeAviationStack(item json.RawMessage) (entity.FlightRecord, error) {
	var f AviationStackFlight
	if err := json.Unmarshal(item, &f); err != nil {
		return entity.FlightRecord{}, err
	}
	return f.Record(), nil
}

// AviationStackBatch is a day of AviationStack objects split by direction,
// as accepted by the classify command and endpoint.
type AviationStackBatch struct {
	Date       string                `json:"date,omitempty"`
	Arrivals   []AviationStackFlight `json:"arrivals"`
	Departures []AviationStackFlight `json:"departures"`
}

// Records converts both directions
func (b AviationStackBatch) Records() (arrivals, departures []entity.FlightRecord) {
	arrivals = make([]entity.FlightRecord, 0, len(b.Arrivals))
	for _, f := range b.Arrivals {
		arrivals = append(arrivals, f.Record())
	}
	departures = make([]entity.FlightRecord, 0, len(b.Departures))
	for _, f := range b.Departures {
		departures = append(departures, f.Record())
	}
	return arrivals, departures
}

// DecodeAviationStackBatch reads an AviationStackBatch document
func DecodeAviationStackBatch(r io.Reader) (AviationStackBatch, error) {
	var b AviationStackBatch
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return AviationStackBatch{}, fmt.Errorf("failed to decode flight batch: %w", err)
	}
	return b, nil
}

// appendItems decodes raw items into result, keeping each raw object.
func appendItems(result *repository.FetchResult, items []json.RawMessage, decode func(json.RawMessage) (entity.FlightRecord, error)) error {
	base := len(result.Records)
	for i, item := range items {
		record, err := decode(item)
		if err != nil {
			return fmt.Errorf("failed to decode flight %d: %w", base+i, err)
		}
		var raw map[string]interface{}
		if err := json.Unmarshal(item, &raw); err != nil {
			return fmt.Errorf("failed to decode flight %d: %w", base+i, err)
		}
		result.Records = append(result.Records, record)
		result.Raw = append(result.Raw, raw)
	}
	return nil
}
