package repository

import (
	"context"
	"time"

	"flightwindow-service/internal/domain/entity"
)

// Airport identifies the airport of interest to upstream providers
type Airport struct {
	IATA string
	ICAO string
}

// FetchResult is one direction of one airport-day as returned upstream
type FetchResult struct {
	Records []entity.FlightRecord
	Raw     []map[string]interface{}
}

// FlightSource fetches fully paginated batches from an upstream provider
type FlightSource interface {
	Name() string
	FetchArrivals(ctx context.Context, airport Airport, date time.Time) (*FetchResult, error)
	FetchDepartures(ctx context.Context, airport Airport, date time.Time) (*FetchResult, error)
}
