package repository

import (
	"context"

	"flightwindow-service/internal/domain/entity"
)

// FlightFilter narrows FindByDate results; zero values match everything
type FlightFilter struct {
	Category entity.TimeCategory
	Leg      entity.LegKind
}

// FlightRepository stores classified flights per airport-day
type FlightRepository interface {
	SaveDay(ctx context.Context, date, airport string, flights []entity.ClassifiedFlight, policy entity.WritePolicy) (int, error)
	FindByDate(ctx context.Context, date, airport string, filter FlightFilter) ([]entity.ClassifiedFlight, error)
}
