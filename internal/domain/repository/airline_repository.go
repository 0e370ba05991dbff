package repository

import (
	"context"

	"flightwindow-service/internal/domain/entity"
)

// AirlineRepository defines the interface for airline reference lookups
type AirlineRepository interface {
	GetByIATA(ctx context.Context, code string) (*entity.Airline, error)
}
