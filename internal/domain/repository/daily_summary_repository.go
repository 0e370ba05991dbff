package repository

import (
	"context"

	"flightwindow-service/internal/domain/entity"
)

// DailySummaryRepository stores one summary per airport-day
type DailySummaryRepository interface {
	Upsert(ctx context.Context, summary *entity.DailySummary) error
	FindByDate(ctx context.Context, date, airport string) (*entity.DailySummary, error)
	FindRange(ctx context.Context, airport, from, to string) ([]*entity.DailySummary, error)
}
