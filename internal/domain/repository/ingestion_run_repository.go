package repository

import (
	"context"

	"flightwindow-service/internal/domain/entity"
)

// IngestionRunRepository records ingestion attempts
type IngestionRunRepository interface {
	Create(ctx context.Context, run *entity.IngestionRun) error
	Update(ctx context.Context, run *entity.IngestionRun) error
	LastByDate(ctx context.Context, date, airport string) (*entity.IngestionRun, error)
}
