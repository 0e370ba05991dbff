package repository

import (
	"context"

	"flightwindow-service/internal/domain/entity"
)

// SnapshotRepository keeps raw upstream payloads
type SnapshotRepository interface {
	Save(ctx context.Context, snapshot *entity.RawSnapshot) error
	FindByDate(ctx context.Context, date, airport string) (*entity.RawSnapshot, error)
}
