package repository

import (
	"context"

	"flightwindow-service/internal/domain/entity"
)

// SummaryPublisher announces a freshly stored daily summary
type SummaryPublisher interface {
	Publish(ctx context.Context, summary *entity.DailySummary) error
}
