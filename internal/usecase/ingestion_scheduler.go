package usecase

import (
	"context"
	"time"

	"flightwindow-service/internal/domain/entity"
	"flightwindow-service/pkg/logger"
)

// RangeProcessor is the part of FlightProcessor the scheduler drives
type RangeProcessor interface {
	ProcessRange(ctx context.Context, from, to time.Time, policy entity.WritePolicy, skipDone bool) ([]*entity.DailySummary, error)
}

// IngestionScheduler periodically ingests the day that is lagDays behind today
type IngestionScheduler struct {
	processor RangeProcessor
	interval  time.Duration
	lagDays   int
	policy    entity.WritePolicy
	location  *time.Location
	now       func() time.Time
	logger    logger.Logger
}

// NewIngestionScheduler creates a new scheduler. "Today" is taken in loc,
// UTC when nil.
func NewIngestionScheduler(processor RangeProcessor, interval time.Duration, lagDays int, policy entity.WritePolicy, loc *time.Location, logger logger.Logger) *IngestionScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &IngestionScheduler{
		processor: processor,
		interval:  interval,
		lagDays:   lagDays,
		policy:    policy,
		location:  loc,
		now:       time.Now,
		logger:    logger,
	}
}

// TargetDate is the date the next tick will ingest
func (s *IngestionScheduler) TargetDate() time.Time {
	now := s.now().In(s.location)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return today.AddDate(0, 0, -s.lagDays)
}

// RunOnce ingests the target date. A date whose last run succeeded is
// skipped unless the policy is overwrite.
func (s *IngestionScheduler) RunOnce(ctx context.Context) error {
	day := s.TargetDate()
	skipDone := s.policy != entity.WriteOverwrite
	_, err := s.processor.ProcessRange(ctx, day, day, s.policy, skipDone)
	return err
}

// Start runs once immediately, then on every tick until ctx is cancelled
func (s *IngestionScheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Ingestion scheduler stopped")
			return
		case <-ticker.C:
			s.tick(ctx)
		}
	}
}

func (s *IngestionScheduler) tick(ctx context.Context) {
	s.logger.Info("Running scheduled ingestion", "date", s.TargetDate().Format(dateLayout))
	if err := s.RunOnce(ctx); err != nil {
		s.logger.Error("Scheduled ingestion failed", "error", err)
	}
}
