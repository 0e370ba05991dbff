package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"flightwindow-service/internal/domain/entity"
	"flightwindow-service/internal/domain/repository"
)

// ErrInvalidRange is returned for unparseable or inverted report ranges
var ErrInvalidRange = errors.New("invalid date range")

// RangeReport merges stored daily summaries over a date range
type RangeReport struct {
	Airport             string                  `json:"airport"`
	From                string                  `json:"from"`
	To                  string                  `json:"to"`
	Days                int                     `json:"days"`
	Summary             entity.Summary          `json:"summary"`
	AverageDelayMinutes float64                 `json:"average_delay_minutes"`
	Months              []entity.MonthlySummary `json:"months"`
}

// ReportService reads stored results back out
type ReportService struct {
	summaryRepo repository.DailySummaryRepository
	flightRepo  repository.FlightRepository
}

// NewReportService creates a new report service
func NewReportService(summaryRepo repository.DailySummaryRepository, flightRepo repository.FlightRepository) *ReportService {
	return &ReportService{
		summaryRepo: summaryRepo,
		flightRepo:  flightRepo,
	}
}

// Daily returns the stored summary for one day
func (s *ReportService) Daily(ctx context.Context, date, airport string) (*entity.DailySummary, error) {
	return s.summaryRepo.FindByDate(ctx, date, airport)
}

// Flights returns the stored classified flights for one day
func (s *ReportService) Flights(ctx context.Context, date, airport string, filter repository.FlightFilter) ([]entity.ClassifiedFlight, error) {
	return s.flightRepo.FindByDate(ctx, date, airport, filter)
}

// Range merges every stored day in from..to. The average delay is weighted
// by each day's movement count.
func (s *ReportService) Range(ctx context.Context, airport, from, to string) (*RangeReport, error) {
	start, err := time.Parse(dateLayout, from)
	if err != nil {
		return nil, fmt.Errorf("%w: from %q", ErrInvalidRange, from)
	}
	end, err := time.Parse(dateLayout, to)
	if err != nil {
		return nil, fmt.Errorf("%w: to %q", ErrInvalidRange, to)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("%w: %s is before %s", ErrInvalidRange, to, from)
	}

	days, err := s.summaryRepo.FindRange(ctx, airport, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily summaries: %w", err)
	}
	return MergeDays(airport, from, to, days), nil
}

// MergeDays folds daily summaries into a range report grouped by month.
func MergeDays(airport, from, to string, days []*entity.DailySummary) *RangeReport {
	report := &RangeReport{Airport: airport, From: from, To: to, Months: []entity.MonthlySummary{}}
	months := make(map[string]*entity.MonthlySummary)

	var weightedDelay float64
	for _, d := range days {
		report.Days++
		report.Summary = report.Summary.Merge(d.Summary)
		weightedDelay += d.AverageDelayMinutes * float64(d.Summary.Total)

		key := d.Date
		if len(key) >= 7 {
			key = key[:7]
		}
		m, ok := months[key]
		if !ok {
			m = &entity.MonthlySummary{Month: key}
			months[key] = m
		}
		m.Days++
		m.Summary = m.Summary.Merge(d.Summary)
	}
	if report.Summary.Total > 0 {
		report.AverageDelayMinutes = roundHundredths(weightedDelay / float64(report.Summary.Total))
	}

	for _, m := range months {
		report.Months = append(report.Months, *m)
	}
	sort.Slice(report.Months, func(i, j int) bool { return report.Months[i].Month < report.Months[j].Month })
	return report
}
