package repository

import (
	"context"
	"errors"
	"time"

	"flightwindow-service/internal/domain/entity"
	"flightwindow-service/internal/domain/repository"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormDailySummaryRepository implements the DailySummaryRepository interface
type GormDailySummaryRepository struct {
	db *gorm.DB
}

// NewGormDailySummaryRepository creates a new GORM daily summary repository
func NewGormDailySummaryRepository(db *gorm.DB) repository.DailySummaryRepository {
	return &GormDailySummaryRepository{
		db: db,
	}
}

// DailySummaries GORM model for database mapping
type DailySummaries struct {
	ID                  uint    `gorm:"primaryKey"`
	SummaryDate         string  `gorm:"column:summary_date;size:10;uniqueIndex:idx_daily_summary_day"`
	Airport             string  `gorm:"column:airport;size:4;uniqueIndex:idx_daily_summary_day"`
	TotalFlights        int     `gorm:"column:total_flights"`
	Arrivals            int     `gorm:"column:arrivals"`
	Departures          int     `gorm:"column:departures"`
	RegularFlights      int     `gorm:"column:regular_flights"`
	ShoulderFlights     int     `gorm:"column:shoulder_flights"`
	NightFlights        int     `gorm:"column:night_flights"`
	UnknownFlights      int     `gorm:"column:unknown_flights"`
	RegularArrivals     int     `gorm:"column:regular_arrivals"`
	ShoulderArrivals    int     `gorm:"column:shoulder_arrivals"`
	NightArrivals       int     `gorm:"column:night_arrivals"`
	UnknownArrivals     int     `gorm:"column:unknown_arrivals"`
	RegularDepartures   int     `gorm:"column:regular_departures"`
	ShoulderDepartures  int     `gorm:"column:shoulder_departures"`
	NightDepartures     int     `gorm:"column:night_departures"`
	UnknownDepartures   int     `gorm:"column:unknown_departures"`
	AverageDelayMinutes float64 `gorm:"column:avg_delay_minutes"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// TableName overrides the default table name
func (DailySummaries) TableName() string {
	return "daily_summary"
}

// Upsert inserts the summary or replaces the stored counts for the same day
func (r *GormDailySummaryRepository) Upsert(ctx context.Context, summary *entity.DailySummary) error {
	model := toSummaryModel(summary)

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "summary_date"}, {Name: "airport"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_flights", "arrivals", "departures",
			"regular_flights", "shoulder_flights", "night_flights", "unknown_flights",
			"regular_arrivals", "shoulder_arrivals", "night_arrivals", "unknown_arrivals",
			"regular_departures", "shoulder_departures", "night_departures", "unknown_departures",
			"avg_delay_minutes", "updated_at",
		}),
	}).Create(&model)
	if result.Error != nil {
		return result.Error
	}

	summary.CreatedAt = model.CreatedAt
	summary.UpdatedAt = model.UpdatedAt
	return nil
}

// FindByDate finds the summary of one airport-day
func (r *GormDailySummaryRepository) FindByDate(ctx context.Context, date, airport string) (*entity.DailySummary, error) {
	var model DailySummaries
	result := r.db.WithContext(ctx).Where("summary_date = ? AND airport = ?", date, airport).First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, result.Error
	}
	return fromSummaryModel(model), nil
}

// FindRange returns stored summaries for from..to inclusive, oldest first
func (r *GormDailySummaryRepository) FindRange(ctx context.Context, airport, from, to string) ([]*entity.DailySummary, error) {
	var models []DailySummaries
	result := r.db.WithContext(ctx).
		Where("airport = ?", airport).
		Where("summary_date BETWEEN ? AND ?", from, to).
		Order("summary_date").
		Find(&models)
	if result.Error != nil {
		return nil, result.Error
	}

	summaries := make([]*entity.DailySummary, 0, len(models))
	for _, m := range models {
		summaries = append(summaries, fromSummaryModel(m))
	}
	return summaries, nil
}

func toSummaryModel(s *entity.DailySummary) DailySummaries {
	return DailySummaries{
		SummaryDate:         s.Date,
		Airport:             s.Airport,
		TotalFlights:        s.Summary.Total,
		Arrivals:            s.Summary.Arrivals,
		Departures:          s.Summary.Departures,
		RegularFlights:      s.Summary.Categories.Regular,
		ShoulderFlights:     s.Summary.Categories.Shoulder,
		NightFlights:        s.Summary.Categories.Night,
		UnknownFlights:      s.Summary.Categories.Unknown,
		RegularArrivals:     s.Summary.ArrivalCategories.Regular,
		ShoulderArrivals:    s.Summary.ArrivalCategories.Shoulder,
		NightArrivals:       s.Summary.ArrivalCategories.Night,
		UnknownArrivals:     s.Summary.ArrivalCategories.Unknown,
		RegularDepartures:   s.Summary.DepartureCategories.Regular,
		ShoulderDepartures:  s.Summary.DepartureCategories.Shoulder,
		NightDepartures:     s.Summary.DepartureCategories.Night,
		UnknownDepartures:   s.Summary.DepartureCategories.Unknown,
		AverageDelayMinutes: s.AverageDelayMinutes,
	}
}

func fromSummaryModel(m DailySummaries) *entity.DailySummary {
	return &entity.DailySummary{
		Date:    m.SummaryDate,
		Airport: m.Airport,
		Summary: entity.Summary{
			Total:      m.TotalFlights,
			Arrivals:   m.Arrivals,
			Departures: m.Departures,
			Categories: entity.CategoryHistogram{
				Regular:  m.RegularFlights,
				Shoulder: m.ShoulderFlights,
				Night:    m.NightFlights,
				Unknown:  m.UnknownFlights,
			},
			ArrivalCategories: entity.CategoryHistogram{
				Regular:  m.RegularArrivals,
				Shoulder: m.ShoulderArrivals,
				Night:    m.NightArrivals,
				Unknown:  m.UnknownArrivals,
			},
			DepartureCategories: entity.CategoryHistogram{
				Regular:  m.RegularDepartures,
				Shoulder: m.ShoulderDepartures,
				Night:    m.NightDepartures,
				Unknown:  m.UnknownDepartures,
			},
		},
		AverageDelayMinutes: m.AverageDelayMinutes,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}
