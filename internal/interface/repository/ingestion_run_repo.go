package repository

import (
	"context"
	"errors"
	"time"

	"flightwindow-service/internal/domain/entity"
	"flightwindow-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormIngestionRunRepository implements the IngestionRunRepository interface
type GormIngestionRunRepository struct {
	db *gorm.DB
}

// NewGormIngestionRunRepository creates a new GORM ingestion run repository
func NewGormIngestionRunRepository(db *gorm.DB) repository.IngestionRunRepository {
	return &GormIngestionRunRepository{
		db: db,
	}
}

// IngestionRuns GORM model for database mapping
type IngestionRuns struct {
	gorm.Model
	RunDate     string     `gorm:"column:run_date;size:10;index:idx_ingestion_runs_day"`
	Airport     string     `gorm:"column:airport;size:4;index:idx_ingestion_runs_day"`
	Provider    string     `gorm:"column:provider"`
	Status      string     `gorm:"column:status"`
	Fetched     int        `gorm:"column:fetched"`
	Excluded    int        `gorm:"column:excluded"`
	Dropped     int        `gorm:"column:dropped"`
	Stored      int        `gorm:"column:stored"`
	ErrorDetail string     `gorm:"column:error_detail"`
	StartedAt   time.Time  `gorm:"column:started_at"`
	FinishedAt  *time.Time `gorm:"column:finished_at"`
}

// TableName overrides the default table name
func (IngestionRuns) TableName() string {
	return "ingestion_runs"
}

// Create inserts a new ingestion run into the database
func (r *GormIngestionRunRepository) Create(ctx context.Context, run *entity.IngestionRun) error {
	model := toRunModel(run)

	result := r.db.WithContext(ctx).Create(&model)
	if result.Error != nil {
		return result.Error
	}

	// Update the entity with the generated ID
	run.ID = model.ID
	return nil
}

// Update saves the status and counts of an existing run
func (r *GormIngestionRunRepository) Update(ctx context.Context, run *entity.IngestionRun) error {
	model := toRunModel(run)

	return r.db.WithContext(ctx).Model(&IngestionRuns{}).Where("id = ?", run.ID).Updates(map[string]interface{}{
		"status":       model.Status,
		"fetched":      model.Fetched,
		"excluded":     model.Excluded,
		"dropped":      model.Dropped,
		"stored":       model.Stored,
		"error_detail": model.ErrorDetail,
		"finished_at":  model.FinishedAt,
	}).Error
}

// LastByDate finds the most recent run for an airport-day
func (r *GormIngestionRunRepository) LastByDate(ctx context.Context, date, airport string) (*entity.IngestionRun, error) {
	var model IngestionRuns
	result := r.db.WithContext(ctx).
		Where("run_date = ? AND airport = ?", date, airport).
		Order("id DESC").
		First(&model)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, result.Error
	}
	return fromRunModel(model), nil
}

func toRunModel(run *entity.IngestionRun) IngestionRuns {
	m := IngestionRuns{
		RunDate:     run.Date,
		Airport:     run.Airport,
		Provider:    run.Provider,
		Status:      run.Status,
		Fetched:     run.Fetched,
		Excluded:    run.Excluded,
		Dropped:     run.Dropped,
		Stored:      run.Stored,
		ErrorDetail: run.ErrorDetail,
		StartedAt:   run.StartedAt,
	}
	if !run.FinishedAt.IsZero() {
		finished := run.FinishedAt
		m.FinishedAt = &finished
	}
	return m
}

func fromRunModel(m IngestionRuns) *entity.IngestionRun {
	run := &entity.IngestionRun{
		ID:          m.ID,
		Date:        m.RunDate,
		Airport:     m.Airport,
		Provider:    m.Provider,
		Status:      m.Status,
		Fetched:     m.Fetched,
		Excluded:    m.Excluded,
		Dropped:     m.Dropped,
		Stored:      m.Stored,
		ErrorDetail: m.ErrorDetail,
		StartedAt:   m.StartedAt,
	}
	if m.FinishedAt != nil {
		run.FinishedAt = *m.FinishedAt
	}
	return run
}
