package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"flightwindow-service/internal/domain/entity"
	"flightwindow-service/internal/domain/repository"

	"gorm.io/gorm"
)

// GormFlightRepository implements the FlightRepository interface
type GormFlightRepository struct {
	db *gorm.DB
}

// NewGormFlightRepository creates a new GORM flight repository
func NewGormFlightRepository(db *gorm.DB) repository.FlightRepository {
	return &GormFlightRepository{
		db: db,
	}
}

// Flights GORM model for database mapping. (flight_date, airport, leg,
// flight, scheduled) is the natural key used by the upsert policy.
type Flights struct {
	ID               uint   `gorm:"primaryKey"`
	FlightDate       string `gorm:"column:flight_date;size:10;index:idx_flights_natural,priority:1"`
	Airport          string `gorm:"column:airport;size:4;index:idx_flights_natural,priority:2"`
	Leg              string `gorm:"column:leg;size:12;index:idx_flights_natural,priority:3"`
	Flight           string `gorm:"column:flight;size:16;index:idx_flights_natural,priority:4"`
	Scheduled        string `gorm:"column:scheduled;size:40;index:idx_flights_natural,priority:5"`
	AirlineName      string `gorm:"column:airline_name"`
	AirlineIATA      string `gorm:"column:airline_iata;size:3"`
	FlightStatus     string `gorm:"column:flight_status"`
	DepartureAirport string `gorm:"column:departure_airport;size:4"`
	ArrivalAirport   string `gorm:"column:arrival_airport;size:4"`
	TimeCategory     string `gorm:"column:time_category;size:10;index"`
	TimeSource       string `gorm:"column:time_source;size:10"`
	Timestamp        string `gorm:"column:timestamp;size:40"`
	DelayMinutes     *int   `gorm:"column:delay_minutes"`
	CodeshareOf      string `gorm:"column:codeshare_of"`
	Record           string `gorm:"column:record;type:jsonb"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName overrides the default table name
func (Flights) TableName() string {
	return "flights"
}

// SaveDay writes flights for one airport-day under policy and returns the
// number of rows written.
func (r *GormFlightRepository) SaveDay(ctx context.Context, date, airport string, flights []entity.ClassifiedFlight, policy entity.WritePolicy) (int, error) {
	models := make([]Flights, 0, len(flights))
	for _, f := range flights {
		m, err := toFlightModel(date, airport, f)
		if err != nil {
			return 0, err
		}
		models = append(models, m)
	}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		switch policy {
		case entity.WriteOverwrite:
			if err := tx.Where("flight_date = ? AND airport = ?", date, airport).Delete(&Flights{}).Error; err != nil {
				return fmt.Errorf("failed to clear day: %w", err)
			}
			return createFlights(tx, models)
		case entity.WriteAppend:
			return createFlights(tx, models)
		case entity.WriteUpsert:
			for i := range models {
				m := models[i]
				var existing Flights
				// A map keeps empty key parts in the condition.
				err := tx.Where(map[string]interface{}{
					"flight_date": m.FlightDate,
					"airport":     m.Airport,
					"leg":         m.Leg,
					"flight":      m.Flight,
					"scheduled":   m.Scheduled,
				}).Assign(m).FirstOrCreate(&existing).Error
				if err != nil {
					return fmt.Errorf("failed to upsert flight %s: %w", m.Flight, err)
				}
			}
			return nil
		}
		return fmt.Errorf("%w: %q", entity.ErrUnknownPolicy, policy)
	})
	if err != nil {
		return 0, err
	}
	return len(models), nil
}

func createFlights(tx *gorm.DB, models []Flights) error {
	if len(models) == 0 {
		return nil
	}
	if err := tx.CreateInBatches(models, 200).Error; err != nil {
		return fmt.Errorf("failed to insert flights: %w", err)
	}
	return nil
}

// FindByDate returns stored flights for one airport-day in insertion order
func (r *GormFlightRepository) FindByDate(ctx context.Context, date, airport string, filter repository.FlightFilter) ([]entity.ClassifiedFlight, error) {
	query := r.db.WithContext(ctx).Where("flight_date = ? AND airport = ?", date, airport)
	if filter.Category != "" {
		query = query.Where("time_category = ?", string(filter.Category))
	}
	if filter.Leg != "" {
		query = query.Where("leg = ?", string(filter.Leg))
	}

	var rows []Flights
	if err := query.Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}

	flights := make([]entity.ClassifiedFlight, 0, len(rows))
	for _, row := range rows {
		f, err := fromFlightModel(row)
		if err != nil {
			return nil, err
		}
		flights = append(flights, f)
	}
	return flights, nil
}

func toFlightModel(date, airport string, f entity.ClassifiedFlight) (Flights, error) {
	record, err := json.Marshal(f.Record)
	if err != nil {
		return Flights{}, fmt.Errorf("failed to encode record %s: %w", f.Record.Designator(), err)
	}
	local, _ := f.LocalLeg()

	m := Flights{
		FlightDate:       date,
		Airport:          airport,
		Leg:              string(f.Leg),
		Flight:           f.Record.Designator(),
		Scheduled:        local.Scheduled,
		AirlineName:      f.Record.Airline.Name,
		AirlineIATA:      f.Record.Airline.IATA,
		FlightStatus:     f.Record.Status,
		DepartureAirport: f.Record.Departure.Code(),
		ArrivalAirport:   f.Record.Arrival.Code(),
		TimeCategory:     string(f.Category),
		TimeSource:       string(f.TimeSource),
		Timestamp:        f.Timestamp,
		DelayMinutes:     f.DelayMinutes,
		Record:           string(record),
	}
	if f.Record.Codeshare != nil {
		m.CodeshareOf = f.Record.Codeshare.FlightIATA
	}
	return m, nil
}

func fromFlightModel(m Flights) (entity.ClassifiedFlight, error) {
	var record entity.FlightRecord
	if m.Record != "" {
		if err := json.Unmarshal([]byte(m.Record), &record); err != nil {
			return entity.ClassifiedFlight{}, fmt.Errorf("failed to decode flight %d: %w", m.ID, err)
		}
	}
	return entity.ClassifiedFlight{
		Record:       record,
		Leg:          entity.LegKind(m.Leg),
		Category:     entity.ParseTimeCategory(m.TimeCategory),
		TimeSource:   entity.TimeSource(m.TimeSource),
		Timestamp:    m.Timestamp,
		DelayMinutes: m.DelayMinutes,
	}, nil
}
