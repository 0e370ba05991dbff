package entity

import (
	"time"

	"gorm.io/gorm"
)

// Timezone maps an airport to its IANA zone
type Timezone struct {
	ID          uint
	AirportCode string
	AirportICAO string
	AirportName string
	CityName    string
	TzName      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   gorm.DeletedAt
}

// Location loads the IANA zone for the airport.
func (t *Timezone) Location() (*time.Location, error) {
	return time.LoadLocation(t.TzName)
}
