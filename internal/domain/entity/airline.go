package entity

import (
	"time"

	"gorm.io/gorm"
)

// Airline is a reference row used to fill in missing airline names
type Airline struct {
	ID        uint
	IATA      string
	ICAO      string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt
}
