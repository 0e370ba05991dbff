package entity

import "time"

// DailySummary is the persisted summary of one airport-day
type DailySummary struct {
	Date                string    `json:"date"`
	Airport             string    `json:"airport"`
	Summary             Summary   `json:"summary"`
	AverageDelayMinutes float64   `json:"average_delay_minutes"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// MonthlySummary groups merged daily summaries by calendar month (YYYY-MM)
type MonthlySummary struct {
	Month   string  `json:"month"`
	Days    int     `json:"days"`
	Summary Summary `json:"summary"`
}
