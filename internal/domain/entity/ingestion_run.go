package entity

import "time"

// Ingestion run status
const (
	RunStatusProcessing = "PROCESSING"
	RunStatusSucceeded  = "SUCCEEDED"
	RunStatusEmpty      = "EMPTY"
	RunStatusFailed     = "FAILED"
)

// IngestionRun records one attempt to ingest an airport-day
type IngestionRun struct {
	ID          uint
	Date        string
	Airport     string
	Provider    string
	Status      string
	Fetched     int
	Excluded    int
	Dropped     int
	Stored      int
	ErrorDetail string
	StartedAt   time.Time
	FinishedAt  time.Time
}
