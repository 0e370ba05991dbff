package entity

import "time"

// RawSnapshot keeps the upstream payload of one airport-day as fetched
type RawSnapshot struct {
	Date       string                   `bson:"date"`
	Airport    string                   `bson:"airport"`
	Provider   string                   `bson:"provider"`
	Arrivals   []map[string]interface{} `bson:"arrivals"`
	Departures []map[string]interface{} `bson:"departures"`
	FetchedAt  time.Time                `bson:"fetchedAt"`
}
