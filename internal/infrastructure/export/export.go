// Package export renders a classified airport-day for download
package export

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"flightwindow-service/internal/domain/entity"
)

// ErrUnknownFormat is returned by ParseFormat
var ErrUnknownFormat = errors.New("unknown export format")

// Format names an output encoding
type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatSQL  Format = "sql"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts a format name; empty means JSON.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatJSON, nil
	case FormatJSON, FormatCSV, FormatSQL, FormatXLSX:
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
}

// Report is one airport-day ready for rendering
type Report struct {
	Summary entity.DailySummary
	Flights []entity.ClassifiedFlight
	// Policy controls the statements emitted by the SQL exporter
	Policy entity.WritePolicy
}

// Exporter writes a Report in one format
type Exporter interface {
	ContentType() string
	Extension() string
	Write(w io.Writer, r Report) error
}

// New returns the exporter for format
func New(format Format) (Exporter, error) {
	switch format {
	case FormatJSON, "":
		return JSONExporter{}, nil
	case FormatCSV:
		return CSVExporter{}, nil
	case FormatSQL:
		return SQLExporter{}, nil
	case FormatXLSX:
		return XLSXExporter{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// Filename is the download name for r in exporter e
func Filename(e Exporter, r Report) string {
	return fmt.Sprintf("flights_%s_%s.%s", r.Summary.Airport, r.Summary.Date, e.Extension())
}

var flightColumns = []string{
	"leg", "flight", "airline", "airline_iata", "flight_status",
	"departure_airport", "arrival_airport", "scheduled", "estimated", "actual",
	"time_category", "time_source", "timestamp", "delay_minutes", "codeshare_of",
}

// flightRow flattens f in flightColumns order.
func flightRow(f entity.ClassifiedFlight) []string {
	local, _ := f.LocalLeg()
	delay := ""
	if f.DelayMinutes != nil {
		delay = strconv.Itoa(*f.DelayMinutes)
	}
	codeshare := ""
	if f.Record.Codeshare != nil {
		codeshare = f.Record.Codeshare.FlightIATA
		if codeshare == "" {
			codeshare = f.Record.Codeshare.AirlineIATA + f.Record.Codeshare.FlightNumber
		}
	}
	return []string{
		string(f.Leg),
		f.Record.Designator(),
		f.Record.Airline.Name,
		f.Record.Airline.IATA,
		f.Record.Status,
		f.Record.Departure.Code(),
		f.Record.Arrival.Code(),
		local.Scheduled,
		local.Estimated,
		local.Actual,
		string(f.Category),
		string(f.TimeSource),
		f.Timestamp,
		delay,
		codeshare,
	}
}
