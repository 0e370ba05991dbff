package export

import (
	"encoding/json"
	"io"

	"flightwindow-service/internal/domain/entity"
)

// JSONExporter writes the summary and flights as one indented document
type JSONExporter struct{}

func (JSONExporter) ContentType() string { return "application/json" }
func (JSONExporter) Extension() string   { return "json" }

func (JSONExporter) Write(w io.Writer, r Report) error {
	flights := r.Flights
	if flights == nil {
		flights = []entity.ClassifiedFlight{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(struct {
		Summary entity.DailySummary       `json:"summary"`
		Flights []entity.ClassifiedFlight `json:"flights"`
	}{r.Summary, flights})
}
