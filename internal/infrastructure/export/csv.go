package export

import (
	"encoding/csv"
	"fmt"
	"io"
)

// CSVExporter writes one row per classified flight under a header row
type CSVExporter struct{}

func (CSVExporter) ContentType() string { return "text/csv" }
func (CSVExporter) Extension() string   { return "csv" }

func (CSVExporter) Write(w io.Writer, r Report) error {
	cw := csv.NewWriter(w)
	header := append([]string{"date", "airport"}, flightColumns...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, f := range r.Flights {
		row := append([]string{r.Summary.Date, r.Summary.Airport}, flightRow(f)...)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
