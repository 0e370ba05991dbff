package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"flightwindow-service/internal/domain/entity"
)

const (
	summarySheet = "Summary"
	flightsSheet = "Flights"
)

// XLSXExporter writes a workbook with a summary sheet and a flights sheet
type XLSXExporter struct{}

func (XLSXExporter) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}
func (XLSXExporter) Extension() string { return "xlsx" }

func (XLSXExporter) Write(w io.Writer, r Report) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(summarySheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if _, err := f.NewSheet(flightsSheet); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	s := r.Summary.Summary
	f.SetCellValue(summarySheet, "A1", fmt.Sprintf("%s %s", r.Summary.Airport, r.Summary.Date))
	f.MergeCell(summarySheet, "A1", "D1")
	writeRow(f, summarySheet, 2, []interface{}{"Category", "Arrivals", "Departures", "Total"})
	f.SetCellStyle(summarySheet, "A2", "D2", headerStyle)
	row := 3
	for _, c := range entity.Categories {
		writeRow(f, summarySheet, row, []interface{}{
			string(c), s.ArrivalCategories.Get(c), s.DepartureCategories.Get(c), s.Categories.Get(c),
		})
		row++
	}
	writeRow(f, summarySheet, row, []interface{}{"Total", s.Arrivals, s.Departures, s.Total})
	writeRow(f, summarySheet, row+2, []interface{}{"Average delay (min)", r.Summary.AverageDelayMinutes})
	f.SetColWidth(summarySheet, "A", "A", 22)
	f.SetColWidth(summarySheet, "B", "D", 12)

	header := make([]interface{}, len(flightColumns))
	for i, c := range flightColumns {
		header[i] = c
	}
	writeRow(f, flightsSheet, 1, header)
	last, _ := excelize.ColumnNumberToName(len(flightColumns))
	f.SetCellStyle(flightsSheet, "A1", last+"1", headerStyle)
	f.SetColWidth(flightsSheet, "A", last, 16)
	for i, fl := range r.Flights {
		values := flightRow(fl)
		cells := make([]interface{}, len(values))
		for j, v := range values {
			cells[j] = v
		}
		// Delay is numeric in the sheet.
		if fl.DelayMinutes != nil {
			cells[13] = *fl.DelayMinutes
		}
		writeRow(f, flightsSheet, i+2, cells)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) {
	cell, _ := excelize.CoordinatesToCellName(1, row)
	f.SetSheetRow(sheet, cell, &values)
}
