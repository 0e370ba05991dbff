package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"flightwindow-service/internal/app"
	"flightwindow-service/internal/domain/entity"
	"flightwindow-service/internal/infrastructure/config"
	"flightwindow-service/internal/infrastructure/export"
	"flightwindow-service/internal/interface/aviation"
	"flightwindow-service/internal/usecase"
	"flightwindow-service/pkg/logger"
)

// Classifies a saved day of AviationStack flights without touching any
// store and writes the result in one of the export formats.
func main() {
	input := flag.String("input", "-", "batch file with arrivals and departures, - for stdin")
	format := flag.String("format", "json", "output format: json, csv, sql or xlsx")
	date := flag.String("date", "", "date the batch covers (defaults to the batch's own date)")
	airport := flag.String("airport", "", "IATA code of the airport (defaults to AIRPORT_IATA)")
	out := flag.String("out", "-", "output file, - for stdout")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger(cfg.LogLevel)
	defer log.Sync()

	if *airport != "" {
		cfg.Pipeline.Airport.IATA = strings.ToUpper(*airport)
		cfg.Pipeline.Airport.ICAO = ""
	}
	outFormat, err := export.ParseFormat(*format)
	if err != nil {
		log.Fatal("Invalid format", "error", err)
	}
	exporter, err := export.New(outFormat)
	if err != nil {
		log.Fatal("Invalid format", "error", err)
	}

	batch, err := readBatch(*input)
	if err != nil {
		log.Fatal("Failed to read batch", "input", *input, "error", err)
	}

	settings := app.PipelineSettings(cfg.Pipeline, nil)
	if cfg.Pipeline.ConvertToLocal {
		if cfg.Pipeline.Airport.Timezone == "" {
			log.Fatal("CONVERT_TO_LOCAL needs AIRPORT_TIMEZONE when classifying offline")
		}
		if settings.Location, err = time.LoadLocation(cfg.Pipeline.Airport.Timezone); err != nil {
			log.Fatal("Invalid airport timezone", "error", err)
		}
	}
	pipeline, err := usecase.NewPipeline(settings, usecase.NewDiagnosticSink(log, nil))
	if err != nil {
		log.Fatal("Failed to build pipeline", "error", err)
	}

	arrivals, departures := batch.Records()
	result := pipeline.Run(usecase.Batch{Arrivals: arrivals, Departures: departures})

	day := *date
	if day == "" {
		day = batch.Date
	}
	report := export.Report{
		Summary: entity.DailySummary{
			Date:                day,
			Airport:             settings.AirportCodes[0],
			Summary:             result.Summary,
			AverageDelayMinutes: result.AverageDelayMinutes,
		},
		Flights: result.Flights,
		Policy:  cfg.Pipeline.WritePolicy,
	}

	if err := writeReport(*out, exporter, report); err != nil {
		log.Fatal("Failed to write output", "out", *out, "error", err)
	}
	log.Info("Batch classified",
		"total", result.Summary.Total,
		"dropped", result.Dropped,
		"excluded", result.Excluded,
		"out", *out)
}

func readBatch(path string) (aviation.AviationStackBatch, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return aviation.AviationStackBatch{}, err
		}
		defer f.Close()
		r = f
	}
	return aviation.DecodeAviationStackBatch(bufio.NewReader(r))
}

func writeReport(path string, e export.Exporter, r export.Report) error {
	if path == "-" {
		return e.Write(os.Stdout, r)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := e.Write(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
