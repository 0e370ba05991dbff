package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flightwindow-service/internal/app"
	"flightwindow-service/internal/domain/entity"
	"flightwindow-service/internal/infrastructure/config"
	"flightwindow-service/pkg/logger"
)

const dateLayout = "2006-01-02"

func main() {
	from := flag.String("from", "", "first date to ingest (YYYY-MM-DD)")
	to := flag.String("to", "", "last date to ingest, inclusive (defaults to -from)")
	policy := flag.String("policy", "", "write policy: overwrite, append or upsert (defaults to WRITE_POLICY)")
	skipDone := flag.Bool("skip-done", false, "skip days whose last run succeeded")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger(cfg.LogLevel)
	defer log.Sync()

	start, end, err := parseRange(*from, *to)
	if err != nil {
		log.Fatal("Invalid date range", "error", err)
	}
	writePolicy := cfg.Pipeline.WritePolicy
	if *policy != "" {
		if writePolicy, err = entity.ParseWritePolicy(*policy); err != nil {
			log.Fatal("Invalid write policy", "error", err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialise service", "error", err)
	}
	defer a.Close(context.Background())

	log.Info("Starting backfill",
		"from", start.Format(dateLayout),
		"to", end.Format(dateLayout),
		"policy", writePolicy,
		"skip_done", *skipDone)

	summaries, err := a.Processor.ProcessRange(ctx, start, end, writePolicy, *skipDone)
	for _, s := range summaries {
		log.Info("Day ingested",
			"date", s.Date,
			"total", s.Summary.Total,
			"night", s.Summary.Categories.Night,
			"shoulder", s.Summary.Categories.Shoulder)
	}
	if err != nil {
		log.Error("Backfill finished with errors", "ingested", len(summaries), "error", err)
		a.Close(context.Background())
		os.Exit(1)
	}
	log.Info("Backfill finished", "ingested", len(summaries))
}

func parseRange(from, to string) (time.Time, time.Time, error) {
	if from == "" {
		return time.Time{}, time.Time{}, fmt.Errorf("-from is required")
	}
	if to == "" {
		to = from
	}
	start, err := time.Parse(dateLayout, from)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid -from: %w", err)
	}
	end, err := time.Parse(dateLayout, to)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid -to: %w", err)
	}
	if end.Before(start) {
		return time.Time{}, time.Time{}, fmt.Errorf("-to %s is before -from %s", to, from)
	}
	return start, end, nil
}
