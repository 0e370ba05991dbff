package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"flightwindow-service/internal/domain/entity"
	"flightwindow-service/internal/domain/repository"
	"flightwindow-service/pkg/logger"
	"flightwindow-service/pkg/metrics"
)

const dateLayout = "2006-01-02"

// FlightProcessor ingests one airport-day at a time: fetch, classify, store.
type FlightProcessor struct {
	source       repository.FlightSource
	airport      repository.Airport
	pipeline     *Pipeline
	airlineRepo  repository.AirlineRepository
	flightRepo   repository.FlightRepository
	summaryRepo  repository.DailySummaryRepository
	snapshotRepo repository.SnapshotRepository
	runRepo      repository.IngestionRunRepository
	publisher    repository.SummaryPublisher
	metrics      *metrics.Metrics
	logger       logger.Logger
}

// NewFlightProcessor creates a new flight processor. snapshotRepo, publisher
// and m may be nil.
func NewFlightProcessor(
	source repository.FlightSource,
	airport repository.Airport,
	pipeline *Pipeline,
	airlineRepo repository.AirlineRepository,
	flightRepo repository.FlightRepository,
	summaryRepo repository.DailySummaryRepository,
	snapshotRepo repository.SnapshotRepository,
	runRepo repository.IngestionRunRepository,
	publisher repository.SummaryPublisher,
	m *metrics.Metrics,
	logger logger.Logger,
) *FlightProcessor {
	return &FlightProcessor{
		source:       source,
		airport:      airport,
		pipeline:     pipeline,
		airlineRepo:  airlineRepo,
		flightRepo:   flightRepo,
		summaryRepo:  summaryRepo,
		snapshotRepo: snapshotRepo,
		runRepo:      runRepo,
		publisher:    publisher,
		metrics:      m,
		logger:       logger,
	}
}

// AirportCode is the code days are stored under
func (fp *FlightProcessor) AirportCode() string {
	if fp.airport.IATA != "" {
		return strings.ToUpper(fp.airport.IATA)
	}
	return strings.ToUpper(fp.airport.ICAO)
}

// ProcessDay ingests a single date. A day with no upstream flights is
// recorded as EMPTY and nothing is stored.
func (fp *FlightProcessor) ProcessDay(ctx context.Context, date time.Time, policy entity.WritePolicy) (*entity.DailySummary, error) {
	day := date.Format(dateLayout)
	airport := fp.AirportCode()
	log := fp.logger.With("date", day, "airport", airport, "provider", fp.source.Name())
	start := time.Now()

	run := &entity.IngestionRun{
		Date:      day,
		Airport:   airport,
		Provider:  fp.source.Name(),
		Status:    entity.RunStatusProcessing,
		StartedAt: start,
	}
	if err := fp.runRepo.Create(ctx, run); err != nil {
		return nil, fmt.Errorf("failed to create ingestion run: %w", err)
	}

	summary, err := fp.processDay(ctx, date, day, airport, policy, run, log)

	run.FinishedAt = time.Now()
	if err != nil {
		run.Status = entity.RunStatusFailed
		run.ErrorDetail = err.Error()
		fp.countError("ingest")
		log.Error("Failed to ingest day", "error", err)
	}
	// The run row must be closed even when ctx was cancelled mid-day.
	if uerr := fp.runRepo.Update(context.WithoutCancel(ctx), run); uerr != nil {
		log.Error("Failed to update ingestion run", "runID", run.ID, "error", uerr)
	}

	if fp.metrics != nil {
		fp.metrics.IngestionTime.Observe(time.Since(start).Seconds())
		if err == nil {
			fp.metrics.LastSuccessfulIngest.SetToCurrentTime()
		}
	}
	return summary, err
}

func (fp *FlightProcessor) processDay(
	ctx context.Context,
	date time.Time,
	day, airport string,
	policy entity.WritePolicy,
	run *entity.IngestionRun,
	log logger.Logger,
) (*entity.DailySummary, error) {
	log.Info("Starting ingestion")

	arrivals, err := fp.source.FetchArrivals(ctx, fp.airport, date)
	if err != nil {
		return nil, fmt.Errorf("fetch arrivals: %w", err)
	}
	departures, err := fp.source.FetchDepartures(ctx, fp.airport, date)
	if err != nil {
		return nil, fmt.Errorf("fetch departures: %w", err)
	}
	run.Fetched = len(arrivals.Records) + len(departures.Records)
	if fp.metrics != nil {
		fp.metrics.FlightsFetched.WithLabelValues(fp.source.Name(), string(entity.LegArrival)).Add(float64(len(arrivals.Records)))
		fp.metrics.FlightsFetched.WithLabelValues(fp.source.Name(), string(entity.LegDeparture)).Add(float64(len(departures.Records)))
	}
	log.Info("Fetched flights", "arrivals", len(arrivals.Records), "departures", len(departures.Records))

	if run.Fetched == 0 {
		run.Status = entity.RunStatusEmpty
		log.Warn("No flights returned upstream")
		return &entity.DailySummary{Date: day, Airport: airport}, nil
	}

	if fp.snapshotRepo != nil {
		snapshot := &entity.RawSnapshot{
			Date:       day,
			Airport:    airport,
			Provider:   fp.source.Name(),
			Arrivals:   arrivals.Raw,
			Departures: departures.Raw,
			FetchedAt:  time.Now().UTC(),
		}
		if err := fp.snapshotRepo.Save(ctx, snapshot); err != nil {
			// The snapshot is an audit copy; classification goes on without it.
			fp.countError("snapshot")
			log.Error("Failed to store raw snapshot", "error", err)
		}
	}

	batch := Batch{Arrivals: arrivals.Records, Departures: departures.Records}
	fp.enrichAirlines(ctx, &batch, log)

	result := fp.pipeline.Run(batch)
	run.Excluded = result.Excluded
	run.Dropped = result.Dropped

	stored, err := fp.flightRepo.SaveDay(ctx, day, airport, result.Flights, policy)
	if err != nil {
		return nil, fmt.Errorf("save flights: %w", err)
	}
	run.Stored = stored

	summary := &entity.DailySummary{
		Date:                day,
		Airport:             airport,
		Summary:             result.Summary,
		AverageDelayMinutes: result.AverageDelayMinutes,
	}
	if err := fp.summaryRepo.Upsert(ctx, summary); err != nil {
		return nil, fmt.Errorf("save daily summary: %w", err)
	}

	if fp.publisher != nil {
		if err := fp.publisher.Publish(ctx, summary); err != nil {
			fp.countError("publish")
			log.Error("Failed to publish daily summary", "error", err)
		}
	}

	fp.observe(result)
	run.Status = entity.RunStatusSucceeded
	log.Info("Day ingested",
		"total", result.Summary.Total,
		"night", result.Summary.Categories.Night,
		"shoulder", result.Summary.Categories.Shoulder,
		"dropped", result.Dropped,
		"excluded", result.Excluded,
		"stored", stored)
	return summary, nil
}

// enrichAirlines fills empty airline names from the reference table.
func (fp *FlightProcessor) enrichAirlines(ctx context.Context, batch *Batch, log logger.Logger) {
	if fp.airlineRepo == nil {
		return
	}
	names := make(map[string]string)
	fill := func(records []entity.FlightRecord) {
		for i := range records {
			r := &records[i]
			code := strings.ToUpper(strings.TrimSpace(r.Airline.IATA))
			if r.Airline.Name != "" || code == "" {
				continue
			}
			name, seen := names[code]
			if !seen {
				airline, err := fp.airlineRepo.GetByIATA(ctx, code)
				if err != nil {
					if !errors.Is(err, repository.ErrNotFound) {
						log.Warn("Failed to get airline", "code", code, "error", err)
					}
				} else {
					name = airline.Name
				}
				names[code] = name
			}
			r.Airline.Name = name
		}
	}
	fill(batch.Arrivals)
	fill(batch.Departures)
}

func (fp *FlightProcessor) observe(result PipelineResult) {
	if fp.metrics == nil {
		return
	}
	for _, f := range result.Flights {
		fp.metrics.FlightsClassified.WithLabelValues(string(f.Leg), string(f.Category)).Inc()
	}
	fp.metrics.CodesharesDropped.Add(float64(result.Dropped))
	fp.metrics.FlightsExcluded.Add(float64(result.Excluded))
}

func (fp *FlightProcessor) countError(operation string) {
	if fp.metrics != nil {
		fp.metrics.ErrorsCount.WithLabelValues(operation).Inc()
	}
}

// ProcessRange ingests every date from..to inclusive, in order. A failed day
// is logged and the range continues; the failures are joined into the
// returned error. skipDone leaves days whose last run succeeded untouched.
func (fp *FlightProcessor) ProcessRange(ctx context.Context, from, to time.Time, policy entity.WritePolicy, skipDone bool) ([]*entity.DailySummary, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("range end %s is before start %s", to.Format(dateLayout), from.Format(dateLayout))
	}

	var summaries []*entity.DailySummary
	var errs []error
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if skipDone && fp.alreadyIngested(ctx, d) {
			fp.logger.Info("Skipping ingested day", "date", d.Format(dateLayout))
			continue
		}
		summary, err := fp.ProcessDay(ctx, d, policy)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", d.Format(dateLayout), err))
			continue
		}
		summaries = append(summaries, summary)
	}
	return summaries, errors.Join(errs...)
}

func (fp *FlightProcessor) alreadyIngested(ctx context.Context, date time.Time) bool {
	last, err := fp.runRepo.LastByDate(ctx, date.Format(dateLayout), fp.AirportCode())
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			fp.logger.Warn("Failed to look up last ingestion run", "date", date.Format(dateLayout), "error", err)
		}
		return false
	}
	return last.Status == entity.RunStatusSucceeded
}
