// Package app wires configuration, storage and use cases for the binaries
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/streadway/amqp"
	"go.mongodb.org/mongo-driver/mongo"
	"gorm.io/gorm"

	"flightwindow-service/internal/domain/repository"
	"flightwindow-service/internal/infrastructure/config"
	"flightwindow-service/internal/infrastructure/messaging"
	"flightwindow-service/internal/infrastructure/oauth"
	"flightwindow-service/internal/infrastructure/persistence"
	"flightwindow-service/internal/infrastructure/router"
	"flightwindow-service/internal/interface/aviation"
	repo "flightwindow-service/internal/interface/repository"
	"flightwindow-service/internal/usecase"
	"flightwindow-service/pkg/logger"
	"flightwindow-service/pkg/metrics"
)

// App holds the connections and use cases shared by the binaries
type App struct {
	Config    *config.Config
	Logger    logger.Logger
	Registry  *prometheus.Registry
	Metrics   *metrics.Metrics
	Pipeline  *usecase.Pipeline
	Processor *usecase.FlightProcessor
	Reports   *usecase.ReportService
	Location  *time.Location

	db          *gorm.DB
	mongoClient *mongo.Client
	amqpChannel *amqp.Channel
	amqpConn    *amqp.Connection
}

// New connects to PostgreSQL, MongoDB and (when RABBITMQ_URL is set)
// RabbitMQ, migrates the tables and builds the processor for the
// configured provider.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: log, Registry: prometheus.NewRegistry()}
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.NewMetrics("flightwindow", a.Registry)

	log.Info("Connecting to PostgreSQL")
	db, err := persistence.NewPostgres(cfg.PostgresURI)
	if err != nil {
		return nil, err
	}
	a.db = db
	if err := persistence.Migrate(db, &repo.Flights{}, &repo.DailySummaries{}, &repo.IngestionRuns{}); err != nil {
		a.Close(ctx)
		return nil, err
	}

	log.Info("Connecting to MongoDB")
	mongoClient, mongoDB, err := persistence.NewMongoClient(ctx, persistence.MongoOptions{
		URI:      cfg.MongoURI,
		Database: cfg.MongoDB,
		Username: cfg.MongoUser,
		Password: cfg.MongoPassword,
	})
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.mongoClient = mongoClient

	var publisher repository.SummaryPublisher
	if cfg.RabbitMQURL != "" {
		log.Info("Connecting to RabbitMQ", "exchange", cfg.SummaryExchange)
		ch, conn, err := messaging.SetupRabbitMQ(cfg.RabbitMQURL, cfg.SummaryExchange)
		if err != nil {
			a.Close(ctx)
			return nil, err
		}
		a.amqpChannel, a.amqpConn = ch, conn
		publisher = repo.NewAMQPSummaryPublisher(ch, cfg.SummaryExchange, log)
	}

	timezoneRepo := repo.NewGormTimezoneRepository(db)
	loc, err := ResolveLocation(ctx, cfg.Pipeline, timezoneRepo)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	a.Location = loc
	a.Pipeline, err = usecase.NewPipeline(PipelineSettings(cfg.Pipeline, loc), usecase.NewDiagnosticSink(log, a.Metrics))
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	sources, err := NewSources(ctx, cfg, a.Metrics, log)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}
	source, err := sources.Get(cfg.Provider)
	if err != nil {
		a.Close(ctx)
		return nil, err
	}

	flightRepo := repo.NewGormFlightRepository(db)
	summaryRepo := repo.NewGormDailySummaryRepository(db)
	a.Processor = usecase.NewFlightProcessor(
		source,
		repository.Airport{IATA: cfg.Pipeline.Airport.IATA, ICAO: cfg.Pipeline.Airport.ICAO},
		a.Pipeline,
		repo.NewGormAirlineRepository(db),
		flightRepo,
		summaryRepo,
		repo.NewMongoSnapshotRepository(mongoDB),
		repo.NewGormIngestionRunRepository(db),
		publisher,
		a.Metrics,
		log,
	)
	a.Reports = usecase.NewReportService(summaryRepo, flightRepo)
	return a, nil
}

// Close releases every connection that was opened
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.amqpChannel != nil || a.amqpConn != nil {
		if err := messaging.CloseRabbitMQ(a.amqpChannel, a.amqpConn); err != nil {
			errs = append(errs, err)
		}
	}
	if a.mongoClient != nil {
		if err := a.mongoClient.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("mongo disconnect: %w", err))
		}
	}
	if a.db != nil {
		if sqlDB, err := a.db.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				errs = append(errs, fmt.Errorf("postgres close: %w", err))
			}
		}
	}
	return errors.Join(errs...)
}

// NewSources builds every upstream client and registers it by name
func NewSources(ctx context.Context, cfg *config.Config, m *metrics.Metrics, log logger.Logger) (*router.SourceRouter, error) {
	opts := aviation.ClientOptions{
		PageSize:      cfg.FetchPageSize,
		MaxRetries:    cfg.FetchMaxRetries,
		RatePerSecond: cfg.FetchRatePerSecond,
		Metrics:       m,
		Logger:        log,
	}
	base := &http.Client{Timeout: 60 * time.Second}

	sources := router.NewSourceRouter(log)

	stackOpts := opts
	stackOpts.BaseURL = cfg.AviationStackURL
	stackOpts.HTTPClient = base
	sources.Register(aviation.NewAviationStackClient(cfg.AviationStackKey, stackOpts))

	edgeOpts := opts
	edgeOpts.BaseURL = cfg.AviationEdgeURL
	edgeOpts.HTTPClient = base
	sources.Register(aviation.NewAviationEdgeClient(cfg.AviationEdgeKey, edgeOpts))

	skyOpts := opts
	skyOpts.BaseURL = cfg.OpenSkyURL
	skyOpts.HTTPClient = base
	skyAuth := oauth.NewOpenSkyOAuth(cfg.OpenSkyClientID, cfg.OpenSkyClientSecret, cfg.OpenSkyTokenURL, log)
	if skyAuth.Configured() {
		client, err := skyAuth.HTTPClient(ctx, base)
		if err != nil {
			return nil, err
		}
		client.Timeout = base.Timeout
		skyOpts.HTTPClient = client
	} else if cfg.Provider == "opensky" {
		log.Warn("OpenSky credentials not set, using anonymous access")
	}
	sources.Register(aviation.NewOpenSkyClient(skyOpts))

	return sources, nil
}

// ResolveLocation returns the airport zone used for local conversion, or
// nil when conversion is off. The configured zone wins over the
// m_timezone_list lookup.
func ResolveLocation(ctx context.Context, p config.PipelineConfig, timezones repository.TimezoneRepository) (*time.Location, error) {
	if !p.ConvertToLocal {
		return nil, nil
	}
	if p.Airport.Timezone != "" {
		return time.LoadLocation(p.Airport.Timezone)
	}
	for _, code := range p.Airport.Codes() {
		tz, err := timezones.GetByAirportCode(ctx, code)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up timezone for %s: %w", code, err)
		}
		loc, err := tz.Location()
		if err != nil {
			return nil, fmt.Errorf("invalid timezone %q for %s: %w", tz.TzName, code, err)
		}
		return loc, nil
	}
	return nil, fmt.Errorf("no timezone known for %s", strings.Join(p.Airport.Codes(), "/"))
}

// PipelineSettings maps the configured policy onto the pipeline
func PipelineSettings(p config.PipelineConfig, loc *time.Location) usecase.PipelineConfig {
	return usecase.PipelineConfig{
		AirportCodes:    p.Airport.Codes(),
		Window:          p.Window,
		DedupStrategy:   p.Dedup,
		ExcludeStatuses: p.ExcludeStatuses,
		Location:        loc,
	}
}
