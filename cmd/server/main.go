package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"flightwindow-service/internal/app"
	"flightwindow-service/internal/infrastructure/config"
	"flightwindow-service/internal/interface/api"
	"flightwindow-service/internal/usecase"
	"flightwindow-service/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.NewLogger("info").Fatal("Failed to load config", "error", err)
	}

	// Create logger
	log := logger.NewLogger(cfg.LogLevel)
	defer log.Sync()
	log.Info("Starting Flightwindow Service",
		"version", cfg.AppVersion,
		"provider", cfg.Provider,
		"airport", cfg.Pipeline.Airport.IATA)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to initialise service", "error", err)
	}

	// Start scheduled ingestion in a goroutine
	scheduler := usecase.NewIngestionScheduler(
		a.Processor,
		cfg.CollectInterval,
		cfg.CollectLagDays,
		cfg.Pipeline.WritePolicy,
		a.Location,
		log,
	)
	go scheduler.Start(ctx)

	handler := api.NewHandler(a.Reports, a.Pipeline, a.Processor.AirportCode(), cfg.Pipeline.WritePolicy, log)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.NewRouter(handler, a.Registry, log),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start HTTP server in a goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error", "error", err)
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("Received signal", "signal", sig)

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown error", "error", err)
	}

	cancel()

	if err := a.Close(shutdownCtx); err != nil {
		log.Error("Failed to close connections", "error", err)
	}

	log.Info("Flightwindow Service stopped")
}
