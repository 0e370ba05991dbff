package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"flightwindow-service/internal/infrastructure/config"
	"flightwindow-service/internal/infrastructure/oauth"
	"flightwindow-service/pkg/logger"
)

// Fetches an OpenSky access token with the configured client credentials
// and prints it, for checking credentials before enabling the provider.
func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.NewLogger(cfg.LogLevel)
	defer log.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	auth := oauth.NewOpenSkyOAuth(cfg.OpenSkyClientID, cfg.OpenSkyClientSecret, cfg.OpenSkyTokenURL, log)
	token, err := auth.FetchToken(ctx)
	if err != nil {
		log.Fatal("Failed to fetch OpenSky token", "error", err)
	}

	out, err := auth.TokenToJSON(token)
	if err != nil {
		log.Fatal("Failed to encode token", "error", err)
	}
	fmt.Println(out)
	fmt.Printf("\nExpires in: %s\n", time.Until(token.Expiry).Round(time.Second))
}
