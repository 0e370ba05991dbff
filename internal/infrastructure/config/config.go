// internal/infrastructure/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"flightwindow-service/internal/domain/entity"
	"flightwindow-service/pkg/categorizer"
	"flightwindow-service/pkg/codeshare"
)

// ErrUnknownProvider is returned for a FLIGHT_PROVIDER nobody implements
var ErrUnknownProvider = errors.New("unknown flight provider")

// Providers lists the accepted FLIGHT_PROVIDER values
var Providers = []string{"aviationstack", "aviationedge", "opensky"}

// Config holds all configuration for the application
type Config struct {
	// App
	AppVersion string
	LogLevel   string

	// Server
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration

	// PostgreSQL
	PostgresURI string

	// MongoDB
	MongoURI      string
	MongoDB       string
	MongoUser     string
	MongoPassword string

	// RabbitMQ
	RabbitMQURL     string
	SummaryExchange string

	// Upstream
	Provider            string
	AviationStackURL    string
	AviationStackKey    string
	AviationEdgeURL     string
	AviationEdgeKey     string
	OpenSkyURL          string
	OpenSkyTokenURL     string
	OpenSkyClientID     string
	OpenSkyClientSecret string
	FetchPageSize       int
	FetchMaxRetries     int
	FetchRatePerSecond  float64

	// Collector
	CollectInterval time.Duration
	CollectLagDays  int

	Pipeline PipelineConfig
}

// PipelineConfig is the classification policy. It can come from env or
// from the YAML file named by PIPELINE_CONFIG, which wins field by field.
type PipelineConfig struct {
	Airport         AirportConfig      `yaml:"airport"`
	Window          categorizer.Window `yaml:"window"`
	Dedup           codeshare.Strategy `yaml:"dedup"`
	ExcludeStatuses []string           `yaml:"exclude_statuses"`
	WritePolicy     entity.WritePolicy `yaml:"write_policy"`
	ConvertToLocal  bool               `yaml:"convert_to_local"`
}

// AirportConfig names the airport of interest
type AirportConfig struct {
	IATA     string `yaml:"iata"`
	ICAO     string `yaml:"icao"`
	Timezone string `yaml:"timezone"`
}

// Codes returns the non-empty airport codes
func (a AirportConfig) Codes() []string {
	var codes []string
	for _, c := range []string{a.IATA, a.ICAO} {
		if c != "" {
			codes = append(codes, c)
		}
	}
	return codes
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	godotenv.Load()

	config := &Config{
		AppVersion:   getEnv("APP_VERSION", "1.0.0"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Port:         getEnv("PORT", "8080"),
		ReadTimeout:  time.Duration(getEnvAsInt("READ_TIMEOUT", 30)) * time.Second,
		WriteTimeout: time.Duration(getEnvAsInt("WRITE_TIMEOUT", 30)) * time.Second,

		PostgresURI: getEnv("POSTGRES_DSN", "host=localhost user=postgres dbname=flightwindow sslmode=disable"),

		MongoURI:      getEnv("MONGODB_DSN", "mongodb://localhost:27017"),
		MongoDB:       getEnv("MONGO_DB", "flightwindow"),
		MongoUser:     getEnv("MONGO_USER", ""),
		MongoPassword: getEnv("MONGO_PASSWORD", ""),

		RabbitMQURL:     getEnv("RABBITMQ_URL", ""),
		SummaryExchange: getEnv("SUMMARY_EXCHANGE", "flightwindow.summaries"),

		Provider:            strings.ToLower(getEnv("FLIGHT_PROVIDER", "aviationstack")),
		AviationStackURL:    getEnv("AVIATIONSTACK_URL", "http://api.aviationstack.com"),
		AviationStackKey:    getEnv("AVIATIONSTACK_KEY", ""),
		AviationEdgeURL:     getEnv("AVIATIONEDGE_URL", "https://aviation-edge.com"),
		AviationEdgeKey:     getEnv("AVIATIONEDGE_KEY", ""),
		OpenSkyURL:          getEnv("OPENSKY_URL", "https://opensky-network.org"),
		OpenSkyTokenURL:     getEnv("OPENSKY_TOKEN_URL", "https://auth.opensky-network.org/auth/realms/opensky-network/protocol/openid-connect/token"),
		OpenSkyClientID:     getEnv("OPENSKY_CLIENT_ID", ""),
		OpenSkyClientSecret: getEnv("OPENSKY_CLIENT_SECRET", ""),
		FetchPageSize:       getEnvAsInt("FETCH_PAGE_SIZE", 100),
		FetchMaxRetries:     getEnvAsInt("FETCH_MAX_RETRIES", 5),
		FetchRatePerSecond:  getEnvAsFloat("FETCH_RATE_PER_SECOND", 1),

		CollectInterval: time.Duration(getEnvAsInt("COLLECT_INTERVAL", 3600)) * time.Second,
		CollectLagDays:  getEnvAsInt("COLLECT_LAG_DAYS", 1),

		Pipeline: PipelineConfig{
			Airport: AirportConfig{
				IATA:     strings.ToUpper(getEnv("AIRPORT_IATA", "BRS")),
				ICAO:     strings.ToUpper(getEnv("AIRPORT_ICAO", "EGGD")),
				Timezone: getEnv("AIRPORT_TIMEZONE", ""),
			},
			Window:          categorizer.DefaultWindow(),
			Dedup:           codeshare.Strategy(getEnv("DEDUP_STRATEGY", string(codeshare.StrategyScheduleRoute))),
			ExcludeStatuses: getEnvAsList("EXCLUDE_STATUSES", nil),
			WritePolicy:     entity.WritePolicy(getEnv("WRITE_POLICY", string(entity.WriteOverwrite))),
			ConvertToLocal:  getEnvAsBool("CONVERT_TO_LOCAL", false),
		},
	}

	if path := getEnv("PIPELINE_CONFIG", ""); path != "" {
		if err := config.Pipeline.LoadFile(path); err != nil {
			return nil, err
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFile overlays the YAML file at path onto p. Keys absent from the
// file keep their current values.
func (p *PipelineConfig) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read pipeline config: %w", err)
	}
	if err := yaml.Unmarshal(data, p); err != nil {
		return fmt.Errorf("failed to parse pipeline config %s: %w", path, err)
	}
	p.Airport.IATA = strings.ToUpper(p.Airport.IATA)
	p.Airport.ICAO = strings.ToUpper(p.Airport.ICAO)
	return nil
}

// Validate rejects values the service cannot run with
func (c *Config) Validate() error {
	if !isProvider(c.Provider) {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}
	if c.FetchPageSize <= 0 {
		return fmt.Errorf("FETCH_PAGE_SIZE must be positive, got %d", c.FetchPageSize)
	}
	if c.FetchRatePerSecond <= 0 {
		return fmt.Errorf("FETCH_RATE_PER_SECOND must be positive, got %v", c.FetchRatePerSecond)
	}
	if c.CollectInterval <= 0 {
		return fmt.Errorf("COLLECT_INTERVAL must be positive")
	}
	return c.Pipeline.Validate()
}

// Validate checks the pipeline policy and normalizes enum values
func (p *PipelineConfig) Validate() error {
	if len(p.Airport.Codes()) == 0 {
		return errors.New("AIRPORT_IATA or AIRPORT_ICAO is required")
	}
	if err := p.Window.Validate(); err != nil {
		return err
	}
	strategy, err := codeshare.ParseStrategy(string(p.Dedup))
	if err != nil {
		return err
	}
	p.Dedup = strategy
	policy, err := entity.ParseWritePolicy(string(p.WritePolicy))
	if err != nil {
		return err
	}
	p.WritePolicy = policy
	if p.Airport.Timezone != "" {
		if _, err := time.LoadLocation(p.Airport.Timezone); err != nil {
			return fmt.Errorf("invalid airport timezone %q: %w", p.Airport.Timezone, err)
		}
	}
	return nil
}

func isProvider(name string) bool {
	for _, p := range Providers {
		if p == name {
			return true
		}
	}
	return false
}

// Helper functions to get environment variables
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
