package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Config carries everything the chargers service needs. The provider settings
// are injected into the sync client explicitly; nothing reads the environment
// after startup.
type Config struct {
	Environment     string
	LogLevel        zerolog.Level
	HTTPTimeout     time.Duration
	ProviderBaseURL string
	ProviderAPIKey  string
	ChargersTable   string
	SnapshotBucket  string
	SearchRadiusKm  float64

	// Provider response cache settings.
	ProviderCacheSize int
	ProviderCacheTTL  time.Duration
}

const (
	defaultProviderBaseURL   = "https://api.api-ninjas.com/v1/evchargers"
	defaultChargersTable     = "chargers"
	defaultSearchRadiusKm    = 25.0
	defaultProviderCacheSize = 256
	defaultProviderCacheTTL  = 5 * time.Minute
)

type Option func(*Config)

// WithEnvironment allows setting the environment
func WithEnvironment(env string) Option {
	return func(c *Config) {
		c.Environment = env
	}
}

// WithLogLevel allows setting the log level
func WithLogLevel(level string) Option {
	return func(c *Config) {
		parsedLevel, err := zerolog.ParseLevel(level)
		if err != nil {
			parsedLevel = zerolog.InfoLevel
		}
		c.LogLevel = parsedLevel
	}
}

// WithHTTPTimeout allows setting the HTTP timeout
func WithHTTPTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.HTTPTimeout = timeout
	}
}

// WithProvider allows setting the external directory endpoint and API key
func WithProvider(baseURL, apiKey string) Option {
	return func(c *Config) {
		if baseURL != "" {
			c.ProviderBaseURL = baseURL
		}
		c.ProviderAPIKey = apiKey
	}
}

// New creates a new configuration with default values
func New(opts ...Option) *Config {
	cfg := &Config{
		Environment:       "production",
		LogLevel:          zerolog.InfoLevel,
		HTTPTimeout:       10 * time.Second,
		ProviderBaseURL:   defaultProviderBaseURL,
		ChargersTable:     defaultChargersTable,
		SearchRadiusKm:    defaultSearchRadiusKm,
		ProviderCacheSize: defaultProviderCacheSize,
		ProviderCacheTTL:  defaultProviderCacheTTL,
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}

	return cfg
}

// InitializeLogging sets up logging based on the configuration
func (c *Config) InitializeLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(c.LogLevel)

	// Setup console logger for development environments
	if c.Environment == "local" || c.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	cfg := New(
		WithEnvironment(getEnvOrDefault("ENV", "production")),
		WithLogLevel(getEnvOrDefault("LOG_LEVEL", "info")),
		WithHTTPTimeout(getDurationEnvOrDefault("HTTP_TIMEOUT", 10*time.Second)),
		WithProvider(os.Getenv("PROVIDER_BASE_URL"), os.Getenv("PROVIDER_API_KEY")),
	)
	cfg.ChargersTable = getEnvOrDefault("CHARGERS_TABLE", defaultChargersTable)
	cfg.SnapshotBucket = os.Getenv("SNAPSHOT_BUCKET")
	cfg.SearchRadiusKm = getFloatEnvOrDefault("SEARCH_RADIUS_KM", defaultSearchRadiusKm)
	cfg.ProviderCacheSize = getIntEnvOrDefault("PROVIDER_CACHE_SIZE", defaultProviderCacheSize)
	cfg.ProviderCacheTTL = getDurationEnvOrDefault("PROVIDER_CACHE_TTL", defaultProviderCacheTTL)
	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnvOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getIntEnvOrDefault(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		log.Warn().Str("key", key).Msg("Invalid integer value in environment variable, using default")
	}
	return defaultValue
}

func getFloatEnvOrDefault(key string, defaultValue float64) float64 {
	if value, exists := os.LookupEnv(key); exists {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
		log.Warn().Str("key", key).Msg("Invalid float value in environment variable, using default")
	}
	return defaultValue
}
