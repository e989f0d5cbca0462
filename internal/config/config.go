package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all configuration for the voice client
type Config struct {
	// Backend API configuration
	BackendURL string `envconfig:"BACKEND_URL" default:"http://localhost:8000"` // Therapist backend origin
	Language   string `envconfig:"LANGUAGE" default:"arabic"`                   // arabic or english

	// Local observability server
	Port string `envconfig:"PORT" default:"9090"`

	// Audio capture configuration
	SampleRate   int `envconfig:"SAMPLE_RATE" default:"16000"` // Capture sample rate in Hz
	Channels     int `envconfig:"CHANNELS" default:"1"`        // Mono capture
	ChunkSeconds int `envconfig:"CHUNK_SECONDS" default:"1"`   // Cadence of the periodic chunk flush

	// Resilience configuration
	CircuitBreakerMaxFailures  int `envconfig:"CIRCUIT_BREAKER_MAX_FAILURES" default:"5"`   // Failures before opening circuit
	CircuitBreakerResetTimeout int `envconfig:"CIRCUIT_BREAKER_RESET_TIMEOUT" default:"30"` // Seconds before attempting recovery

	// Observability configuration
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`       // Log level: debug, info, warn, error
	LogPretty      bool   `envconfig:"LOG_PRETTY" default:"false"`     // Pretty print logs (for development)
	MetricsEnabled bool   `envconfig:"METRICS_ENABLED" default:"true"` // Enable Prometheus metrics
}

// Load reads configuration from environment variables
// It first attempts to load from .env file if it exists, then from environment
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	return LoadFromEnv()
}

// LoadFromEnv loads configuration directly from environment variables
// without attempting to load .env file (useful for containerized deployments)
func LoadFromEnv() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Language != "arabic" && c.Language != "english" {
		return fmt.Errorf("LANGUAGE must be arabic or english, got %q", c.Language)
	}
	if c.SampleRate <= 0 {
		return fmt.Errorf("SAMPLE_RATE must be positive, got %d", c.SampleRate)
	}
	if c.Channels <= 0 {
		return fmt.Errorf("CHANNELS must be positive, got %d", c.Channels)
	}
	if c.ChunkSeconds <= 0 {
		return fmt.Errorf("CHUNK_SECONDS must be positive, got %d", c.ChunkSeconds)
	}
	return nil
}
