package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is prepended to every environment variable, e.g. EMBALSE_SERVER_PORT.
const EnvPrefix = "EMBALSE"

// Config holds the service configuration.
type Config struct {
	Server  ServerConfig  `envconfig:"SERVER"`
	Upload  UploadConfig  `envconfig:"UPLOAD"`
	Logging LoggingConfig `envconfig:"LOGGING"`
	Metrics MetricsConfig `envconfig:"METRICS"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"HOST" default:""`
	Port            int           `envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"READ_TIMEOUT" default:"30s"`
	WriteTimeout    time.Duration `envconfig:"WRITE_TIMEOUT" default:"60s"`
	IdleTimeout     time.Duration `envconfig:"IDLE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// UploadConfig bounds what a single request may send.
type UploadConfig struct {
	MaxBytes  int64   `envconfig:"MAX_BYTES" default:"33554432"`
	RateLimit float64 `envconfig:"RATE_LIMIT" default:"5"`
	Burst     int     `envconfig:"BURST" default:"10"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `envconfig:"LEVEL" default:"info"`
	Format string `envconfig:"FORMAT" default:"console"`
	Output string `envconfig:"OUTPUT" default:"stdout"`
}

// MetricsConfig controls the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `envconfig:"ENABLED" default:"true"`
	Path    string `envconfig:"HTTP_PATH" default:"/metrics"`
}

// Load reads an optional .env file, then the EMBALSE_* environment, and validates the result.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, name := range envFiles {
		// godotenv never overrides variables that are already set.
		if err := godotenv.Load(name); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", name, err)
		}
	}

	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values the server cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return errors.New("server read and write timeouts must be positive")
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("server shutdown timeout must be positive")
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("invalid upload limit %d", c.Upload.MaxBytes)
	}
	if c.Upload.RateLimit < 0 || c.Upload.Burst < 0 {
		return errors.New("upload rate limit and burst must not be negative")
	}

	switch strings.ToLower(c.Logging.Format) {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format %q (want json or console)", c.Logging.Format)
	}
	if c.Logging.Output == "" {
		return errors.New("log output must not be empty")
	}

	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		return fmt.Errorf("metrics path %q must start with /", c.Metrics.Path)
	}
	return nil
}
