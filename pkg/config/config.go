// Package config pkg/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env/v10"
)

var (
	errInvalidDuration = errors.New("invalid duration")

	errInvalidPort     = errors.New("invalid port")
	errEmptyStaticDir  = errors.New("static dir must not be empty")
	errInvalidLogLevel = errors.New("invalid log level")
	errInvalidInterval = errors.New("tick interval must be positive")
	errInvalidHistory  = errors.New("history size must be positive")
	errNegativeLimit   = errors.New("concurrency and rate limits must not be negative")
)

// Config holds the process-level settings of the control panel server.
// Values come from envDefault tags, then the environment, then an optional
// JSON file, then explicit CLI arguments, each layer overriding the last.
type Config struct {
	Port            int      `json:"port" env:"CYBERASIO_PORT" envDefault:"7788"`
	StaticDir       string   `json:"static_dir" env:"CYBERASIO_STATIC_DIR" envDefault:"static"`
	DBPath          string   `json:"db_path" env:"CYBERASIO_DB_PATH"`
	LogLevel        string   `json:"log_level" env:"CYBERASIO_LOG_LEVEL" envDefault:"info"`
	TickInterval    Duration `json:"tick_interval" env:"CYBERASIO_TICK_INTERVAL" envDefault:"50ms"`
	HistorySize     int      `json:"history_size" env:"CYBERASIO_HISTORY_SIZE" envDefault:"1200"`
	MaxConcurrent   int      `json:"max_concurrent" env:"CYBERASIO_MAX_CONCURRENT" envDefault:"0"`
	RateLimit       float64  `json:"rate_limit" env:"CYBERASIO_RATE_LIMIT" envDefault:"0"`
	ShutdownTimeout Duration `json:"shutdown_timeout" env:"CYBERASIO_SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// Load builds a Config from tag defaults and the environment.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	return cfg, nil
}

// ListenAddr returns the address the web server binds to.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validator interface for configurations that need validation.
type Validator interface {
	Validate() error
}

// Validate implements Validator.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("%w: %d", errInvalidPort, c.Port)
	}

	if c.StaticDir == "" {
		return errEmptyStaticDir
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: %q", errInvalidLogLevel, c.LogLevel)
	}

	if c.TickInterval <= 0 {
		return errInvalidInterval
	}

	if c.HistorySize <= 0 {
		return errInvalidHistory
	}

	if c.MaxConcurrent < 0 || c.RateLimit < 0 {
		return errNegativeLimit
	}

	return nil
}

// LoadFile is a generic helper that loads a JSON file from path into
// the struct pointed to by dst.
func LoadFile(path string, dst interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file '%s': %w", path, err)
	}

	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("failed to unmarshal JSON from '%s': %w", path, err)
	}

	return nil
}

// ValidateConfig validates a configuration if it implements Validator.
func ValidateConfig(cfg interface{}) error {
	if v, ok := cfg.(Validator); ok {
		return v.Validate()
	}

	return nil
}

// LoadAndValidate loads a configuration file and validates it if possible.
func LoadAndValidate(path string, cfg interface{}) error {
	if err := LoadFile(path, cfg); err != nil {
		return err
	}

	return ValidateConfig(cfg)
}
