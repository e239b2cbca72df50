// Package config loads application configuration from an optional YAML file
// overlaid with EQUITYLENS_* environment variables. Environment always wins;
// defaults fill whatever neither source sets.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	apperrors "equitylens/internal/errors"
	"equitylens/internal/report"
)

// envPrefix is the environment variable prefix, e.g. EQUITYLENS_SERVER_PORT.
const envPrefix = "EQUITYLENS"

// Config is the complete application configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server" envconfig:"SERVER"`
	Logging  LoggingConfig  `yaml:"logging" envconfig:"LOGGING"`
	Fetch    FetchConfig    `yaml:"fetch" envconfig:"FETCH"`
	Cache    CacheConfig    `yaml:"cache" envconfig:"CACHE"`
	Pipeline PipelineConfig `yaml:"pipeline" envconfig:"PIPELINE"`
	Output   OutputConfig   `yaml:"output" envconfig:"OUTPUT"`
}

// ServerConfig tunes the HTTP server.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT"`
	RateLimitRPS    float64       `yaml:"rate_limit_rps" envconfig:"RATE_LIMIT_RPS"`
	RateLimitBurst  int           `yaml:"rate_limit_burst" envconfig:"RATE_LIMIT_BURST"`
}

// LoggingConfig tunes structured logging.
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL"`
	Output   string `yaml:"output" envconfig:"OUTPUT"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// FetchConfig tunes the outbound data-provider boundary.
type FetchConfig struct {
	RequestsPerSecond float64       `yaml:"requests_per_second" envconfig:"REQUESTS_PER_SECOND"`
	Burst             int           `yaml:"burst" envconfig:"BURST"`
	MaxRetries        int           `yaml:"max_retries" envconfig:"MAX_RETRIES"`
	InitialBackoff    time.Duration `yaml:"initial_backoff" envconfig:"INITIAL_BACKOFF"`
	Timeout           time.Duration `yaml:"timeout" envconfig:"TIMEOUT"`
	UserAgent         string        `yaml:"user_agent" envconfig:"USER_AGENT"`
	BaseURL           string        `yaml:"base_url" envconfig:"BASE_URL"`
}

// CacheConfig tunes the raw-data cache.
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" envconfig:"ENABLED"`
	Dir     string `yaml:"dir" envconfig:"DIR"`
}

// PipelineConfig tunes the analysis runner.
type PipelineConfig struct {
	Workers           int    `yaml:"workers" envconfig:"WORKERS"`
	PriceLookbackDays int    `yaml:"price_lookback_days" envconfig:"PRICE_LOOKBACK_DAYS"`
	Locale            string `yaml:"locale" envconfig:"LOCALE"`
}

// OutputConfig tunes report and CSV persistence.
type OutputConfig struct {
	Dir string `yaml:"dir" envconfig:"DIR"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    60 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			RateLimitRPS:    100,
			RateLimitBurst:  50,
		},
		Logging: LoggingConfig{
			Level:    "info",
			Output:   "both",
			FilePath: "logs/equitylens.log",
		},
		Fetch: FetchConfig{
			RequestsPerSecond: 2,
			Burst:             4,
			MaxRetries:        3,
			InitialBackoff:    500 * time.Millisecond,
			Timeout:           15 * time.Second,
			UserAgent:         "equitylens/1.0",
		},
		Cache: CacheConfig{
			Enabled: true,
			Dir:     "data/cache",
		},
		Pipeline: PipelineConfig{
			Workers:           4,
			PriceLookbackDays: 730,
			Locale:            report.LocaleEN,
		},
		Output: OutputConfig{
			Dir: "reports",
		},
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// any; empty path probes config.yaml in the working directory), then
// environment variables.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat("config.yaml"); err == nil {
			path = "config.yaml"
		}
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("read config file %s", path), err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, apperrors.NewConfigError(fmt.Sprintf("parse config file %s", path), err)
		}
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, apperrors.NewConfigError("process environment", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the binaries cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return apperrors.NewConfigError(fmt.Sprintf("invalid server port %d", c.Server.Port), nil)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return apperrors.NewConfigError("server timeouts must be positive", nil)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return apperrors.NewConfigError(fmt.Sprintf("unknown log level %q", c.Logging.Level), nil)
	}
	switch c.Logging.Output {
	case "stdout", "file", "both":
	default:
		return apperrors.NewConfigError(fmt.Sprintf("unknown log output %q", c.Logging.Output), nil)
	}
	if c.Fetch.RequestsPerSecond <= 0 {
		return apperrors.NewConfigError("fetch rate limit must be positive", nil)
	}
	if c.Pipeline.Workers <= 0 {
		return apperrors.NewConfigError("pipeline workers must be positive", nil)
	}
	if c.Pipeline.Locale != report.LocaleEN {
		return apperrors.NewConfigError(fmt.Sprintf("unsupported locale %q", c.Pipeline.Locale), nil)
	}
	if c.Cache.Enabled && c.Cache.Dir == "" {
		return apperrors.NewConfigError("cache enabled but no cache dir set", nil)
	}
	return nil
}
