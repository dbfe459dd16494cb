// Package config handles application configuration from environment variables
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/briangreenhill/blogfront/metrics"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

// Config holds all application configuration
type Config struct {
	API       APIConfig
	Cache     CacheConfig
	Telemetry TelemetryConfig

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`
}

// APIConfig configures the entries API client
type APIConfig struct {
	BaseURL       string        `env:"BLOG_API_BASE_URL" envDefault:"http://localhost:8080/api"`
	AccessToken   string        `env:"BLOG_ACCESS_TOKEN"`
	Timeout       time.Duration `env:"BLOG_HTTP_TIMEOUT" envDefault:"20s"`
	HTTPCache     bool          `env:"BLOG_HTTP_CACHE" envDefault:"false"`
	MaxConcurrent int           `env:"BLOG_MAX_CONCURRENT" envDefault:"3"`
}

// CacheConfig configures the entries cache and list fetching
type CacheConfig struct {
	TTL              time.Duration `env:"BLOG_CACHE_TTL" envDefault:"5m"`
	Size             int           `env:"BLOG_CACHE_SIZE" envDefault:"50"`
	PageSize         int           `env:"BLOG_PAGE_SIZE" envDefault:"10"`
	PreloadDelay     time.Duration `env:"BLOG_PRELOAD_DELAY" envDefault:"100ms"`
	CollapseByParams bool          `env:"BLOG_COLLAPSE_BY_PARAMS" envDefault:"false"`
}

// TelemetryConfig configures metric collection and export
type TelemetryConfig struct {
	History        int           `env:"BLOG_METRICS_HISTORY" envDefault:"100"`
	SlowRequest    time.Duration `env:"BLOG_SLOW_REQUEST" envDefault:"1s"`
	MemoryInterval time.Duration `env:"BLOG_MEMORY_INTERVAL" envDefault:"30s"`
	Sinks          []string      `env:"TELEMETRY_SINKS" envSeparator:"," envDefault:"log"`
	MetricsAddr    string        `env:"METRICS_ADDR" envDefault:":9090"`
}

// Load reads configuration from environment variables. Variables from the
// given dotenv files (".env" if none) are added first without overriding the
// real environment; missing files are ignored.
func Load(files ...string) (*Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return &cfg, nil
}

// Validate checks ranges and names that the parser cannot
func (c *Config) Validate() error {
	var errs []error

	u, err := url.Parse(c.API.BaseURL)
	if err != nil || !u.IsAbs() {
		errs = append(errs, fmt.Errorf("BLOG_API_BASE_URL must be an absolute URL, got %q", c.API.BaseURL))
	}

	positive := []struct {
		name  string
		value int64
	}{
		{"BLOG_CACHE_TTL", int64(c.Cache.TTL)},
		{"BLOG_CACHE_SIZE", int64(c.Cache.Size)},
		{"BLOG_PAGE_SIZE", int64(c.Cache.PageSize)},
		{"BLOG_MAX_CONCURRENT", int64(c.API.MaxConcurrent)},
		{"BLOG_HTTP_TIMEOUT", int64(c.API.Timeout)},
		{"BLOG_METRICS_HISTORY", int64(c.Telemetry.History)},
		{"BLOG_SLOW_REQUEST", int64(c.Telemetry.SlowRequest)},
		{"BLOG_MEMORY_INTERVAL", int64(c.Telemetry.MemoryInterval)},
	}
	for _, p := range positive {
		if p.value <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", p.name))
		}
	}
	if c.Cache.PreloadDelay < 0 {
		errs = append(errs, errors.New("BLOG_PRELOAD_DELAY must not be negative"))
	}

	sinks := metrics.DefaultRegistry()
	for _, name := range c.Telemetry.Sinks {
		if !sinks.Has(name) {
			errs = append(errs, fmt.Errorf("TELEMETRY_SINKS: unknown sink %q (available: %v)", name, sinks.Names()))
		}
	}

	if _, err := c.Level(); err != nil {
		errs = append(errs, fmt.Errorf("LOG_LEVEL: %w", err))
	}
	if c.LogFormat != "json" && c.LogFormat != "console" {
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.LogFormat))
	}
	return errors.Join(errs...)
}

// Level returns the parsed LOG_LEVEL
func (c *Config) Level() (zerolog.Level, error) {
	return zerolog.ParseLevel(c.LogLevel)
}

// HasToken returns true if mutating calls should carry a bearer token
func (c *Config) HasToken() bool {
	return c.API.AccessToken != ""
}
