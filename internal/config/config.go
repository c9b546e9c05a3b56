// Package config loads the engine configuration from an optional YAML file
// with environment variable overrides. Every field has a usable default, so
// running with no config at all works.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all tunables for the statistics engine and CLI.
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Years    YearsConfig    `yaml:"years"`
	Worker   WorkerConfig   `yaml:"worker"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// DatabaseConfig locates and tunes the SQLite source. Source may be a local
// path, ":memory:", or an HTTP(S) URL to a raw, gzipped, or zstd-compressed
// database file.
type DatabaseConfig struct {
	Source       string        `yaml:"source" env:"CRICATLAS_DB" env-default:"cricket.db"`
	CacheDir     string        `yaml:"cache_dir" env:"CRICATLAS_CACHE_DIR" env-default:""`
	FetchTimeout time.Duration `yaml:"fetch_timeout" env:"CRICATLAS_FETCH_TIMEOUT" env-default:"60s"`
}

// YearsConfig bounds every year-range filter. Requests outside the bounds
// are clamped, never rejected.
type YearsConfig struct {
	Min int `yaml:"min" env:"CRICATLAS_YEAR_MIN" env-default:"2000"`
	Max int `yaml:"max" env:"CRICATLAS_YEAR_MAX" env-default:"2025"`
}

// WorkerConfig tunes the background computation path.
type WorkerConfig struct {
	Timeout  time.Duration `yaml:"timeout" env:"CRICATLAS_WORKER_TIMEOUT" env-default:"30s"`
	Debounce time.Duration `yaml:"debounce" env:"CRICATLAS_DEBOUNCE" env-default:"250ms"`
}

// LoggingConfig selects log verbosity and encoding.
type LoggingConfig struct {
	Level  string `yaml:"level" env:"CRICATLAS_LOG_LEVEL" env-default:"info"`
	Format string `yaml:"format" env:"CRICATLAS_LOG_FORMAT" env-default:"console"`
}

// Load reads path (when it exists) and applies environment overrides. An
// empty path, or a missing default config file, falls back to environment
// variables and defaults alone.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := cleanenv.ReadConfig(path, cfg); err != nil {
				return nil, fmt.Errorf("read config %s: %w", path, err)
			}
			return cfg, cfg.validate()
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("stat config %s: %w", path, err)
		}
	}
	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read config from environment: %w", err)
	}
	return cfg, cfg.validate()
}

func (c *Config) validate() error {
	if c.Database.Source == "" {
		return fmt.Errorf("database.source must not be empty")
	}
	if c.Years.Min > c.Years.Max {
		c.Years.Min, c.Years.Max = c.Years.Max, c.Years.Min
	}
	return nil
}
