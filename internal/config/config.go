// Package config loads process configuration from the environment, an
// optional .env file and an optional YAML membership file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config controls the ledger process.
type Config struct {
	DBPath           string `env:"POINTECON_DB"                 envDefault:"pointecon.db"`
	HTTPAddr         string `env:"POINTECON_HTTP_ADDR"          envDefault:":8080"`
	LogLevel         string `env:"POINTECON_LOG_LEVEL"          envDefault:"info"`
	LogFormat        string `env:"POINTECON_LOG_FORMAT"         envDefault:"text"`
	BalanceCacheSize int    `env:"POINTECON_BALANCE_CACHE_SIZE" envDefault:"4096"`
	SeriesTZ         string `env:"POINTECON_SERIES_TZ"          envDefault:"UTC"`
	MembersFile      string `env:"POINTECON_MEMBERS_FILE"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads dotenvPath (when non-empty and present) into the environment
// without overriding variables already set, then parses Config.
func Load(dotenvPath string) (Config, error) {
	if dotenvPath != "" {
		if err := godotenv.Load(dotenvPath); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", dotenvPath, err)
		}
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated and parsed fields.
func (c Config) Validate() error {
	if _, err := c.Level(); err != nil {
		return err
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("invalid POINTECON_LOG_FORMAT %q: must be 'text' or 'json'", c.LogFormat)
	}
	if c.BalanceCacheSize < 0 {
		return fmt.Errorf("invalid POINTECON_BALANCE_CACHE_SIZE %d: must be >= 0", c.BalanceCacheSize)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid POINTECON_LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return level, nil
}

// Location returns the zone used to bucket the daily series.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.SeriesTZ)
	if err != nil {
		return nil, fmt.Errorf("invalid POINTECON_SERIES_TZ %q: %w", c.SeriesTZ, err)
	}
	return loc, nil
}
