// Package config defines service configuration and how it is loaded.
//
// Values are layered: defaults from New, then an optional YAML file named by
// STRIKEBOARD_CONFIG, then STRIKEBOARD_* environment variables.
package config

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/okian/strikeboard/internal/domain/game"
	"github.com/okian/strikeboard/internal/domain/handicap"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
)

// Notifier backends.
const (
	NotifierMemory = "memory"
	NotifierRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory submission queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of scoring workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets how many submission ids are remembered.
	DedupeSize int `koanf:"dedupe_size"`

	// Store selects the score store: memory or postgres.
	Store       string `koanf:"store"`
	DatabaseURL string `koanf:"database_url"`

	// Notifier selects the change-notification backend: memory or redis.
	Notifier     string `koanf:"notifier"`
	RedisAddr    string `koanf:"redis_addr"`
	RedisChannel string `koanf:"redis_channel"`

	// SeedFile is a roster YAML loaded into the store at startup.
	SeedFile string `koanf:"seed_file"`

	HandicapBaseScore float64 `koanf:"handicap_base_score"`
	HandicapPercent   float64 `koanf:"handicap_percent"`

	// AggregationMetric folds a member's games: TEAM_TOTAL, AVG_OF_GAMES or BEST_GAME.
	AggregationMetric string `koanf:"aggregation_metric"`

	CORSAllowedOrigins []string `koanf:"cors_allowed_origins"`

	// Viewer settings, used by cmd/viewer.
	ViewerServerURL        string `koanf:"viewer_server_url"`
	ViewerTournamentID     string `koanf:"viewer_tournament_id"`
	ViewerPollIntervalMS   int    `koanf:"viewer_poll_interval_ms"`
	ViewerReconnectDelayMS int    `koanf:"viewer_reconnect_delay_ms"`
}

// New returns a Config holding the defaults.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:               "info",
		Addr:                   ":9080",
		QueueSize:              10_000,
		WorkerCount:            runtime.NumCPU(),
		DedupeSize:             50_000,
		Store:                  StoreMemory,
		Notifier:               NotifierMemory,
		RedisAddr:              "localhost:6379",
		RedisChannel:           "strikeboard:notifications",
		HandicapBaseScore:      200,
		HandicapPercent:        80,
		AggregationMetric:      string(game.TeamTotal),
		CORSAllowedOrigins:     []string{"*"},
		ViewerServerURL:        "http://localhost:9080",
		ViewerPollIntervalMS:   3000,
		ViewerReconnectDelayMS: 2000,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.WorkerCount <= 0:
		return fmt.Errorf("%w: worker_count must be positive", ErrInvalidConfig)
	case c.Store != StoreMemory && c.Store != StorePostgres:
		return fmt.Errorf("%w: unknown store %q", ErrInvalidConfig, c.Store)
	case c.Store == StorePostgres && c.DatabaseURL == "":
		return fmt.Errorf("%w: database_url is required for the postgres store", ErrInvalidConfig)
	case c.Notifier != NotifierMemory && c.Notifier != NotifierRedis:
		return fmt.Errorf("%w: unknown notifier %q", ErrInvalidConfig, c.Notifier)
	case c.Notifier == NotifierRedis && c.RedisAddr == "":
		return fmt.Errorf("%w: redis_addr is required for the redis notifier", ErrInvalidConfig)
	case c.HandicapPercent < 0:
		return fmt.Errorf("%w: handicap_percent must not be negative", ErrInvalidConfig)
	case c.ViewerPollIntervalMS <= 0:
		return fmt.Errorf("%w: viewer_poll_interval_ms must be positive", ErrInvalidConfig)
	}
	if _, err := game.ParseMetric(c.AggregationMetric); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Metric returns the parsed aggregation metric. Call after Validate.
func (c *Config) Metric() game.Metric {
	m, err := game.ParseMetric(c.AggregationMetric)
	if err != nil {
		return game.TeamTotal
	}
	return m
}

// Handicap returns the handicap formula settings.
func (c *Config) Handicap() handicap.Config {
	return handicap.Config{BaseScore: c.HandicapBaseScore, Percent: c.HandicapPercent}
}

// PollInterval is the viewer's degraded-mode pull period.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.ViewerPollIntervalMS) * time.Millisecond
}

// ReconnectDelay is the viewer's pause between redials.
func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.ViewerReconnectDelayMS) * time.Millisecond
}
