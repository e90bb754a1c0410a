// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New(ctx) to build a Config with defaults.
// - Functions accept context.Context as the first parameter.
// - Validation failures wrap ErrInvalidConfig; read failures wrap ErrLoadConfig.
package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// RequestTimeout bounds every HTTP request except the event stream.
	RequestTimeout time.Duration `koanf:"request_timeout"`

	// DatabaseURL selects the PostgreSQL store. Empty keeps everything in memory.
	DatabaseURL string `koanf:"database_url"`

	// TotalSlots is the roster size of every team.
	TotalSlots int `koanf:"total_slots"`

	// DefaultBudget is the budget given to new teams and restored on reset.
	DefaultBudget int `koanf:"default_budget"`

	// BrokerBuffer bounds the per-subscriber event queue.
	BrokerBuffer int `koanf:"broker_buffer"`

	// EventLogSize bounds the catch-up history kept for reconnecting clients.
	EventLogSize int `koanf:"event_log_size"`

	// DedupeSize bounds the event ids each stream remembers.
	DedupeSize int `koanf:"dedupe_size"`

	// RecalcBatchSize and RecalcWorkers shape the recalculation pool. Zero workers uses
	// one per CPU.
	RecalcBatchSize int `koanf:"recalc_batch_size"`
	RecalcWorkers   int `koanf:"recalc_workers"`

	// RecalcSchedule is a cron spec for the full recalculation sweep. Empty disables it.
	RecalcSchedule string `koanf:"recalc_schedule"`

	// PlayersFile is a YAML player pool loaded on start.
	PlayersFile string `koanf:"players_file"`

	// BootstrapAdmin is granted admin rights when no admin exists.
	BootstrapAdmin string `koanf:"bootstrap_admin"`
}

// New creates a Config with defaults. The context is reserved for loaders that need it.
func New(_ context.Context) *Config {
	return &Config{
		LogLevel:        "info",
		Addr:            ":8080",
		RequestTimeout:  15 * time.Second,
		TotalSlots:      6,
		DefaultBudget:   200,
		BrokerBuffer:    256,
		EventLogSize:    4096,
		DedupeSize:      1024,
		RecalcBatchSize: 50,
		RecalcWorkers:   4,
		RecalcSchedule:  "@every 10m",
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case c.RequestTimeout <= 0:
		return fmt.Errorf("%w: request_timeout must be positive", ErrInvalidConfig)
	case c.TotalSlots < 1:
		return fmt.Errorf("%w: total_slots must be at least 1", ErrInvalidConfig)
	case c.DefaultBudget < 0:
		return fmt.Errorf("%w: default_budget must not be negative", ErrInvalidConfig)
	case c.BrokerBuffer < 1:
		return fmt.Errorf("%w: broker_buffer must be at least 1", ErrInvalidConfig)
	case c.EventLogSize < 0:
		return fmt.Errorf("%w: event_log_size must not be negative", ErrInvalidConfig)
	case c.DedupeSize < 1:
		return fmt.Errorf("%w: dedupe_size must be at least 1", ErrInvalidConfig)
	case c.RecalcBatchSize < 1:
		return fmt.Errorf("%w: recalc_batch_size must be at least 1", ErrInvalidConfig)
	case c.RecalcWorkers < 0:
		return fmt.Errorf("%w: recalc_workers must not be negative", ErrInvalidConfig)
	}
	if c.RecalcSchedule != "" {
		parser := cron.NewParser(cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
		if _, err := parser.Parse(c.RecalcSchedule); err != nil {
			return fmt.Errorf("%w: recalc_schedule: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}
