// Package config assembles runtime configuration from, in increasing
// precedence: built-in defaults, an optional CUE (or JSON) file, and
// SANTA_* environment variables. Command line flags are applied on top by
// the cli package.
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/roach88/secretsanta/internal/derange"
	"github.com/roach88/secretsanta/internal/dispatch"
	"github.com/roach88/secretsanta/internal/participant"
)

// Config is the process-wide configuration.
type Config struct {
	// AdminID is the single administrator identity.
	AdminID participant.Identity `env:"SANTA_ADMIN_ID"`

	// StorePath is the registry document. Its extension picks the backend.
	StorePath string `env:"SANTA_STORE"`

	// OutboxDir holds per-participant inboxes for the outbox messenger.
	OutboxDir string `env:"SANTA_OUTBOX"`

	DeliveryTimeout     time.Duration `env:"SANTA_DELIVERY_TIMEOUT"`
	DeliveryConcurrency int           `env:"SANTA_DELIVERY_CONCURRENCY"`
	MaxShuffleAttempts  int           `env:"SANTA_MAX_SHUFFLE_ATTEMPTS"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		StorePath:           "participants.json",
		OutboxDir:           "outbox",
		DeliveryTimeout:     dispatch.DefaultTimeout,
		DeliveryConcurrency: dispatch.DefaultConcurrency,
		MaxShuffleAttempts:  derange.DefaultMaxAttempts,
	}
}

// Load builds the configuration from defaults, the file at path (skipped
// when path is empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if err := applyFile(&cfg, path); err != nil {
			return Config{}, err
		}
	}

	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseEnv overlays SANTA_* environment variables onto target. Unset
// variables leave fields untouched.
func ParseEnv(target *Config) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Validate rejects configurations the service cannot run with.
func (c Config) Validate() error {
	if c.StorePath == "" {
		return fmt.Errorf("config: store path is empty")
	}
	if c.DeliveryTimeout <= 0 {
		return fmt.Errorf("config: delivery timeout must be positive, got %s", c.DeliveryTimeout)
	}
	if c.DeliveryConcurrency < 1 {
		return fmt.Errorf("config: delivery concurrency must be at least 1, got %d", c.DeliveryConcurrency)
	}
	if c.MaxShuffleAttempts < 0 {
		return fmt.Errorf("config: max shuffle attempts must not be negative, got %d", c.MaxShuffleAttempts)
	}
	return nil
}
