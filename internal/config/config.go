package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/cleared-dev/tally/internal/ledger"
	"github.com/cleared-dev/tally/internal/ordering"
)

// FileName is the config file written by `tally init`.
const FileName = "tally.yaml"

// Store drivers.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Config represents the top-level tally.yaml configuration.
type Config struct {
	Owner    OwnerConfig    `yaml:"owner"`
	Store    StoreConfig    `yaml:"store"`
	Ordering OrderingConfig `yaml:"ordering"`
	Ledger   LedgerConfig   `yaml:"ledger"`
	Log      LogConfig      `yaml:"log"`
}

// OwnerConfig identifies the user every row is scoped to.
type OwnerConfig struct {
	ID   string `yaml:"id"`
	Name string `yaml:"name"`
}

// StoreConfig selects the persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver"`         // sqlite or postgres
	Path   string `yaml:"path,omitempty"` // sqlite file, relative to the config
	DSN    string `yaml:"dsn,omitempty"`  // postgres connection string
}

// OrderingConfig controls sort-key spacing.
type OrderingConfig struct {
	Increment int64 `yaml:"increment"`
}

// LedgerConfig controls transaction limits and defaults.
type LedgerConfig struct {
	MaxAmount       int64  `yaml:"max_amount"` // minor units
	DefaultCurrency string `yaml:"default_currency"`
}

// LogConfig controls the zap logger.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json or console
}

// Load reads a tally.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Validate checks fields Load cannot express as YAML types.
func (c *Config) Validate() error {
	if c.Owner.ID == "" {
		return fmt.Errorf("owner.id is required")
	}
	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for sqlite")
		}
	case DriverPostgres:
		if c.Store.DSN == "" {
			return fmt.Errorf("store.dsn is required for postgres")
		}
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	if c.Ordering.Increment <= 0 {
		return fmt.Errorf("ordering.increment must be positive, got %d", c.Ordering.Increment)
	}
	if c.Ledger.MaxAmount <= 0 {
		return fmt.Errorf("ledger.max_amount must be positive, got %d", c.Ledger.MaxAmount)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new tracker.
func Default(ownerID, ownerName string) *Config {
	return &Config{
		Owner: OwnerConfig{
			ID:   ownerID,
			Name: ownerName,
		},
		Store: StoreConfig{
			Driver: DriverSQLite,
			Path:   "tally.db",
		},
		Ordering: OrderingConfig{
			Increment: ordering.DefaultIncrement,
		},
		Ledger: LedgerConfig{
			MaxAmount:       ledger.DefaultMaxAmount,
			DefaultCurrency: "USD",
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}
