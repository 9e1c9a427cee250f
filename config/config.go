// Package config loads the journal-sync service configuration from YAML.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration is a time.Duration that unmarshals from YAML strings like "30s"
// or "500ms" in addition to plain nanosecond integers.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw interface{}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("parse duration %q: %w", v, err)
		}
		*d = Duration(parsed)
	case int:
		*d = Duration(v)
	default:
		return fmt.Errorf("cannot parse %v as duration", raw)
	}
	return nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the top-level service configuration.
type Config struct {
	Adapter AdapterConfig `yaml:"adapter"`
	Store   StoreConfig   `yaml:"store"`
	Sync    SyncConfig    `yaml:"sync"`
	Logging LoggingConfig `yaml:"logging"`
}

// AdapterConfig configures the connection to the external platform.
type AdapterConfig struct {
	BaseURL   string   `yaml:"base_url"`
	AuthToken string   `yaml:"auth_token"`
	Timeout   Duration `yaml:"timeout"`
}

// StoreConfig configures the entity store.
type StoreConfig struct {
	// Driver selects the store implementation: "sqlite" or "memory".
	Driver string `yaml:"driver"`

	// DataSourceName is the SQLite connection string (sqlite driver only).
	DataSourceName string `yaml:"dsn"`
}

// SyncConfig configures the engine and queue.
type SyncConfig struct {
	ConflictStrategy string   `yaml:"conflict_strategy"`
	PollInterval     Duration `yaml:"poll_interval"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Adapter: AdapterConfig{
			Timeout: Duration(30 * time.Second),
		},
		Store: StoreConfig{
			Driver:         "sqlite",
			DataSourceName: "journal-sync.db",
		},
		Sync: SyncConfig{
			ConflictStrategy: "latest_wins",
			PollInterval:     Duration(500 * time.Millisecond),
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load reads and validates a YAML config file, applying defaults for any
// omitted fields.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	if c.Adapter.BaseURL == "" {
		return fmt.Errorf("adapter.base_url is required")
	}
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.DataSourceName == "" {
			return fmt.Errorf("store.dsn is required for the sqlite driver")
		}
	case "memory":
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Sync.ConflictStrategy == "" {
		return fmt.Errorf("sync.conflict_strategy is required")
	}
	if c.Adapter.Timeout < 0 || c.Sync.PollInterval < 0 {
		return fmt.Errorf("timeouts must not be negative")
	}
	return nil
}
