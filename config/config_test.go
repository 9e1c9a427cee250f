package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
adapter:
  base_url: https://journal.example.com/api
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "https://journal.example.com/api", cfg.Adapter.BaseURL)
	assert.Equal(t, 30*time.Second, cfg.Adapter.Timeout.Std())
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "journal-sync.db", cfg.Store.DataSourceName)
	assert.Equal(t, "latest_wins", cfg.Sync.ConflictStrategy)
	assert.Equal(t, 500*time.Millisecond, cfg.Sync.PollInterval.Std())
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
adapter:
  base_url: https://journal.example.com/api
  auth_token: tok-123
  timeout: 10s
store:
  driver: memory
sync:
  conflict_strategy: manual
  poll_interval: 2s
logging:
  level: debug
  format: text
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "tok-123", cfg.Adapter.AuthToken)
	assert.Equal(t, 10*time.Second, cfg.Adapter.Timeout.Std())
	assert.Equal(t, "memory", cfg.Store.Driver)
	assert.Equal(t, "manual", cfg.Sync.ConflictStrategy)
	assert.Equal(t, 2*time.Second, cfg.Sync.PollInterval.Std())
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
}

func TestLoadBadDuration(t *testing.T) {
	path := writeConfig(t, `
adapter:
  base_url: https://journal.example.com/api
  timeout: soon
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse duration")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestLoadMalformedYAML(t *testing.T) {
	path := writeConfig(t, "adapter: [not a mapping")

	_, err := Load(path)
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing base url",
			mutate:  func(c *Config) { c.Adapter.BaseURL = "" },
			wantErr: "base_url",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Store.Driver = "postgres" },
			wantErr: "store driver",
		},
		{
			name:    "sqlite without dsn",
			mutate:  func(c *Config) { c.Store.DataSourceName = "" },
			wantErr: "dsn",
		},
		{
			name:    "missing strategy",
			mutate:  func(c *Config) { c.Sync.ConflictStrategy = "" },
			wantErr: "conflict_strategy",
		},
		{
			name:    "negative timeout",
			mutate:  func(c *Config) { c.Adapter.Timeout = Duration(-time.Second) },
			wantErr: "negative",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Adapter.BaseURL = "https://journal.example.com/api"
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
