package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ValidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "salesdash.yaml")
	content := `
host: 127.0.0.1
port: 9090
data_path: data/supermarket_sales.xlsx
csv_encoding: gb18030
max_upload_size: 4M
rate_limit: 2
log_level: debug
log_format: text
shutdown_timeout: 3s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9090", cfg.Address())
	assert.Equal(t, "data/supermarket_sales.xlsx", cfg.DataPath)
	assert.Equal(t, "gb18030", cfg.CSVEncoding)
	assert.Equal(t, "4M", cfg.MaxUploadSize)
	assert.InDelta(t, 2.0, cfg.RateLimit, 1e-9)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	require.NoError(t, cfg.Validate())
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:8080", cfg.Address())
	assert.Empty(t, cfg.DataPath)
	assert.Equal(t, defaultShutdownTimeout, cfg.ShutdownTimeout)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "salesdash.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: [not a port\n"), 0o600))

	_, err := Load(path)

	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SALESDASH_PORT", "7000")
	t.Setenv("SALESDASH_DATA_PATH", "/srv/sales.csv")
	t.Setenv("SALESDASH_RATE_LIMIT", "0.5")
	t.Setenv("SALESDASH_SHUTDOWN_TIMEOUT", "not-a-duration")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))

	require.NoError(t, err)
	assert.Equal(t, 7000, cfg.Port)
	assert.Equal(t, "/srv/sales.csv", cfg.DataPath)
	assert.InDelta(t, 0.5, cfg.RateLimit, 1e-9)
	assert.Equal(t, defaultShutdownTimeout, cfg.ShutdownTimeout)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(c *Config)
		wantErr error
	}{
		{"port zero", func(c *Config) { c.Port = 0 }, ErrInvalidPort},
		{"port too large", func(c *Config) { c.Port = 70000 }, ErrInvalidPort},
		{"empty host", func(c *Config) { c.Host = "" }, ErrEmptyHost},
		{"zero rate", func(c *Config) { c.RateLimit = 0 }, ErrInvalidRateLimit},
		{"zero shutdown", func(c *Config) { c.ShutdownTimeout = 0 }, ErrInvalidShutdownTimeout},
		{"bad log format", func(c *Config) { c.LogFormat = "xml" }, ErrInvalidLogFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaults()
			tt.modify(cfg)
			assert.ErrorIs(t, cfg.Validate(), tt.wantErr)
		})
	}
}
