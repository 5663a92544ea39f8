package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7788, cfg.Port)
	assert.Equal(t, "static", cfg.StaticDir)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, Duration(50*time.Millisecond), cfg.TickInterval)
	assert.Equal(t, 1200, cfg.HistorySize)
	assert.Equal(t, 0, cfg.MaxConcurrent)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, ":7788", cfg.ListenAddr())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("CYBERASIO_PORT", "9000")
	t.Setenv("CYBERASIO_STATIC_DIR", "/srv/panel")
	t.Setenv("CYBERASIO_TICK_INTERVAL", "100ms")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, "/srv/panel", cfg.StaticDir)
	assert.Equal(t, Duration(100*time.Millisecond), cfg.TickInterval)
}

func TestLoadFileOverrides(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "cyberasio.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"port": 8081,
		"static_dir": "web",
		"tick_interval": "25ms",
		"shutdown_timeout": 5000000000
	}`), 0o600))

	require.NoError(t, LoadAndValidate(path, cfg))

	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, "web", cfg.StaticDir)
	assert.Equal(t, Duration(25*time.Millisecond), cfg.TickInterval)
	assert.Equal(t, Duration(5*time.Second), cfg.ShutdownTimeout)
}

func TestLoadFileMissing(t *testing.T) {
	cfg := &Config{}
	err := LoadFile(filepath.Join(t.TempDir(), "missing.json"), cfg)
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Load()
		require.NoError(t, err)

		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(*Config) {}, false},
		{"port zero", func(c *Config) { c.Port = 0 }, true},
		{"port too high", func(c *Config) { c.Port = 70000 }, true},
		{"empty static dir", func(c *Config) { c.StaticDir = "" }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, true},
		{"zero tick interval", func(c *Config) { c.TickInterval = 0 }, true},
		{"zero history", func(c *Config) { c.HistorySize = 0 }, true},
		{"negative rate limit", func(c *Config) { c.RateLimit = -1 }, true},
		{"bounded concurrency allowed", func(c *Config) { c.MaxConcurrent = 64 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDurationUnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    time.Duration
		wantErr bool
	}{
		{"string form", `"30s"`, 30 * time.Second, false},
		{"numeric nanoseconds", `50000000`, 50 * time.Millisecond, false},
		{"bad string", `"soon"`, 0, true},
		{"bad type", `true`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var d Duration
			err := json.Unmarshal([]byte(tt.input), &d)

			if tt.wantErr {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, time.Duration(d))
		})
	}
}

func TestDurationMarshalJSON(t *testing.T) {
	out, err := json.Marshal(Duration(50 * time.Millisecond))
	require.NoError(t, err)
	assert.Equal(t, `"50ms"`, string(out))
}
