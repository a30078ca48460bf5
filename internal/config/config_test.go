package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.False(t, cfg.Bus.Isolate)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.False(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9090, cfg.Metrics.Port)
	assert.Equal(t, 30*time.Second, cfg.Metrics.Timeout.Std())
	require.NoError(t, cfg.Validate())
}

func TestLoad_NoFile(t *testing.T) {
	cfg, err := LoadEnviron("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	cfg, err = LoadEnviron(filepath.Join(t.TempDir(), "missing.toml"), nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_TOML(t *testing.T) {
	path := writeFile(t, "config.toml", `
[bus]
isolate = true
legacy_notice_once = true

[log]
level = "debug"
development = true

[metrics]
enabled = true
port = 9191
timeout = "5s"

[script]
paths = ["a.lua", "b.lua"]
`)

	cfg, err := LoadEnviron(path, nil)
	require.NoError(t, err)

	assert.True(t, cfg.Bus.Isolate)
	assert.True(t, cfg.Bus.LegacyNoticeOnce)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.Development)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9191, cfg.Metrics.Port)
	assert.Equal(t, 5*time.Second, cfg.Metrics.Timeout.Std())
	assert.Equal(t, []string{"a.lua", "b.lua"}, cfg.Script.Paths)
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", `
bus:
  isolate: true
log:
  level: warn
metrics:
  timeout: 1m
`)

	cfg, err := LoadEnviron(path, nil)
	require.NoError(t, err)

	assert.True(t, cfg.Bus.Isolate)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, time.Minute, cfg.Metrics.Timeout.Std())
	assert.Equal(t, 9090, cfg.Metrics.Port, "unset keys keep their defaults")
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "config.toml", `
[log]
level = "debug"

[metrics]
port = 9191
`)

	cfg, err := LoadEnviron(path, map[string]string{
		"EVENTBUS_ISOLATE":         "true",
		"EVENTBUS_LOG_LEVEL":       "error",
		"EVENTBUS_METRICS_ENABLED": "true",
		"EVENTBUS_METRICS_TIMEOUT": "10s",
		"EVENTBUS_SCRIPT_PATHS":    "x.lua,y.lua",
	})
	require.NoError(t, err)

	assert.True(t, cfg.Bus.Isolate)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, 9191, cfg.Metrics.Port, "file value survives when env is unset")
	assert.Equal(t, 10*time.Second, cfg.Metrics.Timeout.Std())
	assert.Equal(t, []string{"x.lua", "y.lua"}, cfg.Script.Paths)
}

func TestLoad_ProcessEnvironment(t *testing.T) {
	t.Setenv("EVENTBUS_LEGACY_NOTICE_ONCE", "true")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Bus.LegacyNoticeOnce)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		environ map[string]string
		check   func(t *testing.T, err error)
	}{
		{
			name:    "unsupported extension",
			file:    "config.json",
			content: "{}",
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrUnsupportedFormat)
			},
		},
		{
			name:    "bad toml",
			file:    "config.toml",
			content: "[bus\nisolate = true\n",
			check: func(t *testing.T, err error) {
				var perr *ParseError
				require.ErrorAs(t, err, &perr)
				assert.Greater(t, perr.Line, 0)
			},
		},
		{
			name:    "bad yaml",
			file:    "config.yaml",
			content: "bus: [unclosed\n",
			check: func(t *testing.T, err error) {
				var perr *ParseError
				assert.ErrorAs(t, err, &perr)
			},
		},
		{
			name:    "bad duration",
			file:    "config.toml",
			content: "[metrics]\ntimeout = \"soon\"\n",
			check: func(t *testing.T, err error) {
				var perr *ParseError
				assert.ErrorAs(t, err, &perr)
			},
		},
		{
			name:    "bad level",
			file:    "config.toml",
			content: "[log]\nlevel = \"loud\"\n",
			check: func(t *testing.T, err error) {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, "log.level", verr.Field)
			},
		},
		{
			name:    "bad env value",
			file:    "config.toml",
			environ: map[string]string{"EVENTBUS_METRICS_PORT": "many"},
			check: func(t *testing.T, err error) {
				assert.ErrorContains(t, err, "reading environment")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			_, err := LoadEnviron(path, tt.environ)
			require.Error(t, err)
			tt.check(t, err)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		field   string
		wantErr bool
	}{
		{"defaults", func(*Config) {}, "", false},
		{"ephemeral port", func(c *Config) { c.Metrics.Port = 0 }, "", false},
		{"negative port", func(c *Config) { c.Metrics.Port = -1 }, "metrics.port", true},
		{"port too large", func(c *Config) { c.Metrics.Port = 70000 }, "metrics.port", true},
		{"zero timeout disabled", func(c *Config) { c.Metrics.Timeout = 0 }, "", false},
		{"zero timeout enabled", func(c *Config) {
			c.Metrics.Enabled = true
			c.Metrics.Timeout = 0
		}, "metrics.timeout", true},
		{"empty level", func(c *Config) { c.Log.Level = "" }, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestDuration_Text(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.Std())

	text, err := d.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "1m30s", string(text))

	assert.Error(t, d.UnmarshalText([]byte("ninety")))
}
