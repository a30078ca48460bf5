package config

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "EVENTBUS_"

// Config is the complete process configuration.
type Config struct {
	Bus     BusConfig     `toml:"bus" yaml:"bus"`
	Log     LogConfig     `toml:"log" yaml:"log" envPrefix:"LOG_"`
	Metrics MetricsConfig `toml:"metrics" yaml:"metrics" envPrefix:"METRICS_"`
	Script  ScriptConfig  `toml:"script" yaml:"script" envPrefix:"SCRIPT_"`
}

// BusConfig configures the event bus.
type BusConfig struct {
	// Isolate runs every handler of an emission even when one fails.
	Isolate bool `toml:"isolate" yaml:"isolate" env:"ISOLATE"`

	// LegacyNoticeOnce logs the legacy deprecation notice once per method
	// instead of on every call.
	LegacyNoticeOnce bool `toml:"legacy_notice_once" yaml:"legacy_notice_once" env:"LEGACY_NOTICE_ONCE"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	// Level is a zap level name: debug, info, warn, error.
	Level string `toml:"level" yaml:"level" env:"LEVEL"`

	// Development selects the console encoder and stack traces on warnings.
	Development bool `toml:"development" yaml:"development" env:"DEVELOPMENT"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool     `toml:"enabled" yaml:"enabled" env:"ENABLED"`
	Port    int      `toml:"port" yaml:"port" env:"PORT"`
	Timeout Duration `toml:"timeout" yaml:"timeout" env:"TIMEOUT"`
}

// ScriptConfig lists Lua scripts run against the bus at startup.
type ScriptConfig struct {
	Paths []string `toml:"paths" yaml:"paths" env:"PATHS" envSeparator:","`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Log: LogConfig{
			Level: "info",
		},
		Metrics: MetricsConfig{
			Port:    9090,
			Timeout: Duration(defaultTimeout),
		},
	}
}

// Validate checks the configuration for values the process cannot run with.
// Port 0 is accepted and selects an ephemeral port.
func (c Config) Validate() error {
	if c.Log.Level != "" {
		if _, err := zapcore.ParseLevel(c.Log.Level); err != nil {
			return &ValidationError{Field: "log.level", Value: c.Log.Level, Err: err}
		}
	}
	if c.Metrics.Port < 0 || c.Metrics.Port > 65535 {
		return &ValidationError{
			Field: "metrics.port",
			Value: c.Metrics.Port,
			Err:   fmt.Errorf("must be between 0 and 65535"),
		}
	}
	if c.Metrics.Enabled && c.Metrics.Timeout <= 0 {
		return &ValidationError{
			Field: "metrics.timeout",
			Value: c.Metrics.Timeout,
			Err:   fmt.Errorf("must be positive"),
		}
	}
	return nil
}
