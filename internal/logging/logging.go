// Package logging builds the process zap logger from configuration.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/dshills/eventbus/internal/config"
)

// New builds a logger for cfg. An unparseable level falls back to info.
func New(cfg config.LogConfig) (*zap.Logger, error) {
	logger, _, err := Build(cfg)
	return logger, err
}

// Build is like New but also returns the logger's level so it can be
// changed while the process runs.
func Build(cfg config.LogConfig) (*zap.Logger, zap.AtomicLevel, error) {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = zap.NewAtomicLevelAt(Level(cfg.Level))

	logger, err := zcfg.Build(zap.AddCaller())
	if err != nil {
		return nil, zcfg.Level, err
	}
	return logger, zcfg.Level, nil
}

// Level parses a zap level name, defaulting to info.
func Level(name string) zapcore.Level {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return zapcore.InfoLevel
	}
	return level
}
