// Package logging builds the application's zap logger.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds logging configuration
type Config struct {
	Level       string // debug, info, warn, error
	Encoding    string // "json" or "console"
	Development bool
}

// NewLogger creates a zap logger from cfg. An unknown level falls back to info.
func NewLogger(cfg Config) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Development {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	zapConfig.Level = level

	if cfg.Encoding == "console" {
		zapConfig.Encoding = "console"
		zapConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zapConfig.Encoding = "json"
	}
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return zapConfig.Build(zap.Fields(zap.String("service", "mobit-catalog")))
}

// Must is NewLogger that falls back to a production logger on error.
func Must(cfg Config) *zap.Logger {
	logger, err := NewLogger(cfg)
	if err != nil {
		logger, _ = zap.NewProduction()
		logger.Warn("invalid logging config, using defaults", zap.Error(err))
	}
	return logger
}
