// Package commands implements the leappanel CLI commands.
package commands

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/leappanel/internal/config"
)

// loggerKey is used to store the logger in context.
type loggerKey struct{}

// configKey is used to store the config in context.
type configKey struct{}

// LoggerKey returns the context key used for storing the logger. The root
// command sets it; commands retrieve it via GetLogger.
func LoggerKey() interface{} {
	return loggerKey{}
}

// ConfigKey returns the context key used for storing the config.
func ConfigKey() interface{} {
	return configKey{}
}

// GetLogger retrieves the logger from the command context.
func GetLogger(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
		return l
	}
	// Discard logger as safe fallback
	return slog.New(slog.DiscardHandler)
}

// GetConfig retrieves the config from the command context.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return &config.Config{
		LogLevel:    config.DefaultLogLevel,
		DefaultView: config.DefaultView,
		Output:      config.DefaultOutput,
	}
}
