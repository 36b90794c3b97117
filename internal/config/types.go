// Package config loads leappanel configuration from the config file,
// environment variables, and CLI flags.
package config

import (
	"fmt"

	"github.com/leapstack-labs/leappanel/internal/manifest"
)

// Config holds the panel configuration.
type Config struct {
	// CachePath is the SQLite file backing the warm-start snapshot cache.
	// Empty disables caching.
	CachePath string `koanf:"cache_path"`

	// LogLevel controls slog verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFile receives server logs. Empty means stderr. The server must
	// never log to stdout, which carries the JSON-RPC stream.
	LogFile string `koanf:"log_file"`

	// DefaultView is the relation shown first by the browse and tree
	// commands: tests, parents or children.
	DefaultView string `koanf:"default_view"`

	// Output selects the rendering format for CLI commands: text or json.
	Output string `koanf:"output"`

	// Projects pre-registers project roots so document paths resolve
	// before the first manifest event arrives.
	Projects []ProjectEntry `koanf:"projects"`
}

// ProjectEntry maps a project root directory to its package name.
type ProjectEntry struct {
	Root string `koanf:"root"`
	Name string `koanf:"name"`
}

// Default configuration values.
const (
	DefaultCacheFile = ".leappanel/cache.db"
	DefaultLogLevel  = "info"
	DefaultView      = "children"
	DefaultOutput    = "text"
)

// Validate checks the loaded configuration for values the panel cannot
// work with.
func (c *Config) Validate() error {
	if c.DefaultView != "" {
		if _, err := manifest.ParseRelation(c.DefaultView); err != nil {
			return fmt.Errorf("invalid default_view: %w", err)
		}
	}

	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}

	switch c.Output {
	case "", "text", "json":
	default:
		return fmt.Errorf("unknown output %q (expected text or json)", c.Output)
	}

	for _, p := range c.Projects {
		if p.Root == "" {
			return fmt.Errorf("project entry missing root")
		}
	}

	return nil
}
