// Package config loads wingman daemon configuration from a TOML file
// with environment variable overrides.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Environment variables that override file values.
const (
	EnvDatabasePath = "WINGMAN_DATABASE_PATH"
	EnvClaudePath   = "WINGMAN_CLAUDE_PATH"
	EnvLogLevel     = "WINGMAN_LOG_LEVEL"
	EnvEventBuffer  = "WINGMAN_EVENT_BUFFER"
)

// Config holds the daemon configuration.
type Config struct {
	// DatabasePath is the SQLite database file location.
	DatabasePath string `toml:"database_path"`

	// ClaudePath is the claude CLI executable name or path.
	ClaudePath string `toml:"claude_path"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// EventBuffer is the event bus channel capacity.
	EventBuffer int `toml:"event_buffer"`

	Watcher WatcherConfig `toml:"watcher"`
}

// WatcherConfig tunes the file watcher.
type WatcherConfig struct {
	DebounceMS          int      `toml:"debounce_ms"`
	AttributionWindowMS int      `toml:"attribution_window_ms"`
	IgnorePatterns      []string `toml:"ignore_patterns"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	dbPath := "wingman.db"
	if dir, err := os.UserConfigDir(); err == nil {
		dbPath = filepath.Join(dir, "wingman", "wingman.db")
	}
	return Config{
		DatabasePath: dbPath,
		ClaudePath:   "claude",
		LogLevel:     "info",
		EventBuffer:  256,
		Watcher: WatcherConfig{
			DebounceMS:          100,
			AttributionWindowMS: 2000,
		},
	}
}

// Load reads the TOML file at path, applies environment overrides, and
// fills unset fields from Default. An empty path or a missing file is
// not an error: defaults plus environment apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("load config %s: %w", path, err)
			}
		}
	}

	applyEnv(&cfg)

	if cfg.DatabasePath == "" {
		cfg.DatabasePath = Default().DatabasePath
	}
	if cfg.ClaudePath == "" {
		cfg.ClaudePath = "claude"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 256
	}
	if cfg.Watcher.DebounceMS <= 0 {
		cfg.Watcher.DebounceMS = 100
	}
	if cfg.Watcher.AttributionWindowMS <= 0 {
		cfg.Watcher.AttributionWindowMS = 2000
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv(EnvDatabasePath); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv(EnvClaudePath); v != "" {
		cfg.ClaudePath = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv(EnvEventBuffer); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.EventBuffer = n
		}
	}
}

// SlogLevel maps LogLevel to a slog.Level. Unknown values fall back to
// info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Debounce returns the watcher debounce as a duration.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.Watcher.DebounceMS) * time.Millisecond
}

// AttributionWindow returns the claude attribution window as a
// duration.
func (c Config) AttributionWindow() time.Duration {
	return time.Duration(c.Watcher.AttributionWindowMS) * time.Millisecond
}
