// Package config provides configuration types and defaults for waypoint.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/waypoint/internal/flags"
	"github.com/zjrosen/waypoint/internal/log"
	"github.com/zjrosen/waypoint/internal/router"
	"github.com/zjrosen/waypoint/internal/tracing"
)

const category = "config"

// Config holds all configuration options for waypoint.
type Config struct {
	// LogPath is the file records are appended to. Empty disables the file.
	LogPath string `mapstructure:"log_path"`

	// Debug lowers the minimum logged level to debug.
	Debug bool `mapstructure:"debug"`

	// CoalesceDelay is how long routers wait before reporting a change.
	CoalesceDelay time.Duration `mapstructure:"coalesce_delay"`

	State   StateConfig     `mapstructure:"state"`
	Spool   SpoolConfig     `mapstructure:"spool"`
	Tracing tracing.Config  `mapstructure:"tracing"`
	Flags   map[string]bool `mapstructure:"flags"`
}

// StateConfig controls persistence of router stacks.
type StateConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"` // sqlite database file
	Keep    int    `mapstructure:"keep"` // snapshots retained, 0 keeps all
}

// SpoolConfig controls the deep-link drop directory.
type SpoolConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Dir      string        `mapstructure:"dir"`
	Debounce time.Duration `mapstructure:"debounce"`
}

// RouterEnv builds the environment shared by every router.
func (c Config) RouterEnv(logger *log.Logger, exec router.Executor) router.Env {
	return router.Env{
		Logger:   logger,
		Executor: exec,
		Coalesce: c.CoalesceDelay,
		Flags:    flags.New(c.Flags),
	}
}

// MinLevel returns the lowest level the configured logger writes.
func (c Config) MinLevel() log.Level {
	if c.Debug {
		return log.LevelDebug
	}
	return log.LevelInfo
}

// configDir returns ~/.config/waypoint or "" when the home directory is
// unavailable.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "waypoint")
}

// DefaultStatePath returns ~/.config/waypoint/state.db.
func DefaultStatePath() string {
	dir := configDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "state.db")
}

// DefaultSpoolDir returns ~/.config/waypoint/spool.
func DefaultSpoolDir() string {
	dir := configDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "spool")
}

// DefaultTracesFilePath returns ~/.config/waypoint/traces/traces.jsonl.
func DefaultTracesFilePath() string {
	dir := configDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "traces", "traces.jsonl")
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	tc := tracing.DefaultConfig()
	tc.FilePath = DefaultTracesFilePath()

	return Config{
		CoalesceDelay: router.DefaultCoalesce,
		State: StateConfig{
			Enabled: true,
			Path:    DefaultStatePath(),
			Keep:    20,
		},
		Spool: SpoolConfig{
			Enabled:  false,
			Dir:      DefaultSpoolDir(),
			Debounce: 100 * time.Millisecond,
		},
		Tracing: tc,
		Flags: map[string]bool{
			flags.FlagChangeDiff:   false,
			flags.FlagRestoreState: true,
		},
	}
}

// Validate checks the whole configuration. Empty values that have defaults
// are accepted.
func (c Config) Validate() error {
	if c.CoalesceDelay < 0 {
		return fmt.Errorf("coalesce_delay must not be negative, got %v", c.CoalesceDelay)
	}
	if err := ValidateState(c.State); err != nil {
		return err
	}
	if err := ValidateSpool(c.Spool); err != nil {
		return err
	}
	return c.Tracing.Validate()
}

// ValidateState checks state persistence configuration.
func ValidateState(s StateConfig) error {
	if s.Keep < 0 {
		return fmt.Errorf("state.keep must not be negative, got %d", s.Keep)
	}
	if s.Enabled && s.Path == "" {
		return fmt.Errorf("state.path is required when state is enabled")
	}
	return nil
}

// ValidateSpool checks spool configuration.
func ValidateSpool(s SpoolConfig) error {
	if s.Debounce < 0 {
		return fmt.Errorf("spool.debounce must not be negative, got %v", s.Debounce)
	}
	if s.Enabled && s.Dir == "" {
		return fmt.Errorf("spool.dir is required when the spool is enabled")
	}
	return nil
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Waypoint Configuration

# File that navigation records are appended to (default: none)
# log_path: ~/.config/waypoint/waypoint.log

# Write debug records as well
debug: false

# How long a router waits before reporting a batch of changes
coalesce_delay: 50ms

# Persist router stacks between runs
state:
  enabled: true
  # path: ~/.config/waypoint/state.db
  keep: 20              # Snapshots retained, 0 keeps all

# Directory watched for *.link files, one deep-link URL per line
spool:
  enabled: false
  # dir: ~/.config/waypoint/spool
  debounce: 100ms

# Feature flags
flags:
  change-diff: false    # Attach a diff to every change record
  restore-state: true   # Restore the last saved stacks at startup

# Tracing for deep-link dispatch and state persistence
# tracing:
#   enabled: true
#   exporter: file       # "none", "file", "stdout" or "otlp"
#   file_path: ~/.config/waypoint/traces/traces.jsonl
#
# Example: Send traces to Jaeger via OTLP
# tracing:
#   enabled: true
#   exporter: otlp
#   otlp_endpoint: jaeger.internal:4317
#   sample_rate: 0.1  # Sample 10% of dispatches
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	logger := log.Default()
	logger.Debug(category, "writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		logger.ErrorErr(category, "failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		logger.ErrorErr(category, "failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	logger.Info(category, "created default config", "path", configPath)
	return nil
}
