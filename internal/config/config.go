// Package config handles convo configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the root configuration structure for convo.
type Config struct {
	// Global settings
	Global GlobalConfig `yaml:"global" mapstructure:"global"`

	// Endpoints of the remote chat service.
	Endpoints EndpointsConfig `yaml:"endpoints" mapstructure:"endpoints"`

	// Sync settings for the polling/reconciliation engine.
	Sync SyncConfig `yaml:"sync" mapstructure:"sync"`

	// Database settings for the local state store.
	Database DatabaseConfig `yaml:"database" mapstructure:"database"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging" mapstructure:"logging"`

	// TUI settings
	TUI TUIConfig `yaml:"tui" mapstructure:"tui"`
}

// GlobalConfig contains global convo settings.
type GlobalConfig struct {
	// DataDir is where convo stores its local state (default: ~/.local/share/convo).
	DataDir string `yaml:"data_dir" mapstructure:"data_dir"`

	// ConfigDir is where config files are stored (default: ~/.config/convo).
	ConfigDir string `yaml:"config_dir" mapstructure:"config_dir"`
}

// EndpointsConfig holds the base URL of each backend function group. The
// service is deployed as independent functions, so every group has its own URL
// rather than a shared host with paths.
type EndpointsConfig struct {
	Auth     string `yaml:"auth" mapstructure:"auth"`
	Chats    string `yaml:"chats" mapstructure:"chats"`
	Messages string `yaml:"messages" mapstructure:"messages"`
	Groups   string `yaml:"groups" mapstructure:"groups"`
	Profile  string `yaml:"profile" mapstructure:"profile"`
}

// SyncConfig tunes the polling and reconciliation engine.
type SyncConfig struct {
	// MessagePollInterval is how often the open conversation is reloaded.
	MessagePollInterval time.Duration `yaml:"message_poll_interval" mapstructure:"message_poll_interval"`

	// ChatPollInterval is how often the conversation list is reloaded.
	ChatPollInterval time.Duration `yaml:"chat_poll_interval" mapstructure:"chat_poll_interval"`

	// SoundEnabled controls the audible cue on new incoming messages.
	SoundEnabled bool `yaml:"sound_enabled" mapstructure:"sound_enabled"`

	// NearBottomRows is how close to the tail (in rendered rows) the viewport
	// must be for auto-follow to stay engaged.
	NearBottomRows int `yaml:"near_bottom_rows" mapstructure:"near_bottom_rows"`

	// RollbackDeleteOnFailure restores an optimistically removed message when
	// the remote delete fails. Off by default to match the service's observed
	// client behavior; the asymmetry is deliberate and configurable.
	RollbackDeleteOnFailure bool `yaml:"rollback_delete_on_failure" mapstructure:"rollback_delete_on_failure"`
}

// DatabaseConfig contains local SQLite state store settings.
type DatabaseConfig struct {
	// Path is the SQLite database file path.
	Path string `yaml:"path" mapstructure:"path"`

	// BusyTimeout is how long to wait for a locked database (milliseconds).
	BusyTimeoutMs int `yaml:"busy_timeout_ms" mapstructure:"busy_timeout_ms"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is the minimum log level (debug, info, warn, error).
	Level string `yaml:"level" mapstructure:"level"`

	// Format is the output format (json, console).
	Format string `yaml:"format" mapstructure:"format"`

	// File is an optional log file path.
	File string `yaml:"file" mapstructure:"file"`

	// EnableCaller adds caller information to logs.
	EnableCaller bool `yaml:"enable_caller" mapstructure:"enable_caller"`
}

// TUIConfig contains TUI settings.
type TUIConfig struct {
	// Theme selects the color theme (default, high-contrast).
	Theme string `yaml:"theme" mapstructure:"theme"`

	// ShowTimestamps renders per-message timestamps.
	ShowTimestamps bool `yaml:"show_timestamps" mapstructure:"show_timestamps"`
}

// DefaultConfig returns the configuration defaults.
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".local", "share", "convo")
	configDir := filepath.Join(home, ".config", "convo")

	return &Config{
		Global: GlobalConfig{
			DataDir:   dataDir,
			ConfigDir: configDir,
		},
		Sync: SyncConfig{
			MessagePollInterval:     time.Second,
			ChatPollInterval:        3 * time.Second,
			SoundEnabled:            true,
			NearBottomRows:          3,
			RollbackDeleteOnFailure: false,
		},
		Database: DatabaseConfig{
			Path:          filepath.Join(dataDir, "convo.db"),
			BusyTimeoutMs: 5000,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		TUI: TUIConfig{
			Theme:          "default",
			ShowTimestamps: true,
		},
	}
}

// Validate checks the configuration for inconsistencies.
func (c *Config) Validate() error {
	if c.Sync.MessagePollInterval <= 0 {
		return fmt.Errorf("sync.message_poll_interval must be positive")
	}
	if c.Sync.ChatPollInterval <= 0 {
		return fmt.Errorf("sync.chat_poll_interval must be positive")
	}
	if c.Sync.NearBottomRows < 0 {
		return fmt.Errorf("sync.near_bottom_rows must not be negative")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	switch c.Logging.Level {
	case "", "trace", "debug", "info", "warn", "warning", "error", "fatal":
	default:
		return fmt.Errorf("logging.level %q is not a known level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "", "json", "console":
	default:
		return fmt.Errorf("logging.format %q is not a known format", c.Logging.Format)
	}

	return nil
}
