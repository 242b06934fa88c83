// Package am manages lorekeep configuration ("I am").
//
// Configuration is merged from system, user, and project TOML files with
// environment overrides (LOREKEEP_ prefix). The user config lives in
// ~/.lorekeep/lorekeep.toml.
package am

import (
	"os"
	"path/filepath"
)

// Config represents the core lorekeep configuration
type Config struct {
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// WorkspaceConfig configures where per-world stores live
type WorkspaceConfig struct {
	// Dir holds one self-contained <world>.db file per world.
	// Empty means ~/.lorekeep/worlds.
	Dir string `mapstructure:"dir"`
}

// DatabaseConfig configures the per-world SQLite stores
type DatabaseConfig struct {
	BusyTimeoutMS int `mapstructure:"busy_timeout_ms"` // SQLite busy timeout (default: 5000)
}

// LoggingConfig configures log output
type LoggingConfig struct {
	JSON bool `mapstructure:"json"` // JSON structured output instead of console format (default: false)
}

// File and directory permission constants
const (
	DefaultDirPermissions  = 0750
	DefaultFilePermissions = 0644
)

// ConfigFileName is the canonical config file name
const ConfigFileName = "lorekeep.toml"

// UserConfigDir returns the per-user lorekeep directory (~/.lorekeep)
func UserConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".lorekeep")
}

// WorkspaceDir resolves the configured workspace directory, falling back to
// ~/.lorekeep/worlds when unset.
func (c *Config) WorkspaceDir() string {
	if c.Workspace.Dir != "" {
		return c.Workspace.Dir
	}
	return filepath.Join(UserConfigDir(), "worlds")
}
