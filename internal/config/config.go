// Package config loads the TOML configuration file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the application configuration.
type Config struct {
	// CardsDir is the directory holding the vCard files.
	CardsDir string `toml:"cards_dir"`

	// DBPath is the SQLite archive database file.
	DBPath string `toml:"db_path"`

	// DashboardPort is the port the watch dashboard listens on.
	DashboardPort int `toml:"dashboard_port"`

	// Log controls the rotating log file used by the interactive
	// screens and the watcher.
	Log LogConfig `toml:"log"`
}

// LogConfig holds rotating log file settings.
type LogConfig struct {
	// File is the log file path. Empty disables file logging.
	File string `toml:"file"`

	// MaxSizeMB is the size at which the log rotates.
	MaxSizeMB int `toml:"max_size_mb"`

	// MaxBackups is how many rotated files to keep.
	MaxBackups int `toml:"max_backups"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	base := filepath.Join(home, ".vcman")

	return &Config{
		CardsDir:      filepath.Join(base, "cards"),
		DBPath:        filepath.Join(base, "archive.db"),
		DashboardPort: 8080,
		Log: LogConfig{
			File:       filepath.Join(base, "vcman.log"),
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}

// DefaultPath returns the conventional config file location,
// ~/.config/vcman/config.toml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".config", "vcman", "config.toml")
}

// Load reads a TOML config file, filling unset fields from Default. A
// missing file is not an error; the defaults are returned.
func Load(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes the configuration to a TOML file, creating parent
// directories as needed.
func Save(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// #nosec G304 - controlled path from CLI
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
