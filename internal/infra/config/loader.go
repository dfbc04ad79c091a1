// Package config provides configuration loading functionality.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

// ConfigFileName is the config file name inside the data directory.
const ConfigFileName = "config.toml"

// Config holds the tool configuration. Everything has a working default;
// the file is optional.
type Config struct {
	SessionsRoot string    `toml:"sessions_root"` // Overrides <data dir>/sessions
	Log          LogConfig `toml:"log"`
}

// LogConfig holds logging settings from the [log] section.
type LogConfig struct {
	Level string `toml:"level"` // debug, info, warn, error
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{Level: "info"},
	}
}

// Loader loads configuration from the data directory.
type Loader struct {
	dataDir string
}

// NewLoader creates a new Loader for the given data directory.
func NewLoader(dataDir string) *Loader {
	return &Loader{dataDir: dataDir}
}

// Load returns the configuration merged over defaults. A missing file
// yields the defaults without error.
func (l *Loader) Load() (*Config, error) {
	path := filepath.Join(l.dataDir, ConfigFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	return cfg, nil
}
