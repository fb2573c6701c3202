// Package config loads the git-loom configuration file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config holds the git-loom configuration.
type Config struct {
	// IntegrationBranch is the default name used by `git-loom init`.
	IntegrationBranch string `toml:"integration_branch"`
	// RemoteType overrides push auto-detection: "github" or "gerrit".
	// The git config key `loom.remote-type` takes precedence over this.
	RemoteType string `toml:"remote_type"`
	// Color controls colored output: "auto" (default), "always" or "never".
	Color string `toml:"color"`
}

// Default returns the default configuration.
func Default() Config {
	return Config{
		IntegrationBranch: "integration",
		Color:             "auto",
	}
}

// configPath returns the path to the config file.
func configPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "git-loom", "config.toml"), nil
}

// Load reads config from ~/.config/git-loom/config.toml.
// Returns Default() if the file doesn't exist (no error).
// Returns an error only if the file exists but is invalid.
func Load() (Config, error) {
	path, err := configPath()
	if err != nil {
		return Default(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from an explicit path.
func LoadFrom(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := cfg.validate(); err != nil {
		return Default(), fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.RemoteType {
	case "", "github", "gerrit":
	default:
		return fmt.Errorf("remote_type must be \"github\" or \"gerrit\", got %q", c.RemoteType)
	}
	switch c.Color {
	case "", "auto", "always", "never":
	default:
		return fmt.Errorf("color must be \"auto\", \"always\" or \"never\", got %q", c.Color)
	}
	if c.IntegrationBranch == "" {
		c.IntegrationBranch = "integration"
	}
	return nil
}
