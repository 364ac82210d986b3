// Package config loads and saves the procmem tool configuration from a
// YAML file under the user's home directory.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"procmem/process"
)

const (
	configDir  = ".procmem"
	configFile = "config.yml"
)

// Config holds the persistent defaults for the command line tool. Flags
// override whatever is loaded from disk.
type Config struct {
	// AllowSystemModules keeps modules under the OS installation root in
	// the module map instead of filtering them.
	AllowSystemModules bool `yaml:"allow-system-modules"`

	// AllowForeignModules keeps modules outside the main executable's
	// directory in the module map instead of filtering them.
	AllowForeignModules bool `yaml:"allow-foreign-modules"`

	// MaxDumpBytes caps how many bytes the read command fetches when no
	// explicit length is given.
	MaxDumpBytes int `yaml:"max-dump-bytes"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{MaxDumpBytes: 256}
}

// DefaultPath returns the location of the per-user configuration file.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("locate home directory: %w", err)
	}
	return filepath.Join(home, configDir, configFile), nil
}

// Load reads the configuration at path, or the default location when path
// is empty. A missing file is not an error; defaults are returned.
func Load(path string) (*Config, error) {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}

	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return c, nil
}

// Save writes the configuration to path, or the default location when path
// is empty, creating the directory as needed.
func Save(path string, c *Config) error {
	if path == "" {
		var err error
		if path, err = DefaultPath(); err != nil {
			return err
		}
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Options translates the configuration into accessor options.
func (c *Config) Options() []process.Option {
	var opts []process.Option
	if c.AllowSystemModules {
		opts = append(opts, process.AllowSystemModules())
	}
	if c.AllowForeignModules {
		opts = append(opts, process.AllowForeignModules())
	}
	return opts
}
