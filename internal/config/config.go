// Package config provides reading and writing of Cortex configuration.
// The config file lives inside the data directory (~/.cortex/config.yaml by
// default) next to the store file. Missing file means defaults; unset fields
// are pointers so "absent" is distinguishable from an explicit zero.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ErrInvalidValue is returned when a config value is out of bounds.
var ErrInvalidValue = errors.New("invalid config value")

// Defaults applied when not configured.
const (
	DefaultDirName     = ".cortex"
	DefaultDBName      = "cortex.db"
	DefaultMaxFileSize = 100 * 1024 * 1024 // 100 MiB
)

// Validation bounds for configuration values.
const (
	MinMaxFileSize = 1
	MaxMaxFileSize = 10 * 1024 * 1024 * 1024 // 10 GiB
)

// Config contains configuration for the indexing core.
type Config struct {
	// DataDir overrides the store location. Empty means ~/.cortex.
	DataDir string `yaml:"data_dir,omitempty"`

	// MaxFileSize is the extraction ceiling in bytes.
	MaxFileSize *int64 `yaml:"max_file_size,omitempty"`

	// ExcludePatterns are doublestar globs skipped during scanning, on top
	// of the fixed exclusion set.
	ExcludePatterns []string `yaml:"exclude_patterns,omitempty"`
}

// Validate checks that all configured values are within acceptable bounds.
// Nil fields are valid; defaults apply.
func (c *Config) Validate() error {
	if c.MaxFileSize != nil {
		v := *c.MaxFileSize
		if v < MinMaxFileSize || v > MaxMaxFileSize {
			return fmt.Errorf("%w: max_file_size must be between %d and %d, got %d",
				ErrInvalidValue, MinMaxFileSize, MaxMaxFileSize, v)
		}
	}
	return nil
}

// EffectiveMaxFileSize resolves the ceiling with its default.
func (c *Config) EffectiveMaxFileSize() int64 {
	if c.MaxFileSize != nil {
		return *c.MaxFileSize
	}
	return DefaultMaxFileSize
}

// DefaultDataDir returns ~/.cortex, the standard store location.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home directory: %w", err)
	}
	return filepath.Join(home, DefaultDirName), nil
}

// EffectiveDataDir resolves the data directory with its default.
func (c *Config) EffectiveDataDir() (string, error) {
	if c.DataDir != "" {
		return c.DataDir, nil
	}
	return DefaultDataDir()
}

// DBPath returns the store file location inside the data directory.
func (c *Config) DBPath() (string, error) {
	dir, err := c.EffectiveDataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultDBName), nil
}

// Load reads the config file from dataDir. A missing file yields the zero
// config (all defaults); a malformed or out-of-bounds file is an error.
func Load(dataDir string) (*Config, error) {
	var c Config
	if dataDir == "" {
		var err error
		if dataDir, err = DefaultDataDir(); err != nil {
			return nil, err
		}
	}
	c.DataDir = dataDir

	data, err := os.ReadFile(filepath.Join(dataDir, "config.yaml"))
	if errors.Is(err, fs.ErrNotExist) {
		return &c, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if c.DataDir == "" {
		c.DataDir = dataDir
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Save writes the config file into its data directory, creating the
// directory if needed.
func (c *Config) Save() error {
	if err := c.Validate(); err != nil {
		return err
	}
	dir, err := c.EffectiveDataDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
