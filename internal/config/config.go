// Package config loads codeup's YAML configuration.
//
// Configuration is looked up as `.codeup.yml` in the repository root, then
// `$XDG_CONFIG_HOME/codeup/config.yml` (or the OS equivalent). All fields
// are optional; a missing file yields the defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so YAML values can be written as "5m" or
// "600s".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the standard library representation.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Watchdog configures the liveness monitor thresholds.
type Watchdog struct {
	Interval  Duration `yaml:"interval"`
	SoftLimit Duration `yaml:"soft_limit"`
	HardLimit Duration `yaml:"hard_limit"`
}

// Config is the full configuration.
type Config struct {
	Quiet         bool     `yaml:"quiet"`
	NoPush        bool     `yaml:"no_push"`
	NoRebase      bool     `yaml:"no_rebase"`
	NoInteractive bool     `yaml:"no_interactive"`
	JournalPath   string   `yaml:"journal_path"`
	LineTimeout   Duration `yaml:"line_timeout"`
	Watchdog      Watchdog `yaml:"watchdog"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		LineTimeout: Duration(600 * time.Second),
		Watchdog: Watchdog{
			Interval:  Duration(60 * time.Second),
			SoftLimit: Duration(4 * time.Minute),
			HardLimit: Duration(5 * time.Minute),
		},
	}
}

// Load reads the configuration from an explicit path.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Discover loads the configuration for a repository directory, falling back
// through the lookup order to the defaults when no file exists.
func Discover(repoDir string) (Config, error) {
	candidates := []string{filepath.Join(repoDir, ".codeup.yml")}
	if userDir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(userDir, "codeup", "config.yml"))
	}

	for _, path := range candidates {
		cfg, err := Load(path)
		if err == nil {
			return cfg, nil
		}
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return cfg, err
	}
	return Default(), nil
}

// DefaultJournalPath returns where the attempt journal lives when the
// config does not override it.
func DefaultJournalPath() (string, error) {
	userDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve journal path: %w", err)
	}
	dir := filepath.Join(userDir, "codeup")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create journal dir: %w", err)
	}
	return filepath.Join(dir, "history.db"), nil
}
