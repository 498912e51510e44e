// Package config holds the on-disk configuration for reloc: where the
// bundle lives, which prefix it was built for, and how runs are logged
// and recorded.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all reloc configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Bundle to relocate
	Bundle BundleConfig `yaml:"bundle"`

	// First-run provisioning
	Provision ProvisionConfig `yaml:"provision"`

	// Run history
	History HistoryConfig `yaml:"history"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`
}

// BundleConfig describes the tree being relocated.
type BundleConfig struct {
	// Root is the directory the bundle is installed under.
	Root string `yaml:"root"`

	// OldPrefix is the path the bundle was built for.
	OldPrefix string `yaml:"old_prefix"`

	// NewPrefix is the path to rewrite into the bundle. Empty means
	// Root itself, which is almost always what an install wants.
	NewPrefix string `yaml:"new_prefix"`
}

// ProvisionConfig configures first-run provisioning.
type ProvisionConfig struct {
	// StateDir holds provisioning state. It must live outside the
	// bundle root so the patcher never rewrites its own records.
	// Empty means ".reloc" next to the root.
	StateDir string `yaml:"state_dir"`

	// BootDir receives the generated boot scripts. Empty means "boot"
	// next to the root.
	BootDir string `yaml:"boot_dir"`

	// HomeDir is the shell home whose rc file gets the login hook.
	// Empty means "home" next to the root.
	HomeDir string `yaml:"home_dir"`

	// WaitTimeout bounds how long `provision --wait` waits for the
	// bundle root to appear.
	WaitTimeout string `yaml:"wait_timeout"`
}

// HistoryConfig configures the run-history database.
type HistoryConfig struct {
	Enabled bool `yaml:"enabled"`

	// DatabasePath locates the SQLite file. Empty means "history.db"
	// inside the state directory.
	DatabasePath string `yaml:"database_path"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "reloc",
		Version: "0.3.0",

		Provision: ProvisionConfig{
			WaitTimeout: "2m",
		},

		History: HistoryConfig{
			Enabled: true,
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load loads configuration from a YAML file. A missing file is not an
// error; defaults are returned, with environment overrides applied
// either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if root := os.Getenv("RELOC_ROOT"); root != "" {
		c.Bundle.Root = root
	}
	if old := os.Getenv("RELOC_OLD_PREFIX"); old != "" {
		c.Bundle.OldPrefix = old
	}
	if newPrefix := os.Getenv("RELOC_NEW_PREFIX"); newPrefix != "" {
		c.Bundle.NewPrefix = newPrefix
	}
	if db := os.Getenv("RELOC_DB"); db != "" {
		c.History.DatabasePath = db
	}
	if level := os.Getenv("RELOC_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}
}

// EffectiveNewPrefix returns the prefix to write into the bundle: the
// configured one, or the root itself when none is set.
func (c *Config) EffectiveNewPrefix() string {
	if c.Bundle.NewPrefix != "" {
		return c.Bundle.NewPrefix
	}
	return c.Bundle.Root
}

// StateDir returns the provisioning state directory.
func (c *Config) StateDir() string {
	if c.Provision.StateDir != "" {
		return c.Provision.StateDir
	}
	return filepath.Join(filepath.Dir(c.Bundle.Root), ".reloc")
}

// BootDir returns the boot-script directory.
func (c *Config) BootDir() string {
	if c.Provision.BootDir != "" {
		return c.Provision.BootDir
	}
	return filepath.Join(filepath.Dir(c.Bundle.Root), "boot")
}

// HomeDir returns the shell home directory.
func (c *Config) HomeDir() string {
	if c.Provision.HomeDir != "" {
		return c.Provision.HomeDir
	}
	return filepath.Join(filepath.Dir(c.Bundle.Root), "home")
}

// HistoryPath returns the run-history database path.
func (c *Config) HistoryPath() string {
	if c.History.DatabasePath != "" {
		return c.History.DatabasePath
	}
	return filepath.Join(c.StateDir(), "history.db")
}

// GetWaitTimeout returns the provisioning wait timeout as a duration.
func (c *Config) GetWaitTimeout() time.Duration {
	d, err := time.ParseDuration(c.Provision.WaitTimeout)
	if err != nil {
		return 2 * time.Minute
	}
	return d
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Bundle.Root == "" {
		return fmt.Errorf("bundle root not configured (set bundle.root or RELOC_ROOT)")
	}
	if c.Bundle.OldPrefix == "" {
		return fmt.Errorf("old prefix not configured (set bundle.old_prefix or RELOC_OLD_PREFIX)")
	}
	return nil
}
