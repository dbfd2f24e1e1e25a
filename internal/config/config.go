// Package config loads flowd settings from a YAML file with FLOWD_*
// environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sandeepkv93/flowd/internal/derive"
	"github.com/sandeepkv93/flowd/internal/storage"
)

type DatabaseConfig struct {
	Path   string `yaml:"path"`
	Driver string `yaml:"driver"`
}

type SyncConfig struct {
	Interval   time.Duration `yaml:"interval"`
	WatchStore bool          `yaml:"watch_store"`
}

type DeriveConfig struct {
	Policy string `yaml:"policy"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type RemindersConfig struct {
	Buffer int `yaml:"buffer"`
}

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Sync      SyncConfig      `yaml:"sync"`
	Derive    DeriveConfig    `yaml:"derive"`
	Timezone  string          `yaml:"timezone"`
	Log       LogConfig       `yaml:"log"`
	Reminders RemindersConfig `yaml:"reminders"`
}

const DefaultSyncInterval = 30 * time.Second

func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Path:   filepath.Join(dataDir(), "flowd.db"),
			Driver: storage.DriverCGO,
		},
		Sync: SyncConfig{
			Interval:   DefaultSyncInterval,
			WatchStore: true,
		},
		Derive:    DeriveConfig{Policy: string(derive.PolicyAdditive)},
		Timezone:  "Local",
		Log:       LogConfig{Level: "info"},
		Reminders: RemindersConfig{Buffer: 64},
	}
}

// DefaultPath is $XDG_CONFIG_HOME/flowd/config.yaml or its platform
// equivalent.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "flowd.yaml"
	}
	return filepath.Join(dir, "flowd", "config.yaml")
}

func dataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "flowd")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".local", "share", "flowd")
}

// Load reads path on top of the defaults. A missing file is not an error.
// Environment overrides apply either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv("FLOWD_DB_PATH")); v != "" {
		c.Database.Path = v
	}
	if v := strings.TrimSpace(os.Getenv("FLOWD_DB_DRIVER")); v != "" {
		c.Database.Driver = v
	}
	if v, ok := getEnvDuration("FLOWD_SYNC_INTERVAL"); ok && v > 0 {
		c.Sync.Interval = v
	}
	if v, ok := getEnvBool("FLOWD_WATCH_STORE"); ok {
		c.Sync.WatchStore = v
	}
	if v := strings.TrimSpace(os.Getenv("FLOWD_DERIVE_POLICY")); v != "" {
		c.Derive.Policy = v
	}
	if v := strings.TrimSpace(os.Getenv("FLOWD_TIMEZONE")); v != "" {
		c.Timezone = v
	}
	if v := strings.TrimSpace(os.Getenv("FLOWD_LOG_LEVEL")); v != "" {
		c.Log.Level = v
	}
	if v, ok := getEnvInt("FLOWD_REMINDER_BUFFER"); ok && v > 0 {
		c.Reminders.Buffer = v
	}
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path is required")
	}
	if !storage.ValidDriver(c.Database.Driver) {
		return fmt.Errorf("database.driver must be %q or %q, got %q", storage.DriverCGO, storage.DriverPure, c.Database.Driver)
	}
	if c.Sync.Interval <= 0 {
		return fmt.Errorf("sync.interval must be positive, got %s", c.Sync.Interval)
	}
	if !derive.Policy(c.Derive.Policy).IsValid() {
		return fmt.Errorf("derive.policy must be %q or %q, got %q", derive.PolicyAdditive, derive.PolicyRefresh, c.Derive.Policy)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error, got %q", c.Log.Level)
	}
	if c.Reminders.Buffer <= 0 {
		return fmt.Errorf("reminders.buffer must be positive, got %d", c.Reminders.Buffer)
	}
	return nil
}

// Location resolves the timezone used for calendar-day math.
func (c *Config) Location() (*time.Location, error) {
	switch c.Timezone {
	case "", "Local", "local":
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvDuration(name string) (time.Duration, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
