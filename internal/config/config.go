// Package config loads catalog settings.
//
// Sources are applied in order, later ones winning: built-in defaults, the
// JSON file at ~/.catalog/config.json, a .env file in the working directory,
// and CATALOG_* environment variables.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix prefixes every environment override, e.g. CATALOG_API_URL.
const EnvPrefix = "catalog"

// Config is the persistent application configuration
type Config struct {
	// Client
	APIURL         string   `json:"api_url" envconfig:"API_URL"`
	Timeout        Duration `json:"timeout" envconfig:"TIMEOUT"`
	SearchDelay    Duration `json:"search_delay" envconfig:"SEARCH_DELAY"`
	MinChars       int      `json:"min_chars" envconfig:"MIN_CHARS"`
	SearchInterval Duration `json:"search_interval" envconfig:"SEARCH_INTERVAL"` // minimum gap between AI searches

	// Local files
	DataDir  string `json:"data_dir" envconfig:"DATA_DIR"`
	LogLevel string `json:"log_level" envconfig:"LOG_LEVEL"`

	// Dev backend
	Listen string `json:"listen" envconfig:"LISTEN"`
	DBPath string `json:"db_path" envconfig:"DB_PATH"` // empty means in-memory
	Seed   bool   `json:"seed" envconfig:"SEED"`
}

// Duration is a time.Duration written as "500ms" in JSON and env vars.
type Duration time.Duration

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		APIURL:         "http://localhost:8000",
		Timeout:        Duration(10 * time.Second),
		SearchDelay:    Duration(500 * time.Millisecond),
		MinChars:       3,
		SearchInterval: Duration(250 * time.Millisecond),
		DataDir:        filepath.Join(home, ".catalog"),
		LogLevel:       "info",
		Listen:         ":8000",
		Seed:           true,
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".catalog", "config.json")
}

// Load reads the config file at path (ConfigPath when empty) and applies
// .env and environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case !errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	// Existing environment variables win over .env entries.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the client cannot run with.
func (c *Config) Validate() error {
	switch {
	case c.APIURL == "":
		return errors.New("config: api_url is required")
	case c.Timeout <= 0:
		return errors.New("config: timeout must be positive")
	case c.SearchDelay < 0:
		return errors.New("config: search_delay must not be negative")
	case c.MinChars < 1:
		return errors.New("config: min_chars must be at least 1")
	case c.SearchInterval < 0:
		return errors.New("config: search_interval must not be negative")
	}
	return nil
}

// Save writes config to path (ConfigPath when empty).
func (c *Config) Save(path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// EventsPath is the JSONL event log written by the TUI.
func (c *Config) EventsPath() string {
	return filepath.Join(c.DataDir, "events.jsonl")
}
