package config

import (
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Store backends.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// EnvPrefix prefixes every environment override, e.g. FLASHER_LISTEN.
const EnvPrefix = "FLASHER"

// Config represents flashd's configuration file (~/.flasher/config.toml).
type Config struct {
	Listen       string        `toml:"listen" yaml:"listen"`
	DataDir      string        `toml:"data_dir" yaml:"data_dir" split_words:"true"`
	ReapInterval time.Duration `toml:"reap_interval" yaml:"reap_interval" split_words:"true"`

	Store   StoreConfig   `toml:"store" yaml:"store"`
	Session SessionConfig `toml:"session" yaml:"session"`
	Log     LogConfig     `toml:"log" yaml:"log"`
}

// StoreConfig selects where session flash state lives between requests.
type StoreConfig struct {
	Backend  string        `toml:"backend" yaml:"backend"`
	RedisURL string        `toml:"redis_url" yaml:"redis_url" envconfig:"REDIS_URL"`
	TTL      time.Duration `toml:"ttl" yaml:"ttl"`
}

// SessionConfig controls the session cookie and where the flash is kept
// inside a session.
type SessionConfig struct {
	CookieName   string `toml:"cookie_name" yaml:"cookie_name" split_words:"true"`
	CookiePath   string `toml:"cookie_path" yaml:"cookie_path" split_words:"true"`
	Secure       bool   `toml:"secure" yaml:"secure"`
	FlashKey     string `toml:"flash_key" yaml:"flash_key" split_words:"true"`
	DefaultGroup string `toml:"default_group" yaml:"default_group" split_words:"true"`
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level string `toml:"level" yaml:"level"`
	File  string `toml:"file" yaml:"file"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() *Config {
	home, _ := os.UserHomeDir()
	return &Config{
		Listen:       "127.0.0.1:4567",
		DataDir:      filepath.Join(home, ".flasher"),
		ReapInterval: time.Minute,
		Store: StoreConfig{
			Backend: BackendSQLite,
			TTL:     40 * time.Minute,
		},
		Session: SessionConfig{
			CookieName:   "flasher.sid",
			CookiePath:   "/",
			FlashKey:     "flash",
			DefaultGroup: "flash",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads config from the given path on top of Defaults. The format is
// picked from the extension: .yaml/.yml is YAML, anything else TOML.
// Returns nil config and error if the file is missing.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %q: %w", path, err)
		}
	default:
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// Resolve loads path, or starts from Defaults when path is empty, then
// applies environment overrides and validates the result.
func Resolve(path string) (*Config, error) {
	cfg := Defaults()
	if path != "" {
		loaded, err := Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config %q: %w", path, err)
		}
		cfg = loaded
	}
	if err := ApplyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv overrides fields from FLASHER_* environment variables. The redis
// URL also honours a bare REDIS_URL.
func ApplyEnv(cfg *Config) error {
	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return fmt.Errorf("env config: %w", err)
	}
	return nil
}

// Save writes config to the given path as TOML, creating parent dirs as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return err
	}
	encErr := toml.NewEncoder(f).Encode(cfg)
	if closeErr := f.Close(); closeErr != nil && encErr == nil {
		return closeErr
	}
	return encErr
}

// Validate checks values that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	if _, _, err := net.SplitHostPort(c.Listen); err != nil {
		return fmt.Errorf("invalid listen address %q: %w", c.Listen, err)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir must be set")
	}
	switch c.Store.Backend {
	case BackendMemory, BackendSQLite:
	case BackendRedis:
		if c.Store.RedisURL == "" {
			return fmt.Errorf("store backend %q requires redis_url", c.Store.Backend)
		}
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	if c.Store.TTL <= 0 {
		return fmt.Errorf("store ttl must be positive, got %s", c.Store.TTL)
	}
	if c.Session.CookieName == "" {
		return fmt.Errorf("session cookie_name must be set")
	}
	if c.Session.FlashKey == "" {
		return fmt.Errorf("session flash_key must be set")
	}
	if c.ReapInterval <= 0 {
		return fmt.Errorf("reap_interval must be positive, got %s", c.ReapInterval)
	}
	return nil
}
