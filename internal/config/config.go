// Package config loads the service configuration from a YAML file with
// environment overrides for secrets.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
)

// Environment variables that override file values.
const (
	EnvJWTSecret      = "MYSKED_JWT_SECRET"
	EnvUpstreamURL    = "MYSKED_UPSTREAM_URL"
	EnvWebhookKeyHash = "MYSKED_WEBHOOK_KEY_HASH"
	EnvToken          = "MYSKED_TOKEN"
)

// Cache backends.
const (
	CacheSQLite = "sqlite"
	CacheRedis  = "redis"
	CacheNone   = "none"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Cache    CacheConfig    `yaml:"cache"`
	Auth     AuthConfig     `yaml:"auth"`
	Assets   AssetsConfig   `yaml:"assets"`
	Timeline TimelineConfig `yaml:"timeline"`
	Tracing  TracingConfig  `yaml:"tracing"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type UpstreamConfig struct {
	BaseURL   string        `yaml:"base_url"`
	Timeout   time.Duration `yaml:"timeout"`
	RateLimit float64       `yaml:"rate_limit"` // requests per second, 0 disables
	Burst     int           `yaml:"burst"`
}

type CacheConfig struct {
	Backend       string        `yaml:"backend"` // sqlite, redis or none
	Path          string        `yaml:"path"`    // SQLite database path
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	JWTSecret      string `yaml:"jwt_secret"`
	WebhookKeyHash string `yaml:"webhook_key_hash"` // bcrypt hash, see `mysked hash-key`
	LoginURL       string `yaml:"login_url"`
}

type AssetsConfig struct {
	AllowedHosts  []string `yaml:"allowed_hosts"`
	ThumbnailSize int      `yaml:"thumbnail_size"`
}

type TimelineConfig struct {
	PageSize int      `yaml:"page_size"`
	Entities []string `yaml:"entities"`
	Location string   `yaml:"location"` // IANA zone for overdue dates
}

type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	Insecure    bool    `yaml:"insecure"`
	SampleRate  float64 `yaml:"sample_rate"`
	ServiceName string  `yaml:"service_name"`
}

type LogConfig struct {
	Path  string `yaml:"path"`
	Level string `yaml:"level"` // debug, info, warn or error
}

// DefaultConfigPath returns ~/.config/mysked/config.yaml
func DefaultConfigPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".config", "mysked", "config.yaml")
	}
	return filepath.Join(homeDir, ".config", "mysked", "config.yaml")
}

// DefaultConfig returns the defaults used for every field the file omits.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Upstream: UpstreamConfig{
			BaseURL:   "http://localhost:3000/api",
			Timeout:   15 * time.Second,
			RateLimit: 20,
			Burst:     40,
		},
		Cache: CacheConfig{
			Backend:   CacheSQLite,
			Path:      "mysked.sqlite3",
			RedisAddr: "localhost:6379",
			TTL:       60 * time.Second,
		},
		Auth: AuthConfig{LoginURL: "/login"},
		Assets: AssetsConfig{
			ThumbnailSize: 256,
		},
		Timeline: TimelineConfig{
			PageSize: 25,
			Entities: []string{"vehicles", "sites", "employees"},
			Location: "America/Vancouver",
		},
		Tracing: TracingConfig{
			Endpoint:    "localhost:4317",
			Insecure:    true,
			SampleRate:  1,
			ServiceName: "mysked",
		},
	}
}

// Load reads config from path, or returns defaults if the file doesn't
// exist. Environment overrides are applied either way.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("reading config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvJWTSecret); v != "" {
		c.Auth.JWTSecret = v
	}
	if v := os.Getenv(EnvUpstreamURL); v != "" {
		c.Upstream.BaseURL = v
	}
	if v := os.Getenv(EnvWebhookKeyHash); v != "" {
		c.Auth.WebhookKeyHash = v
	}
}

// Validate checks values that have no sensible fallback.
func (c *Config) Validate() error {
	if c.Upstream.BaseURL == "" {
		return errors.New("upstream.base_url is required")
	}
	switch c.Cache.Backend {
	case CacheSQLite, CacheRedis, CacheNone:
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	if c.Cache.Backend != CacheNone && c.Cache.TTL < time.Second {
		return fmt.Errorf("cache.ttl must be at least 1s, got %s", c.Cache.TTL)
	}
	if c.Timeline.PageSize <= 0 {
		return fmt.Errorf("timeline.page_size must be positive, got %d", c.Timeline.PageSize)
	}
	if len(c.Timeline.Entities) == 0 {
		return errors.New("timeline.entities must not be empty")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location returns the configured time zone for date comparisons.
func (c *Config) Location() (*time.Location, error) {
	if c.Timeline.Location == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timeline.Location)
	if err != nil {
		return nil, fmt.Errorf("loading timeline.location: %w", err)
	}
	return loc, nil
}

// HasEntity reports whether name is one of the configured entities.
func (c *Config) HasEntity(name string) bool {
	for _, e := range c.Timeline.Entities {
		if strings.EqualFold(e, name) {
			return true
		}
	}
	return false
}

// Save writes the config to path.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
