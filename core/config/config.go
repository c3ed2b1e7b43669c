package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	coredatabase "github.com/m3rciful/gastobot/core/database"
	corelogger "github.com/m3rciful/gastobot/core/logger"
)

// ServerConfig holds webhook listener settings for the WhatsApp channel.
type ServerConfig struct {
	Listen string `yaml:"listen" envconfig:"HTTP_LISTEN"`
	Port   int    `yaml:"port" envconfig:"HTTP_PORT"`
	// WebhookPath is the route the channel provider posts inbound messages to.
	WebhookPath string `yaml:"webhook_path" envconfig:"WEBHOOK_PATH"`
}

// RateLimitConfig holds settings for per-sender inbound rate limiting.
type RateLimitConfig struct {
	IntervalMS int `yaml:"interval_ms" envconfig:"RATE_LIMIT_INTERVAL_MS"`
}

// SessionConfig controls conversation session lifetime.
type SessionConfig struct {
	// TTLMinutes evicts sessions idle for longer than this. The original
	// deployment never expired sessions, so abandoned flows stayed resident.
	TTLMinutes int `yaml:"ttl_minutes" envconfig:"SESSION_TTL_MINUTES"`
}

// AnalyticsConfig carries tunables for the deep-analysis pass.
type AnalyticsConfig struct {
	// USDToPENRate converts USD expenses into the PEN reference currency.
	// Configuration rather than a literal so a rate change does not require
	// a rebuild; historical windows are still evaluated at the current rate.
	USDToPENRate float64 `yaml:"usd_to_pen_rate" envconfig:"USD_TO_PEN_RATE"`
	// Timezone is the sender-local zone used to bucket expenses by day
	// and to render dates in replies.
	Timezone string `yaml:"timezone" envconfig:"DISPLAY_TIMEZONE"`
}

// Config aggregates the full application configuration.
type Config struct {
	Server    ServerConfig        `yaml:"server"`
	Database  coredatabase.Config `yaml:"database"`
	Logging   corelogger.Config   `yaml:"logging"`
	RateLimit RateLimitConfig     `yaml:"rate_limit"`
	Session   SessionConfig       `yaml:"session"`
	Analytics AnalyticsConfig     `yaml:"analytics"`
}

// SessionTTL returns the configured session TTL as a duration.
func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.Session.TTLMinutes) * time.Minute
}

// Load reads configuration from a YAML file and environment variables.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}

	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize performs basic validation of required configuration fields and adjusts defaults.
func Normalize(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("nil config")
	}

	if strings.TrimSpace(cfg.Server.Listen) == "" {
		cfg.Server.Listen = "0.0.0.0"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 3000
	}
	if cfg.Server.Port < 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	path := strings.TrimSpace(cfg.Server.WebhookPath)
	if path == "" {
		path = "/whatsapp"
	}
	if !strings.HasPrefix(path, "/") {
		return fmt.Errorf("server.webhook_path must start with '/'")
	}
	cfg.Server.WebhookPath = path

	if cfg.RateLimit.IntervalMS < 0 {
		return fmt.Errorf("rate_limit.interval_ms must be >= 0")
	}

	if cfg.Session.TTLMinutes == 0 {
		cfg.Session.TTLMinutes = 30
	}
	if cfg.Session.TTLMinutes < 0 {
		return fmt.Errorf("session.ttl_minutes must be > 0")
	}

	if cfg.Analytics.USDToPENRate == 0 {
		cfg.Analytics.USDToPENRate = 3.8
	}
	if cfg.Analytics.USDToPENRate < 0 {
		return fmt.Errorf("analytics.usd_to_pen_rate must be > 0")
	}
	if strings.TrimSpace(cfg.Analytics.Timezone) == "" {
		cfg.Analytics.Timezone = "America/Lima"
	}
	if _, err := time.LoadLocation(cfg.Analytics.Timezone); err != nil {
		return fmt.Errorf("invalid analytics.timezone %q: %w", cfg.Analytics.Timezone, err)
	}

	if strings.TrimSpace(cfg.Database.Name) == "" {
		return fmt.Errorf("database.name is required")
	}
	if strings.TrimSpace(cfg.Database.Host) == "" {
		cfg.Database.Host = "localhost"
	}
	if strings.TrimSpace(cfg.Database.Port) == "" {
		cfg.Database.Port = "5432"
	}
	if strings.TrimSpace(cfg.Database.SSLMode) == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxConnections <= 0 {
		cfg.Database.MaxConnections = 10
	}
	if strings.TrimSpace(cfg.Database.MigrationsDir) == "" {
		cfg.Database.MigrationsDir = "migrations"
	}

	return nil
}
