// Package config loads application configuration from an optional YAML
// file with environment-variable overrides. Env vars always win, so a
// deployment can ship one config file and tune per instance.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"stock-analyzerv1/internal/analyzer"
	"stock-analyzerv1/internal/backtest"
	"stock-analyzerv1/internal/model"
	"stock-analyzerv1/internal/pairs"
)

// Config holds all application configuration.
type Config struct {
	// Universe is the list of tickers scanned by the screener and the
	// pairs scan.
	Universe []string `yaml:"universe"`

	// LookbackDays is how much daily history to request per ticker.
	LookbackDays int `yaml:"lookback_days"`

	// Workers bounds the screener's concurrent per-ticker analyses.
	Workers int `yaml:"workers"`

	// ScanSchedule is a cron expression for the daily scan; empty
	// disables the scheduler.
	ScanSchedule string `yaml:"scan_schedule"`

	Analyzer analyzer.Config `yaml:"analyzer"`
	Backtest backtest.Config `yaml:"backtest"`
	Pairs    pairs.Options   `yaml:"pairs"`

	// Infrastructure
	SQLitePath    string `yaml:"sqlite_path"`
	RedisAddr     string `yaml:"redis_addr"`
	RedisPassword string `yaml:"redis_password"`
	CacheTTLHours int    `yaml:"cache_ttl_hours"`
	MetricsAddr   string `yaml:"metrics_addr"`
	GatewayAddr   string `yaml:"gateway_addr"`

	// Notifications
	WebhookURL     string `yaml:"webhook_url"`
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID string `yaml:"telegram_chat_id"`
}

// Default returns the baseline configuration before file and env
// overrides.
func Default() *Config {
	return &Config{
		Universe:      []string{"AAPL", "MSFT", "GOOG"},
		LookbackDays:  365,
		Workers:       4,
		ScanSchedule:  "0 18 * * MON-FRI",
		Analyzer:      analyzer.DefaultConfig(),
		Backtest:      backtest.DefaultConfig(),
		Pairs:         pairs.DefaultOptions(),
		SQLitePath:    "data/bars.db",
		RedisAddr:     "localhost:6379",
		CacheTTLHours: 12,
		MetricsAddr:   ":9090",
		GatewayAddr:   ":8080",
	}
}

// Load builds the configuration: defaults, then the YAML file at path (if
// path is non-empty the file must exist), then env overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overlays environment variables onto the loaded values.
func (c *Config) applyEnv() {
	if v := os.Getenv("UNIVERSE"); v != "" {
		c.Universe = splitList(v)
	}
	c.LookbackDays = envInt("LOOKBACK_DAYS", c.LookbackDays)
	c.Workers = envInt("WORKERS", c.Workers)
	c.ScanSchedule = envStr("SCAN_SCHEDULE", c.ScanSchedule)

	c.SQLitePath = envStr("SQLITE_PATH", c.SQLitePath)
	c.RedisAddr = envStr("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = envStr("REDIS_PASSWORD", c.RedisPassword)
	c.CacheTTLHours = envInt("CACHE_TTL_HOURS", c.CacheTTLHours)
	c.MetricsAddr = envStr("METRICS_ADDR", c.MetricsAddr)
	c.GatewayAddr = envStr("GATEWAY_ADDR", c.GatewayAddr)

	c.WebhookURL = envStr("WEBHOOK_URL", c.WebhookURL)
	c.TelegramToken = envStr("TELEGRAM_TOKEN", c.TelegramToken)
	c.TelegramChatID = envStr("TELEGRAM_CHAT_ID", c.TelegramChatID)
}

// Validate rejects configurations no component could run with.
func (c *Config) Validate() error {
	if c.LookbackDays <= 0 {
		return fmt.Errorf("%w: lookback_days must be positive", model.ErrInvalidConfig)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive", model.ErrInvalidConfig)
	}
	if c.SQLitePath == "" {
		return fmt.Errorf("%w: sqlite_path must be set", model.ErrInvalidConfig)
	}
	if err := c.Analyzer.Validate(); err != nil {
		return err
	}
	return c.Pairs.Validate()
}

func splitList(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
