package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Hermes   HermesConfig   `yaml:"hermes"`
	Trials   TrialsConfig   `yaml:"trials"`
	Plot     PlotConfig     `yaml:"plot"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port               int    `yaml:"port"`
	MetricsPort        int    `yaml:"metrics_port"`
	AdminToken         string `yaml:"admin_token"`
	RateLimitPerMinute int    `yaml:"rate_limit_per_minute"`
}

type DatabaseConfig struct {
	URL         string `yaml:"url"`
	AutoMigrate bool   `yaml:"auto_migrate"`
}

type HermesConfig struct {
	URL string `yaml:"url"`
}

// TrialsConfig controls how the ingestor treats running trials.
type TrialsConfig struct {
	StaleTimeoutMs int `yaml:"stale_timeout_ms"`
	ReapIntervalMs int `yaml:"reap_interval_ms"`
}

type PlotConfig struct {
	FrontColor     string `yaml:"front_color"`
	DominatedColor string `yaml:"dominated_color"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func (c *Config) StaleTimeout() time.Duration {
	return time.Duration(c.Trials.StaleTimeoutMs) * time.Millisecond
}

func (c *Config) ReapInterval() time.Duration {
	return time.Duration(c.Trials.ReapIntervalMs) * time.Millisecond
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:               8700,
			MetricsPort:        8701,
			RateLimitPerMinute: 120,
		},
		Database: DatabaseConfig{
			AutoMigrate: true,
		},
		Hermes: HermesConfig{
			URL: "nats://localhost:4222",
		},
		Trials: TrialsConfig{
			StaleTimeoutMs: 3600000,
			ReapIntervalMs: 30000,
		},
		Plot: PlotConfig{
			FrontColor:     "#1f77b4",
			DominatedColor: "#cccccc",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.MetricsPort <= 0 {
		return fmt.Errorf("invalid config: ports must be positive")
	}
	if c.Server.RateLimitPerMinute <= 0 {
		return fmt.Errorf("invalid config: rate_limit_per_minute must be positive")
	}
	if c.Trials.StaleTimeoutMs <= 0 || c.Trials.ReapIntervalMs <= 0 {
		return fmt.Errorf("invalid config: trial timeouts must be positive")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "json", "text":
	default:
		return fmt.Errorf("invalid config: unknown log format %q", c.Logging.Format)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("FRONTIER_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("FRONTIER_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("FRONTIER_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("FRONTIER_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.RateLimitPerMinute = n
		}
	}
	if v := os.Getenv("FRONTIER_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("FRONTIER_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("FRONTIER_STALE_TRIAL_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Trials.StaleTimeoutMs = n
		}
	}
	if v := os.Getenv("FRONTIER_REAP_INTERVAL_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Trials.ReapIntervalMs = n
		}
	}
	if v := os.Getenv("FRONTIER_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FRONTIER_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
