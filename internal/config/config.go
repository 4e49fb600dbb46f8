package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

var validate = validator.New()

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Hermes   HermesConfig   `yaml:"hermes"`
	Relay    RelayConfig    `yaml:"relay"`
	History  HistoryConfig  `yaml:"history"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port" validate:"min=1,max=65535"`
	MetricsPort int    `yaml:"metrics_port" validate:"min=1,max=65535,nefield=Port"`
	AdminToken  string `yaml:"admin_token"`
	RateLimit   int    `yaml:"rate_limit" validate:"min=0"`
}

// DatabaseConfig selects the chart store. URL is a Postgres connection string
// for the postgres driver and a file path for sqlite; memory ignores it.
type DatabaseConfig struct {
	Driver string `yaml:"driver" validate:"oneof=postgres sqlite memory"`
	URL    string `yaml:"url" validate:"required_unless=Driver memory"`
}

// HermesConfig points at NATS. An empty URL keeps events local to this
// instance.
type HermesConfig struct {
	URL string `yaml:"url"`
}

type RelayConfig struct {
	KeepaliveMs    int      `yaml:"keepalive_ms" validate:"min=0"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type HistoryConfig struct {
	Depth int `yaml:"depth" validate:"min=1"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=json text"`
}

func (c *Config) Keepalive() time.Duration {
	return time.Duration(c.Relay.KeepaliveMs) * time.Millisecond
}

// Validate checks field constraints after file and environment overrides.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
			RateLimit:   120,
		},
		Database: DatabaseConfig{
			Driver: "sqlite",
			URL:    "valuecharts.db",
		},
		Relay: RelayConfig{
			KeepaliveMs: 30000,
		},
		History: HistoryConfig{
			Depth: 50,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

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

func applyEnv(cfg *Config) {
	if v := os.Getenv("VALUECHARTS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("VALUECHARTS_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("VALUECHARTS_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("VALUECHARTS_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("VALUECHARTS_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("VALUECHARTS_HERMES_URL"); v != "" {
		cfg.Hermes.URL = v
	}
	if v := os.Getenv("VALUECHARTS_KEEPALIVE_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Relay.KeepaliveMs = n
		}
	}
	if v := os.Getenv("VALUECHARTS_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Relay.AllowedOrigins = origins
	}
	if v := os.Getenv("VALUECHARTS_HISTORY_DEPTH"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.History.Depth = n
		}
	}
	if v := os.Getenv("VALUECHARTS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("VALUECHARTS_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
