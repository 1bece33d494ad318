package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Cart     CartConfig     `mapstructure:"cart"`
	Notifier NotifierConfig `mapstructure:"notifier"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

type ServerConfig struct {
	Addr            string `mapstructure:"addr"`
	LogLevel        string `mapstructure:"log_level"`
	RateLimit       int    `mapstructure:"rate_limit"`
	RateLimitWindow int    `mapstructure:"rate_limit_window_seconds"`
}

// CatalogConfig selects and tunes the upstream catalog source.
type CatalogConfig struct {
	Source            string `mapstructure:"source"` // "http" or "postgres"
	BaseURL           string `mapstructure:"base_url"`
	DSN               string `mapstructure:"dsn"`
	StaleAfterSeconds int    `mapstructure:"stale_after_seconds"`
	RetryDelayMillis  int    `mapstructure:"retry_delay_millis"`
}

func (c CatalogConfig) StaleAfter() time.Duration {
	return time.Duration(c.StaleAfterSeconds) * time.Second
}

func (c CatalogConfig) RetryDelay() time.Duration {
	return time.Duration(c.RetryDelayMillis) * time.Millisecond
}

type CartConfig struct {
	BaseURL string `mapstructure:"base_url"`
}

type NotifierConfig struct {
	WebhookURL string `mapstructure:"webhook_url"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Token   string `mapstructure:"token"`
}

// Load reads config.yaml from the working directory if present and applies
// environment overrides (SERVER_ADDR, CATALOG_BASE_URL, ...).
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	setDefaults()

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Catalog.Source {
	case "http":
		if c.Catalog.BaseURL == "" {
			return fmt.Errorf("catalog.base_url is required for http source")
		}
	case "postgres":
		if c.Catalog.DSN == "" {
			return fmt.Errorf("catalog.dsn is required for postgres source")
		}
	default:
		return fmt.Errorf("unknown catalog.source %q", c.Catalog.Source)
	}
	return nil
}

func setDefaults() {
	viper.SetDefault("server.addr", ":8080")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("server.rate_limit", 100)
	viper.SetDefault("server.rate_limit_window_seconds", 60)

	viper.SetDefault("catalog.source", "http")
	viper.SetDefault("catalog.base_url", "http://localhost:8082")
	viper.SetDefault("catalog.stale_after_seconds", 300)
	viper.SetDefault("catalog.retry_delay_millis", 1000)

	viper.SetDefault("cart.base_url", "")
	viper.SetDefault("notifier.webhook_url", "")

	viper.SetDefault("metrics.enabled", false)
	viper.SetDefault("metrics.token", "")
}
