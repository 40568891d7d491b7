package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"

	"ecommerce-price-tracker/internal/domain"
	"ecommerce-price-tracker/internal/pricing"
)

// Config is the application configuration. Values come from an optional YAML
// file and are overridden by environment variables.
type Config struct {
	Env        string     `yaml:"env" env:"APP_ENV" env-default:"local"`
	Postgres   Postgres   `yaml:"postgres"`
	ClickHouse ClickHouse `yaml:"clickhouse"`
	Catalog    Catalog    `yaml:"catalog"`
	Pricing    Pricing    `yaml:"pricing"`
	Metrics    Metrics    `yaml:"metrics"`
}

type Postgres struct {
	DSN string `yaml:"dsn" env:"POSTGRES_DSN"`
}

type ClickHouse struct {
	DSN string `yaml:"dsn" env:"CLICKHOUSE_DSN"`
}

type Catalog struct {
	URL        string        `yaml:"url" env:"CATALOG_URL" env-default:"https://fakestoreapi.com/products"`
	Timeout    time.Duration `yaml:"timeout" env:"CATALOG_TIMEOUT" env-default:"15s"`
	MaxRetries int           `yaml:"max_retries" env:"CATALOG_MAX_RETRIES" env-default:"3"`
	UserAgent  string        `yaml:"user_agent" env:"CATALOG_USER_AGENT" env-default:"ecommerce-price-tracker/1.0"`
}

type Pricing struct {
	Mode     string  `yaml:"mode" env:"PRICING_MODE" env-default:"synthetic"`
	NoiseMin float64 `yaml:"noise_min" env:"PRICING_NOISE_MIN" env-default:"-0.03"`
	NoiseMax float64 `yaml:"noise_max" env:"PRICING_NOISE_MAX" env-default:"0.03"`
	Seed     uint64  `yaml:"seed" env:"PRICING_SEED"` // 0 seeds from the clock
}

type Metrics struct {
	Addr      string `yaml:"addr" env:"METRICS_ADDR"`
	Namespace string `yaml:"namespace" env:"METRICS_NAMESPACE" env-default:"price_tracker"`
}

// Load reads .env (if present) into the environment, then builds the config
// from path and the environment. An empty path reads the environment only.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks values that cleanenv cannot.
func (c *Config) Validate() error {
	if _, err := domain.ParsePricingMode(c.Pricing.Mode); err != nil {
		return err
	}
	if c.Pricing.NoiseMin > c.Pricing.NoiseMax {
		return &domain.ConfigurationError{Field: "pricing.noise_min", Reason: "must not exceed pricing.noise_max"}
	}
	if c.Catalog.URL == "" {
		return &domain.ConfigurationError{Field: "catalog.url", Reason: "must not be empty"}
	}
	if c.Catalog.Timeout <= 0 {
		return &domain.ConfigurationError{Field: "catalog.timeout", Reason: "must be positive"}
	}
	if c.Catalog.MaxRetries < 0 {
		return &domain.ConfigurationError{Field: "catalog.max_retries", Reason: "must be >= 0"}
	}
	return nil
}

// PricingMode returns the validated pricing mode.
func (p Pricing) PricingMode() domain.PricingMode {
	return domain.PricingMode(p.Mode)
}

// NoiseRange returns the configured ambient noise bounds.
func (p Pricing) NoiseRange() pricing.Range {
	return pricing.Range{Min: p.NoiseMin, Max: p.NoiseMax}
}
