// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type RuntimeConfig struct {
	Dev bool
}

type ServerConfig struct {
	Port    int    `yaml:"port"`
	BaseURL string `yaml:"base_url"` // public origin, used to build gateway callback URLs
}

type LogConfig struct {
	Level    string `yaml:"level"`    // trace|debug|info|warn|error
	Format   string `yaml:"format"`   // json|console
	Sampling bool   `yaml:"sampling"` // enable sampling in prod
}

type DatabaseConfig struct {
	URL string `yaml:"url"`
}

type RedisConfig struct {
	URL      string        `yaml:"url"`
	Password string        `yaml:"password"`
	DB       int           `yaml:"db"`
	TTL      time.Duration `yaml:"ttl"`
}

type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

type ZibalConfig struct {
	MerchantCode string `yaml:"merchant_code"`
}

type BitPayConfig struct {
	APIToken string `yaml:"api_token"`
}

type PaymentConfig struct {
	Zibal  ZibalConfig  `yaml:"zibal"`
	BitPay BitPayConfig `yaml:"bitpay"`
}

// SiteConfig holds the front-end pages the verifier redirects back to.
type SiteConfig struct {
	DocumentsReturnURL string `yaml:"documents_return_url"`
	CalendarReturnURL  string `yaml:"calendar_return_url"`
}

// PricingConfig is the server-side price table in Tomans. Client-supplied
// amounts are never trusted; these are the only prices that exist.
type PricingConfig struct {
	DocumentToman int64 `yaml:"document_toman"`
	CalendarToman int64 `yaml:"calendar_toman"`
}

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Log      LogConfig      `yaml:"log"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	Auth     AuthConfig     `yaml:"auth"`
	Payment  PaymentConfig  `yaml:"payment"`
	Site     SiteConfig     `yaml:"site"`
	Pricing  PricingConfig  `yaml:"pricing"`

	Runtime RuntimeConfig `yaml:"-"`
}

func LoadConfig(path string, dev bool) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	// defaults
	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Redis.TTL <= 0 {
		cfg.Redis.TTL = time.Hour
	}
	if cfg.Pricing.DocumentToman <= 0 {
		cfg.Pricing.DocumentToman = 100000
	}
	if cfg.Pricing.CalendarToman <= 0 {
		cfg.Pricing.CalendarToman = 50000
	}

	// Minimal validation
	if cfg.Database.URL == "" {
		return nil, errors.New("database.url is required")
	}
	if cfg.Auth.JWTSecret == "" {
		return nil, errors.New("auth.jwt_secret is required")
	}
	if cfg.Server.BaseURL == "" {
		return nil, errors.New("server.base_url is required")
	}
	if cfg.Payment.Zibal.MerchantCode == "" && cfg.Payment.BitPay.APIToken == "" {
		return nil, errors.New("at least one payment gateway must be configured")
	}
	if cfg.Site.DocumentsReturnURL == "" || cfg.Site.CalendarReturnURL == "" {
		return nil, errors.New("site.documents_return_url and site.calendar_return_url are required")
	}

	cfg.Runtime.Dev = dev
	return &cfg, nil
}
