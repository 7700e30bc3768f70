// Package config loads service settings from defaults, an optional config
// file and the environment. Environment names are the dotted keys upper-cased
// with "_" separators, e.g. backend.primary_url -> BACKEND_PRIMARY_URL.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App      AppConfig      `mapstructure:"app"`
	HTTP     HTTPConfig     `mapstructure:"http"`
	Backend  BackendConfig  `mapstructure:"backend"`
	CORS     CORSConfig     `mapstructure:"cors"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Database DatabaseConfig `mapstructure:"database"`
	Session  SessionConfig  `mapstructure:"session"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Sendgrid SendgridConfig `mapstructure:"sendgrid"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// BackendConfig lists the commerce API base URLs. Auth routes try
// PrimaryURL then FallbackURL; every other route uses PrimaryURL only.
type BackendConfig struct {
	PrimaryURL  string        `mapstructure:"primary_url"`
	FallbackURL string        `mapstructure:"fallback_url"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

type CORSConfig struct {
	Origin string `mapstructure:"origin"`
}

type StorageConfig struct {
	Driver string        `mapstructure:"driver"`
	TTL    time.Duration `mapstructure:"ttl"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type DatabaseConfig struct {
	URL string `mapstructure:"url"`
}

type SessionConfig struct {
	TTL    time.Duration `mapstructure:"ttl"`
	Cookie string        `mapstructure:"cookie"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File enables a rotating file sink next to stdout when set.
	File string `mapstructure:"file"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

type SendgridConfig struct {
	APIKey    string `mapstructure:"api_key"`
	FromEmail string `mapstructure:"from_email"`
	FromName  string `mapstructure:"from_name"`
}

// Production reports whether cookies should be marked Secure.
func (c *Config) Production() bool { return c.App.Env == "production" }

// BackendURLs returns the auth fallback list, primary first.
func (c *Config) BackendURLs() []string {
	urls := []string{c.Backend.PrimaryURL}
	if c.Backend.FallbackURL != "" && c.Backend.FallbackURL != c.Backend.PrimaryURL {
		urls = append(urls, c.Backend.FallbackURL)
	}
	return urls
}

// Load reads path when non-empty, then applies environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(c.Backend.PrimaryURL); err != nil {
		return fmt.Errorf("backend.primary_url: %w", err)
	}
	if c.Backend.FallbackURL != "" {
		if _, err := url.ParseRequestURI(c.Backend.FallbackURL); err != nil {
			return fmt.Errorf("backend.fallback_url: %w", err)
		}
	}
	if c.Backend.Timeout <= 0 {
		return errors.New("backend.timeout must be positive")
	}
	if c.Session.TTL <= 0 {
		return errors.New("session.ttl must be positive")
	}
	if c.Session.Cookie == "" {
		return errors.New("session.cookie is required")
	}
	switch c.Storage.Driver {
	case "memory":
	case "redis":
		if c.Redis.URL == "" {
			return errors.New("redis.url is required for the redis storage driver")
		}
	case "postgres":
		if c.Database.URL == "" {
			return errors.New("database.url is required for the postgres storage driver")
		}
	default:
		return fmt.Errorf("storage.driver %q is not one of memory, redis, postgres", c.Storage.Driver)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")

	v.SetDefault("http.addr", ":8080")
	v.SetDefault("http.read_timeout", 15*time.Second)
	v.SetDefault("http.write_timeout", 30*time.Second)
	v.SetDefault("http.shutdown_timeout", 10*time.Second)

	v.SetDefault("backend.primary_url", "https://shopdrf-production.up.railway.app")
	v.SetDefault("backend.fallback_url", "http://127.0.0.1:8000")
	v.SetDefault("backend.timeout", 10*time.Second)

	v.SetDefault("cors.origin", "http://localhost:3000")

	v.SetDefault("storage.driver", "memory")
	v.SetDefault("storage.ttl", 30*24*time.Hour)
	v.SetDefault("redis.url", "")
	v.SetDefault("database.url", "")

	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("session.cookie", "sf_client")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.file", "")

	v.SetDefault("metrics.addr", ":9090")

	v.SetDefault("sendgrid.api_key", "")
	v.SetDefault("sendgrid.from_email", "donotreply@storefront.local")
	v.SetDefault("sendgrid.from_name", "Storefront")
}
