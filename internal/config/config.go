// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

// Package config provides layered configuration loading for StreamX.
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables
//   - Config file (config.yaml)
//   - Built-in defaults
package config

import (
	"fmt"
	"time"
)

// Config is the root application configuration.
type Config struct {
	Server        ServerConfig        `koanf:"server"`
	Database      DatabaseConfig      `koanf:"database"`
	Security      SecurityConfig      `koanf:"security"`
	Stripe        StripeConfig        `koanf:"stripe"`
	TMDB          TMDBConfig          `koanf:"tmdb"`
	Logging       LoggingConfig       `koanf:"logging"`
	Notifications NotificationsConfig `koanf:"notifications"`
	Recommend     RecommendConfig     `koanf:"recommend"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port" validate:"min=1,max=65535"`
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment" validate:"oneof=development production"`

	// ClientURL is the browser front end's origin, used to build the
	// checkout success/cancel redirect URLs.
	ClientURL string `koanf:"client_url"`
}

// DatabaseConfig holds DuckDB settings.
type DatabaseConfig struct {
	// Path is the database file path. ":memory:" opens an in-memory
	// database (used by tests).
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"`
}

// SecurityConfig holds authentication and transport security settings.
type SecurityConfig struct {
	JWTSecret       string        `koanf:"jwt_secret"`
	TokenExpiry     time.Duration `koanf:"token_expiry"`
	BcryptCost      int           `koanf:"bcrypt_cost" validate:"min=4,max=31"`
	RateLimitReqs   int           `koanf:"rate_limit_reqs"`
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`
	CORSOrigins     []string      `koanf:"cors_origins"`
}

// StripeConfig holds payment provider settings.
type StripeConfig struct {
	SecretKey string `koanf:"secret_key"`

	// BaseURL is overridable so tests can point the client at a fake.
	BaseURL string        `koanf:"base_url"`
	Timeout time.Duration `koanf:"timeout"`
}

// TMDBConfig holds movie metadata provider settings.
type TMDBConfig struct {
	APIKey   string        `koanf:"api_key"`
	BaseURL  string        `koanf:"base_url"`
	ImageURL string        `koanf:"image_url"`
	Timeout  time.Duration `koanf:"timeout"`

	// CacheTTL is how long assembled movie reels are served from the
	// in-memory cache before refetching the popular list.
	CacheTTL time.Duration `koanf:"cache_ttl"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error fatal"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// NotificationsConfig holds notification retention and listing settings.
type NotificationsConfig struct {
	// TTL is how long notifications are kept before the sweeper deletes
	// them. The source system expires them after 30 days.
	TTL           time.Duration `koanf:"ttl"`
	SweepInterval time.Duration `koanf:"sweep_interval"`
	ListLimit     int           `koanf:"list_limit" validate:"min=1,max=500"`
}

// RecommendConfig holds recommendation scoring settings.
type RecommendConfig struct {
	Limit       int `koanf:"limit" validate:"min=1,max=100"`
	LikeWeight  int `koanf:"like_weight"`
	WatchWeight int `koanf:"watch_weight"`
}

// defaultConfig returns a Config with all default values. Defaults are
// applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:        "0.0.0.0",
			Port:        8080,
			Timeout:     30 * time.Second,
			Environment: "development",
			ClientURL:   "http://localhost:3000",
		},
		Database: DatabaseConfig{
			Path:      "/data/streamx.duckdb",
			MaxMemory: "1GB",
			Threads:   0, // 0 = runtime.NumCPU()
		},
		Security: SecurityConfig{
			JWTSecret:       "",
			TokenExpiry:     30 * 24 * time.Hour,
			BcryptCost:      10,
			RateLimitReqs:   100,
			RateLimitWindow: time.Minute,
			CORSOrigins:     []string{"*"},
		},
		Stripe: StripeConfig{
			SecretKey: "",
			BaseURL:   "https://api.stripe.com",
			Timeout:   10 * time.Second,
		},
		TMDB: TMDBConfig{
			APIKey:   "",
			BaseURL:  "https://api.themoviedb.org/3",
			ImageURL: "https://image.tmdb.org/t/p",
			Timeout:  10 * time.Second,
			CacheTTL: 15 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Notifications: NotificationsConfig{
			TTL:           30 * 24 * time.Hour,
			SweepInterval: time.Hour,
			ListLimit:     50,
		},
		Recommend: RecommendConfig{
			Limit:       20,
			LikeWeight:  5,
			WatchWeight: 3,
		},
	}
}

// Validate checks configuration invariants that cannot be expressed as
// struct tags alone.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Environment != "development" && c.Server.Environment != "production" {
		return fmt.Errorf("invalid environment: %q (must be development or production)", c.Server.Environment)
	}
	if c.Security.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.IsProduction() && len(c.Security.JWTSecret) < 32 {
		return fmt.Errorf("JWT_SECRET must be at least 32 characters in production")
	}
	if c.Notifications.TTL <= 0 {
		return fmt.Errorf("notification TTL must be positive")
	}
	if c.Notifications.SweepInterval <= 0 {
		return fmt.Errorf("notification sweep interval must be positive")
	}
	if c.Recommend.Limit <= 0 {
		return fmt.Errorf("recommendation limit must be positive")
	}
	return nil
}

// IsProduction reports whether the server runs in production mode.
// Production suppresses error detail in HTTP responses.
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}
