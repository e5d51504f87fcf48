// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

package config

import (
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := defaultConfig()

	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Notifications.TTL != 30*24*time.Hour {
		t.Errorf("expected 30 day notification TTL, got %v", cfg.Notifications.TTL)
	}
	if cfg.Notifications.ListLimit != 50 {
		t.Errorf("expected list limit 50, got %d", cfg.Notifications.ListLimit)
	}
	if cfg.Recommend.Limit != 20 {
		t.Errorf("expected recommendation limit 20, got %d", cfg.Recommend.Limit)
	}
	if cfg.Recommend.LikeWeight != 5 || cfg.Recommend.WatchWeight != 3 {
		t.Errorf("expected like/watch weights 5/3, got %d/%d",
			cfg.Recommend.LikeWeight, cfg.Recommend.WatchWeight)
	}
	if cfg.Security.TokenExpiry != 30*24*time.Hour {
		t.Errorf("expected 30 day token expiry, got %v", cfg.Security.TokenExpiry)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Security.JWTSecret = "test-secret"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid defaults",
			mutate: func(*Config) {},
		},
		{
			name:    "missing jwt secret",
			mutate:  func(c *Config) { c.Security.JWTSecret = "" },
			wantErr: "JWT_SECRET",
		},
		{
			name: "short jwt secret in production",
			mutate: func(c *Config) {
				c.Server.Environment = "production"
				c.Security.JWTSecret = "short"
			},
			wantErr: "32 characters",
		},
		{
			name: "short jwt secret allowed in development",
			mutate: func(c *Config) {
				c.Security.JWTSecret = "short"
			},
		},
		{
			name:    "invalid port",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "port",
		},
		{
			name:    "invalid environment",
			mutate:  func(c *Config) { c.Server.Environment = "staging" },
			wantErr: "environment",
		},
		{
			name:    "zero notification ttl",
			mutate:  func(c *Config) { c.Notifications.TTL = 0 },
			wantErr: "TTL",
		},
		{
			name:    "zero recommendation limit",
			mutate:  func(c *Config) { c.Recommend.Limit = 0 },
			wantErr: "recommendation limit",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("expected no error, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestEnvTransformFunc(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  string
		want string
	}{
		{"JWT_SECRET", "security.jwt_secret"},
		{"STRIPE_SECRET_KEY", "stripe.secret_key"},
		{"TMDB_API_KEY", "tmdb.api_key"},
		{"LOG_LEVEL", "logging.level"},
		{"LOG_FORMAT", "logging.format"},
		{"SERVER_PORT", "server.port"},
		{"HTTP_PORT", "server.port"},
		{"CLIENT_URL", "server.client_url"},
		{"DUCKDB_PATH", "database.path"},
		{"NOTIFICATIONS_TTL", "notifications.ttl"},
		{"RECOMMEND_LIMIT", "recommend.limit"},
		{"PATH", ""},
		{"HOME", ""},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := envTransformFunc(tt.key); got != tt.want {
				t.Errorf("envTransformFunc(%q) = %q, want %q", tt.key, got, tt.want)
			}
		})
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("SERVER_PORT", "9000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("CORS_ORIGINS", "https://a.example.com, https://b.example.com")
	t.Setenv(ConfigPathEnvVar, "/nonexistent/config.yaml")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Security.JWTSecret != "env-secret" {
		t.Errorf("expected jwt secret from env, got %q", cfg.Security.JWTSecret)
	}
	if cfg.Server.Port != 9000 {
		t.Errorf("expected port 9000, got %d", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("expected debug level, got %q", cfg.Logging.Level)
	}
	want := []string{"https://a.example.com", "https://b.example.com"}
	if len(cfg.Security.CORSOrigins) != len(want) {
		t.Fatalf("expected %d CORS origins, got %v", len(want), cfg.Security.CORSOrigins)
	}
	for i, origin := range want {
		if cfg.Security.CORSOrigins[i] != origin {
			t.Errorf("CORS origin %d: expected %q, got %q", i, origin, cfg.Security.CORSOrigins[i])
		}
	}
}
