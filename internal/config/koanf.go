// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists where config files are searched, in order.
// The first file found wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/streamx/config.yaml",
	"/etc/streamx/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load builds the application configuration from layered sources:
//
//  1. Defaults: built-in sensible defaults
//  2. Config file: optional YAML file (if present)
//  3. Environment variables: override any setting
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	envProvider := env.Provider("", ".", envTransformFunc)
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths lists config paths parsed as comma-separated slices
// when supplied via environment variables.
var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields converts comma-separated string values to slices for
// known slice fields. Env vars arrive as strings but the config expects
// slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envAliases maps flat legacy-style environment variable names to nested
// koanf config paths.
var envAliases = map[string]string{
	"HTTP_PORT":         "server.port",
	"HTTP_HOST":         "server.host",
	"ENVIRONMENT":       "server.environment",
	"CLIENT_URL":        "server.client_url",
	"DUCKDB_PATH":       "database.path",
	"JWT_SECRET":        "security.jwt_secret",
	"TOKEN_EXPIRY":      "security.token_expiry",
	"BCRYPT_COST":       "security.bcrypt_cost",
	"CORS_ORIGINS":      "security.cors_origins",
	"RATE_LIMIT_REQS":   "security.rate_limit_reqs",
	"RATE_LIMIT_WINDOW": "security.rate_limit_window",
	"STRIPE_SECRET_KEY": "stripe.secret_key",
	"TMDB_API_KEY":      "tmdb.api_key",
}

// envPrefixes maps environment variable prefixes to config sections.
var envPrefixes = map[string]string{
	"SERVER_":        "server.",
	"DATABASE_":      "database.",
	"SECURITY_":      "security.",
	"STRIPE_":        "stripe.",
	"TMDB_":          "tmdb.",
	"LOG_":           "logging.",
	"NOTIFICATIONS_": "notifications.",
	"RECOMMEND_":     "recommend.",
}

// envTransformFunc maps environment variable names to koanf config paths.
//
// Examples:
//   - JWT_SECRET        -> security.jwt_secret
//   - STRIPE_SECRET_KEY -> stripe.secret_key
//   - LOG_LEVEL         -> logging.level
//   - SERVER_PORT       -> server.port
//
// Returning "" skips the variable.
func envTransformFunc(key string) string {
	if path, ok := envAliases[key]; ok {
		return path
	}
	for prefix, section := range envPrefixes {
		if strings.HasPrefix(key, prefix) {
			return section + strings.ToLower(strings.TrimPrefix(key, prefix))
		}
	}
	return ""
}
