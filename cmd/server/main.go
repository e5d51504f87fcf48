// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

// Package main is the entry point for the StreamX server.
//
// StreamX is a video streaming platform backend: a catalog of videos
// and short-form reels, community discussions, per-user notifications,
// preference-driven recommendations, and Stripe-backed subscriptions.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: environment variables, config file, defaults (Koanf v2)
//  2. Database: DuckDB with the full schema created on startup
//  3. Authentication: JWT manager and bcrypt password hashing
//  4. Services: notifications, recommendations, billing, TMDB proxy
//  5. Supervisor tree: notification sweeper and HTTP server under Suture
//
// # Configuration
//
// Required settings:
//   - JWT_SECRET: token signing secret (32+ characters in production)
//   - STRIPE_SECRET_KEY: Stripe API key (checkout is disabled without it)
//   - TMDB_API_KEY: TMDB API key (movie reels return errors without it)
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: the HTTP
// server stops accepting connections and drains in-flight requests,
// then the sweeper and database are closed.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/streamx/streamx/internal/api"
	"github.com/streamx/streamx/internal/auth"
	"github.com/streamx/streamx/internal/billing"
	"github.com/streamx/streamx/internal/config"
	"github.com/streamx/streamx/internal/database"
	"github.com/streamx/streamx/internal/logging"
	"github.com/streamx/streamx/internal/notify"
	"github.com/streamx/streamx/internal/recommend"
	"github.com/streamx/streamx/internal/supervisor"
	"github.com/streamx/streamx/internal/tmdb"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Int("port", cfg.Server.Port).
		Msg("Starting StreamX")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	jwtManager, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize JWT manager")
	}

	notifier := notify.NewService(db, &cfg.Notifications)
	engine := recommend.NewEngine(db, &cfg.Recommend)
	reconciler := billing.NewReconciler(db, billing.NewStripeClient(&cfg.Stripe), notifier, cfg.Server.ClientURL)
	tmdbClient := tmdb.NewClient(&cfg.TMDB)

	handler := api.NewHandler(cfg, db, jwtManager, notifier, engine, reconciler, tmdbClient)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
	}

	treeConfig := supervisor.DefaultTreeConfig()
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeConfig)
	tree.AddBackgroundService(notify.NewSweeper(notifier, cfg.Notifications.SweepInterval))
	tree.AddAPIService(supervisor.NewHTTPServerService(server, treeConfig.ShutdownTimeout))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Str("addr", server.Addr).Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context cancelled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	if unstopped, err := tree.UnstoppedServiceReport(); err == nil && len(unstopped) > 0 {
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
		}
	}

	logging.Info().Msg("StreamX stopped gracefully")
}
