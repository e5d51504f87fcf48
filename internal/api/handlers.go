// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

// Package api provides the HTTP handlers and chi router.
package api

import (
	"net/http"
	"time"

	"github.com/streamx/streamx/internal/auth"
	"github.com/streamx/streamx/internal/billing"
	"github.com/streamx/streamx/internal/config"
	"github.com/streamx/streamx/internal/database"
	"github.com/streamx/streamx/internal/models"
	"github.com/streamx/streamx/internal/notify"
	"github.com/streamx/streamx/internal/recommend"
	"github.com/streamx/streamx/internal/tmdb"
)

// Handler bundles the services behind the HTTP surface.
type Handler struct {
	cfg        *config.Config
	db         *database.DB
	jwt        *auth.JWTManager
	notifier   *notify.Service
	engine     *recommend.Engine
	reconciler *billing.Reconciler
	tmdb       *tmdb.Client
	startedAt  time.Time
}

// NewHandler creates the API handler.
func NewHandler(
	cfg *config.Config,
	db *database.DB,
	jwt *auth.JWTManager,
	notifier *notify.Service,
	engine *recommend.Engine,
	reconciler *billing.Reconciler,
	tmdbClient *tmdb.Client,
) *Handler {
	return &Handler{
		cfg:        cfg,
		db:         db,
		jwt:        jwt,
		notifier:   notifier,
		engine:     engine,
		reconciler: reconciler,
		tmdb:       tmdbClient,
		startedAt:  time.Now().UTC(),
	}
}

// requireUser returns the authenticated user or writes 401 and returns
// false. The auth middleware always attaches a user before handlers
// run; the guard covers misconfigured routes.
func (h *Handler) requireUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, models.ErrCodeAuthRequired, "Authentication required", nil)
		return nil, false
	}
	return user, true
}

// Health reports liveness plus database reachability.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	code := http.StatusOK
	if err := h.db.Ping(r.Context()); err != nil {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	respondSuccess(w, r, code, map[string]interface{}{
		"status":         status,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	})
}
