// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streamx/streamx/internal/auth"
	"github.com/streamx/streamx/internal/database"
	"github.com/streamx/streamx/internal/models"
)

// Register creates an account and returns a token. Duplicate emails are
// rejected by the unique constraint, not a pre-check, so racing
// registrations cannot both succeed.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	hash, err := auth.HashPassword(req.Password, h.cfg.Security.BcryptCost)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "Failed to create account", err)
		return
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.New(),
		Name:         req.Name,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Role:         models.RoleUser,
		Preferences:  map[string]int{},
		WatchHistory: []models.WatchHistoryEntry{},
		Subscription: models.UserSubscription{Plan: models.PlanFree},
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.db.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, database.ErrDuplicate) {
			respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "Email already registered", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to create account", err)
		return
	}

	token, err := h.jwt.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "Failed to issue token", err)
		return
	}

	respondSuccess(w, r, http.StatusCreated, models.AuthResponse{
		Message: "Account created",
		Token:   token,
		User:    user,
	})
}

// Login verifies credentials and returns a token. Unknown email and
// wrong password produce the same response.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.db.GetUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusUnauthorized, models.ErrCodeAuthRequired, "Invalid email or password", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Login failed", err)
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		respondError(w, r, http.StatusUnauthorized, models.ErrCodeAuthRequired, "Invalid email or password", nil)
		return
	}

	token, err := h.jwt.GenerateToken(user.ID, user.Email, user.Role)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeInternal, "Failed to issue token", err)
		return
	}

	respondSuccess(w, r, http.StatusOK, models.AuthResponse{
		Message: "Login successful",
		Token:   token,
		User:    user,
	})
}

// Me returns the authenticated user with engagement state attached.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	respondSuccess(w, r, http.StatusOK, user)
}

// UpdateProfile updates the caller's name and, when changed, email.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateProfileRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.Email != "" {
		email := strings.ToLower(strings.TrimSpace(req.Email))
		if email != user.Email {
			taken, err := h.db.EmailTaken(r.Context(), email)
			if err != nil {
				respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to update profile", err)
				return
			}
			if taken {
				respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "Email already in use", nil)
				return
			}
			if err := h.db.UpdateUserEmail(r.Context(), user.ID, email); err != nil {
				respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to update profile", err)
				return
			}
			user.Email = email
		}
	}

	if req.Name != "" && req.Name != user.Name {
		if err := h.db.UpdateUserProfile(r.Context(), user.ID, req.Name); err != nil {
			respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to update profile", err)
			return
		}
		user.Name = req.Name
	}

	respondSuccess(w, r, http.StatusOK, user)
}
