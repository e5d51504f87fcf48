// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/streamx/streamx/internal/database"
	"github.com/streamx/streamx/internal/logging"
	"github.com/streamx/streamx/internal/models"
)

type contextKey string

const userContextKey contextKey = "auth.user"

// Middleware wires token validation and account lookup into the HTTP
// request chain.
type Middleware struct {
	jwt *JWTManager
	db  *database.DB
}

// NewMiddleware creates the authentication middleware.
func NewMiddleware(jwt *JWTManager, db *database.DB) *Middleware {
	return &Middleware{jwt: jwt, db: db}
}

// UserFromContext returns the authenticated user attached by
// Authenticate, or false when the request is anonymous.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userContextKey).(*models.User)
	return u, ok
}

// ContextWithUser attaches a user to the context. Exported for handler
// tests that bypass the middleware chain.
func ContextWithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// Authenticate validates the bearer token and loads the account it
// names. Role and subscription state come from the database, not the
// token, so revocations and plan changes apply immediately.
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			writeAuthError(w, http.StatusUnauthorized, models.ErrCodeAuthRequired, "Authentication required")
			return
		}

		claims, err := m.jwt.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Token validation failed")
			writeAuthError(w, http.StatusUnauthorized, models.ErrCodeAuthRequired, "Invalid or expired token")
			return
		}

		user, err := m.db.GetUserByID(r.Context(), claims.UserID)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, models.ErrCodeAuthRequired, "Account not found")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithUser(r.Context(), user)))
	})
}

// RequireAdmin rejects requests from non-admin users. Must run after
// Authenticate.
func (m *Middleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, models.ErrCodeAuthRequired, "Authentication required")
			return
		}
		if user.Role != models.RoleAdmin {
			writeAuthError(w, http.StatusForbidden, models.ErrCodeForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireSubscription rejects requests from users without an active
// paid subscription. Must run after Authenticate.
func (m *Middleware) RequireSubscription(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFromContext(r.Context())
		if !ok {
			writeAuthError(w, http.StatusUnauthorized, models.ErrCodeAuthRequired, "Authentication required")
			return
		}
		if !user.Subscription.IsActive(time.Now()) {
			writeAuthError(w, http.StatusForbidden, models.ErrCodeForbidden, "Active subscription required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return header[len(prefix):]
	}
	return ""
}

func writeAuthError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := models.APIResponse{
		Status: "error",
		Error:  &models.APIError{Code: code, Message: message},
		Metadata: models.Metadata{
			Timestamp: time.Now().UTC(),
		},
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logging.Warn().Err(err).Msg("Failed to encode auth error response")
	}
}
