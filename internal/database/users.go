// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/streamx/streamx/internal/models"
)

// CreateUser inserts a new user. Returns ErrDuplicate when the email is
// already registered.
func (db *DB) CreateUser(ctx context.Context, u *models.User) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role, plan, plan_expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Name, u.Email, u.PasswordHash, u.Role,
		u.Subscription.Plan, u.Subscription.ExpiresAt, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByEmail returns the user with the given email, without
// engagement state attached. Returns ErrNotFound when absent.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return db.getUser(ctx, "email = ?", email)
}

// GetUserByID returns the user with engagement state (preferences and
// watch history) attached. Returns ErrNotFound when absent.
func (db *DB) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	u, err := db.getUser(ctx, "id = ?", id)
	if err != nil {
		return nil, err
	}
	if u.Preferences, err = db.GetPreferences(ctx, id); err != nil {
		return nil, err
	}
	if u.WatchHistory, err = db.GetWatchHistory(ctx, id); err != nil {
		return nil, err
	}
	return u, nil
}

func (db *DB) getUser(ctx context.Context, where string, arg any) (*models.User, error) {
	var u models.User
	var expiresAt sql.NullTime
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, role, plan, plan_expires_at, created_at, updated_at
		FROM users WHERE `+where, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.Role,
			&u.Subscription.Plan, &expiresAt, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	if expiresAt.Valid {
		t := expiresAt.Time
		u.Subscription.ExpiresAt = &t
	}
	return &u, nil
}

// EmailTaken reports whether a user with the given email exists.
func (db *DB) EmailTaken(ctx context.Context, email string) (bool, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE email = ?`, email).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}
	return n > 0, nil
}

// UpdateUserProfile updates the mutable profile fields.
func (db *DB) UpdateUserProfile(ctx context.Context, id uuid.UUID, name string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET name = ?, updated_at = ? WHERE id = ?`,
		name, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateUserEmail changes the account email. Returns ErrDuplicate when
// another account already uses it.
func (db *DB) UpdateUserEmail(ctx context.Context, id uuid.UUID, email string) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET email = ?, updated_at = ? WHERE id = ?`,
		email, time.Now().UTC(), id)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update email: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListUserIDs returns the IDs of all registered users, for broadcast
// fan-out.
func (db *DB) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := db.conn.QueryContext(ctx, `SELECT id FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("failed to list user ids: %w", err)
	}
	defer closeQuietly(rows)

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdateUserSubscription sets the denormalized subscription state on the
// user record. A nil expiresAt clears the expiry (used on cancellation
// together with the free plan).
func (db *DB) UpdateUserSubscription(ctx context.Context, id uuid.UUID, plan string, expiresAt *time.Time) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE users SET plan = ?, plan_expires_at = ?, updated_at = ? WHERE id = ?`,
		plan, expiresAt, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update subscription: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementPreference atomically adds delta to the user's affinity score
// for a category, creating the row on first touch. Concurrent increments
// never lose updates because the addition happens inside the engine.
func (db *DB) IncrementPreference(ctx context.Context, userID uuid.UUID, category string, delta int) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO preferences (user_id, category, score)
		VALUES (?, ?, ?)
		ON CONFLICT (user_id, category)
		DO UPDATE SET score = score + excluded.score`,
		userID, category, delta)
	if err != nil {
		return fmt.Errorf("failed to increment preference: %w", err)
	}
	return nil
}

// GetPreferences returns the user's category affinity scores.
func (db *DB) GetPreferences(ctx context.Context, userID uuid.UUID) (map[string]int, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT category, score FROM preferences WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query preferences: %w", err)
	}
	defer closeQuietly(rows)

	prefs := make(map[string]int)
	for rows.Next() {
		var category string
		var score int
		if err := rows.Scan(&category, &score); err != nil {
			return nil, fmt.Errorf("failed to scan preference: %w", err)
		}
		prefs[category] = score
	}
	return prefs, rows.Err()
}

// UpsertWatchHistory records playback progress, keeping at most one
// entry per (user, video) with the latest position and timestamp.
func (db *DB) UpsertWatchHistory(ctx context.Context, userID, videoID uuid.UUID, progress int) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO watch_history (user_id, video_id, progress, watched_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (user_id, video_id)
		DO UPDATE SET progress = excluded.progress, watched_at = excluded.watched_at`,
		userID, videoID, progress, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to upsert watch history: %w", err)
	}
	return nil
}

// GetWatchHistory returns the user's watch history, most recent first.
func (db *DB) GetWatchHistory(ctx context.Context, userID uuid.UUID) ([]models.WatchHistoryEntry, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT video_id, progress, watched_at
		FROM watch_history WHERE user_id = ?
		ORDER BY watched_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watch history: %w", err)
	}
	defer closeQuietly(rows)

	var entries []models.WatchHistoryEntry
	for rows.Next() {
		var e models.WatchHistoryEntry
		var progress float64
		if err := rows.Scan(&e.VideoID, &progress, &e.WatchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan watch history: %w", err)
		}
		e.Progress = int(progress)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// GetWatchedVideoIDs returns the set of video IDs the user has any
// watch-history entry for. Used to exclude watched videos from
// recommendations.
func (db *DB) GetWatchedVideoIDs(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT video_id FROM watch_history WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query watched videos: %w", err)
	}
	defer closeQuietly(rows)

	watched := make(map[uuid.UUID]struct{})
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan video id: %w", err)
		}
		watched[id] = struct{}{}
	}
	return watched, rows.Err()
}
