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

	"github.com/google/uuid"
	"github.com/streamx/streamx/internal/models"
)

// InsertSubscriptionRecord stores an audit record for one verified
// payment session. The UNIQUE constraint on stripe_session_id is the
// serialization point for concurrent verification: exactly one of N
// racing inserts for the same session succeeds, the rest get
// ErrDuplicate.
func (db *DB) InsertSubscriptionRecord(ctx context.Context, rec *models.SubscriptionRecord) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO subscriptions (id, user_id, plan, stripe_session_id, status, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Plan, rec.StripeSessionID, rec.Status,
		rec.ExpiresAt, rec.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert subscription record: %w", err)
	}
	return nil
}

// GetSubscriptionBySessionID returns the record for a Stripe session.
// Returns ErrNotFound when absent.
func (db *DB) GetSubscriptionBySessionID(ctx context.Context, sessionID string) (*models.SubscriptionRecord, error) {
	var rec models.SubscriptionRecord
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, user_id, plan, stripe_session_id, status, expires_at, created_at
		FROM subscriptions WHERE stripe_session_id = ?`, sessionID).
		Scan(&rec.ID, &rec.UserID, &rec.Plan, &rec.StripeSessionID,
			&rec.Status, &rec.ExpiresAt, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query subscription record: %w", err)
	}
	return &rec, nil
}

// ListSubscriptionRecords returns a user's payment records newest-first.
func (db *DB) ListSubscriptionRecords(ctx context.Context, userID uuid.UUID) ([]models.SubscriptionRecord, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, user_id, plan, stripe_session_id, status, expires_at, created_at
		FROM subscriptions WHERE user_id = ?
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscription records: %w", err)
	}
	defer closeQuietly(rows)

	var recs []models.SubscriptionRecord
	for rows.Next() {
		var rec models.SubscriptionRecord
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Plan, &rec.StripeSessionID,
			&rec.Status, &rec.ExpiresAt, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan subscription record: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// CancelActiveSubscriptions marks the user's active records cancelled.
// Records are never deleted; cancellation is a status transition.
func (db *DB) CancelActiveSubscriptions(ctx context.Context, userID uuid.UUID) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE subscriptions SET status = ? WHERE user_id = ? AND status = ?`,
		models.SubscriptionCancelled, userID, models.SubscriptionActive)
	if err != nil {
		return 0, fmt.Errorf("failed to cancel subscriptions: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
