// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/streamx/streamx/internal/models"
)

// InsertNotification stores a single notification.
func (db *DB) InsertNotification(ctx context.Context, n *models.Notification) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO notifications (id, recipient, sender, type, title, message, link, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Recipient, n.Sender, string(n.Type), n.Title, n.Message,
		n.Link, n.Read, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}
	return nil
}

// InsertNotifications stores a batch in one transaction. Used by
// broadcast fan-out so a partial failure inserts nothing.
func (db *DB) InsertNotifications(ctx context.Context, batch []models.Notification) error {
	if len(batch) == 0 {
		return nil
	}
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO notifications (id, recipient, sender, type, title, message, link, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer closeQuietly(stmt)

	for i := range batch {
		n := &batch[i]
		if _, err := stmt.ExecContext(ctx, n.ID, n.Recipient, n.Sender,
			string(n.Type), n.Title, n.Message, n.Link, n.Read, n.CreatedAt); err != nil {
			return fmt.Errorf("failed to insert notification batch: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit notification batch: %w", err)
	}
	return nil
}

// ListNotifications returns the recipient's newest notifications, capped
// at limit, with sender names resolved.
func (db *DB) ListNotifications(ctx context.Context, recipient uuid.UUID, limit int) ([]models.Notification, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT n.id, n.recipient, n.sender, u.name, n.type, n.title,
		       n.message, n.link, n.is_read, n.created_at
		FROM notifications n
		LEFT JOIN users u ON u.id = n.sender
		WHERE n.recipient = ?
		ORDER BY n.created_at DESC
		LIMIT ?`, recipient, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer closeQuietly(rows)

	notifications := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		var sender uuid.NullUUID
		var senderName sql.NullString
		var typ string
		if err := rows.Scan(&n.ID, &n.Recipient, &sender, &senderName, &typ,
			&n.Title, &n.Message, &n.Link, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		if sender.Valid {
			id := sender.UUID
			n.Sender = &id
		}
		n.SenderName = senderName.String
		n.Type = models.NotificationType(typ)
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// CountUnread returns the recipient's unread notification count.
func (db *DB) CountUnread(ctx context.Context, recipient uuid.UUID) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient = ? AND NOT is_read`,
		recipient).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread: %w", err)
	}
	return n, nil
}

// MarkNotificationRead marks one notification read, scoped to the
// recipient so users cannot mark others' notifications. Returns
// ErrNotFound when no owned row matches.
func (db *DB) MarkNotificationRead(ctx context.Context, id, recipient uuid.UUID) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE notifications SET is_read = true WHERE id = ? AND recipient = ?`,
		id, recipient)
	if err != nil {
		return fmt.Errorf("failed to mark read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllNotificationsRead marks every unread notification for the
// recipient as read and returns the number affected.
func (db *DB) MarkAllNotificationsRead(ctx context.Context, recipient uuid.UUID) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE notifications SET is_read = true WHERE recipient = ? AND NOT is_read`,
		recipient)
	if err != nil {
		return 0, fmt.Errorf("failed to mark all read: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// DeleteExpiredNotifications removes notifications older than cutoff
// regardless of read state, and returns the number removed.
func (db *DB) DeleteExpiredNotifications(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`DELETE FROM notifications WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired notifications: %w", err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}
