// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/streamx/streamx/internal/models"
)

// CreateReel inserts a short-form clip.
func (db *DB) CreateReel(ctx context.Context, r *models.Reel) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO reels (id, title, video_url, thumbnail, uploader, views, likes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Title, r.VideoURL, r.ThumbnailURL, r.UploadedBy,
		r.Views, r.Likes, r.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create reel: %w", err)
	}
	return nil
}

// ListReels returns all reels newest-first.
func (db *DB) ListReels(ctx context.Context) ([]models.Reel, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, title, video_url, thumbnail, uploader, views, likes, created_at
		FROM reels ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list reels: %w", err)
	}
	defer closeQuietly(rows)

	var reels []models.Reel
	for rows.Next() {
		var r models.Reel
		if err := rows.Scan(&r.ID, &r.Title, &r.VideoURL, &r.ThumbnailURL,
			&r.UploadedBy, &r.Views, &r.Likes, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reel: %w", err)
		}
		reels = append(reels, r)
	}
	return reels, rows.Err()
}

// IncrementReelViews atomically bumps the view counter.
func (db *DB) IncrementReelViews(ctx context.Context, id uuid.UUID) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE reels SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment reel views: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementReelLikes atomically bumps the like counter and returns the
// new count.
func (db *DB) IncrementReelLikes(ctx context.Context, id uuid.UUID) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE reels SET likes = likes + 1 WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to increment reel likes: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrNotFound
	}

	var likes int64
	err = db.conn.QueryRowContext(ctx,
		`SELECT likes FROM reels WHERE id = ?`, id).Scan(&likes)
	if err != nil {
		return 0, fmt.Errorf("failed to read reel like count: %w", err)
	}
	return likes, nil
}
