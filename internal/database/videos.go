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
	"strings"

	"github.com/google/uuid"
	"github.com/streamx/streamx/internal/models"
)

// CreateVideo inserts a catalog entry.
func (db *DB) CreateVideo(ctx context.Context, v *models.Video) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO videos (id, title, description, category, duration, video_url, thumbnail, uploader, views, likes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.ID, v.Title, v.Description, v.Category, v.Duration,
		v.VideoURL, v.ThumbnailURL, v.UploadedBy, v.Views, v.Likes, v.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create video: %w", err)
	}
	return nil
}

// ListVideos returns catalog entries newest-first, optionally filtered
// by category and a case-insensitive title search.
func (db *DB) ListVideos(ctx context.Context, category, search string) ([]models.Video, error) {
	query := `
		SELECT v.id, v.title, v.description, v.category, v.duration,
		       v.video_url, v.thumbnail, v.uploader, u.name, v.views, v.likes, v.created_at
		FROM videos v
		LEFT JOIN users u ON u.id = v.uploader
		WHERE 1=1`
	var args []any
	if category != "" {
		query += ` AND v.category = ?`
		args = append(args, category)
	}
	if search != "" {
		query += ` AND lower(v.title) LIKE ?`
		args = append(args, "%"+strings.ToLower(search)+"%")
	}
	query += ` ORDER BY v.created_at DESC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list videos: %w", err)
	}
	defer closeQuietly(rows)

	return scanVideos(rows)
}

// GetVideo returns a single catalog entry with its subtitle tracks.
// Returns ErrNotFound when absent.
func (db *DB) GetVideo(ctx context.Context, id uuid.UUID) (*models.Video, error) {
	var v models.Video
	var uploaderName sql.NullString
	err := db.conn.QueryRowContext(ctx, `
		SELECT v.id, v.title, v.description, v.category, v.duration,
		       v.video_url, v.thumbnail, v.uploader, u.name, v.views, v.likes, v.created_at
		FROM videos v
		LEFT JOIN users u ON u.id = v.uploader
		WHERE v.id = ?`, id).
		Scan(&v.ID, &v.Title, &v.Description, &v.Category, &v.Duration,
			&v.VideoURL, &v.ThumbnailURL, &v.UploadedBy, &uploaderName,
			&v.Views, &v.Likes, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query video: %w", err)
	}
	v.UploaderName = uploaderName.String

	subs, err := db.getSubtitles(ctx, id)
	if err != nil {
		return nil, err
	}
	v.Subtitles = subs
	return &v, nil
}

// IncrementVideoViews atomically bumps the view counter.
func (db *DB) IncrementVideoViews(ctx context.Context, id uuid.UUID) error {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE videos SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementVideoLikes atomically bumps the like counter and returns the
// new count. Video likes are monotonic; there is no unlike.
func (db *DB) IncrementVideoLikes(ctx context.Context, id uuid.UUID) (int64, error) {
	res, err := db.conn.ExecContext(ctx,
		`UPDATE videos SET likes = likes + 1 WHERE id = ?`, id)
	if err != nil {
		return 0, fmt.Errorf("failed to increment likes: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrNotFound
	}

	var likes int64
	err = db.conn.QueryRowContext(ctx,
		`SELECT likes FROM videos WHERE id = ?`, id).Scan(&likes)
	if err != nil {
		return 0, fmt.Errorf("failed to read like count: %w", err)
	}
	return likes, nil
}

// AddSubtitle attaches a caption track to a video, replacing any
// existing track for the same language.
func (db *DB) AddSubtitle(ctx context.Context, videoID uuid.UUID, sub models.Subtitle) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO video_subtitles (video_id, language, url)
		VALUES (?, ?, ?)
		ON CONFLICT (video_id, language)
		DO UPDATE SET url = excluded.url`,
		videoID, sub.Language, sub.URL)
	if err != nil {
		return fmt.Errorf("failed to add subtitle: %w", err)
	}
	return nil
}

// DeleteVideo removes a catalog entry and its subtitle tracks.
func (db *DB) DeleteVideo(ctx context.Context, id uuid.UUID) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM videos WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete video: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := db.conn.ExecContext(ctx,
		`DELETE FROM video_subtitles WHERE video_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete subtitles: %w", err)
	}
	return nil
}

func (db *DB) getSubtitles(ctx context.Context, videoID uuid.UUID) ([]models.Subtitle, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT language, url FROM video_subtitles WHERE video_id = ? ORDER BY language`,
		videoID)
	if err != nil {
		return nil, fmt.Errorf("failed to query subtitles: %w", err)
	}
	defer closeQuietly(rows)

	var subs []models.Subtitle
	for rows.Next() {
		var s models.Subtitle
		if err := rows.Scan(&s.Language, &s.URL); err != nil {
			return nil, fmt.Errorf("failed to scan subtitle: %w", err)
		}
		subs = append(subs, s)
	}
	return subs, rows.Err()
}

func scanVideos(rows *sql.Rows) ([]models.Video, error) {
	var videos []models.Video
	for rows.Next() {
		var v models.Video
		var uploaderName sql.NullString
		if err := rows.Scan(&v.ID, &v.Title, &v.Description, &v.Category, &v.Duration,
			&v.VideoURL, &v.ThumbnailURL, &v.UploadedBy, &uploaderName,
			&v.Views, &v.Likes, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan video: %w", err)
		}
		v.UploaderName = uploaderName.String
		videos = append(videos, v)
	}
	return videos, rows.Err()
}
