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

// CreateDiscussion inserts a community post.
func (db *DB) CreateDiscussion(ctx context.Context, d *models.Discussion) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO discussions (id, author, title, content, category, movie_title, rating, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.UserID, d.Title, d.Content, d.Category, d.MovieTitle, d.Rating, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create discussion: %w", err)
	}
	return nil
}

// ListDiscussions returns posts newest-first, optionally filtered by
// category, with author names, like sets, and comments attached.
func (db *DB) ListDiscussions(ctx context.Context, category string) ([]models.Discussion, error) {
	query := `
		SELECT d.id, d.author, u.name, d.title, d.content, d.category,
		       d.movie_title, d.rating, d.created_at
		FROM discussions d
		LEFT JOIN users u ON u.id = d.author`
	var args []any
	if category != "" {
		query += ` WHERE d.category = ?`
		args = append(args, category)
	}
	query += ` ORDER BY d.created_at DESC`

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list discussions: %w", err)
	}
	defer closeQuietly(rows)

	var discussions []models.Discussion
	for rows.Next() {
		d, err := scanDiscussion(rows)
		if err != nil {
			return nil, err
		}
		discussions = append(discussions, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range discussions {
		if err := db.attachDiscussionState(ctx, &discussions[i]); err != nil {
			return nil, err
		}
	}
	return discussions, nil
}

// GetDiscussion returns one post with likes and comments attached.
// Returns ErrNotFound when absent.
func (db *DB) GetDiscussion(ctx context.Context, id uuid.UUID) (*models.Discussion, error) {
	row := db.conn.QueryRowContext(ctx, `
		SELECT d.id, d.author, u.name, d.title, d.content, d.category,
		       d.movie_title, d.rating, d.created_at
		FROM discussions d
		LEFT JOIN users u ON u.id = d.author
		WHERE d.id = ?`, id)

	d, err := scanDiscussion(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := db.attachDiscussionState(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// DeleteDiscussion removes a post and its likes and comments in one
// transaction, so a failure partway through leaves the post intact.
func (db *DB) DeleteDiscussion(ctx context.Context, id uuid.UUID) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM discussions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete discussion: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM discussion_likes WHERE discussion_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete discussion likes: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM discussion_comments WHERE discussion_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete discussion comments: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit discussion delete: %w", err)
	}
	return nil
}

// ToggleDiscussionLike adds the user to the post's like set if absent,
// removes them if present, and reports the resulting membership. The
// primary key on (discussion_id, user_id) gives set semantics under
// concurrent toggles: the same user can never appear twice.
func (db *DB) ToggleDiscussionLike(ctx context.Context, discussionID, userID uuid.UUID) (bool, error) {
	var exists int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM discussions WHERE id = ?`, discussionID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check discussion: %w", err)
	}
	if exists == 0 {
		return false, ErrNotFound
	}

	res, err := db.conn.ExecContext(ctx,
		`INSERT INTO discussion_likes (discussion_id, user_id) VALUES (?, ?)
		 ON CONFLICT (discussion_id, user_id) DO NOTHING`,
		discussionID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to like discussion: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return true, nil
	}

	// Already present: this toggle removes the like.
	_, err = db.conn.ExecContext(ctx,
		`DELETE FROM discussion_likes WHERE discussion_id = ? AND user_id = ?`,
		discussionID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to unlike discussion: %w", err)
	}
	return false, nil
}

// AddComment appends a comment to a post. Returns ErrNotFound when the
// post does not exist.
func (db *DB) AddComment(ctx context.Context, discussionID uuid.UUID, c *models.Comment) error {
	var exists int
	err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM discussions WHERE id = ?`, discussionID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check discussion: %w", err)
	}
	if exists == 0 {
		return ErrNotFound
	}

	_, err = db.conn.ExecContext(ctx, `
		INSERT INTO discussion_comments (id, discussion_id, author, content, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		c.ID, discussionID, c.UserID, c.Text, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to add comment: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDiscussion(row rowScanner) (*models.Discussion, error) {
	var d models.Discussion
	var authorName sql.NullString
	err := row.Scan(&d.ID, &d.UserID, &authorName, &d.Title, &d.Content,
		&d.Category, &d.MovieTitle, &d.Rating, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan discussion: %w", err)
	}
	d.AuthorName = authorName.String
	return &d, nil
}

func (db *DB) attachDiscussionState(ctx context.Context, d *models.Discussion) error {
	likeRows, err := db.conn.QueryContext(ctx,
		`SELECT user_id FROM discussion_likes WHERE discussion_id = ?`, d.ID)
	if err != nil {
		return fmt.Errorf("failed to query discussion likes: %w", err)
	}
	defer closeQuietly(likeRows)

	d.Likes = []uuid.UUID{}
	for likeRows.Next() {
		var id uuid.UUID
		if err := likeRows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan like: %w", err)
		}
		d.Likes = append(d.Likes, id)
	}
	if err := likeRows.Err(); err != nil {
		return err
	}

	commentRows, err := db.conn.QueryContext(ctx, `
		SELECT c.id, c.author, u.name, c.content, c.created_at
		FROM discussion_comments c
		LEFT JOIN users u ON u.id = c.author
		WHERE c.discussion_id = ?
		ORDER BY c.created_at`, d.ID)
	if err != nil {
		return fmt.Errorf("failed to query comments: %w", err)
	}
	defer closeQuietly(commentRows)

	d.Comments = []models.Comment{}
	for commentRows.Next() {
		var c models.Comment
		var authorName sql.NullString
		if err := commentRows.Scan(&c.ID, &c.UserID, &authorName, &c.Text, &c.CreatedAt); err != nil {
			return fmt.Errorf("failed to scan comment: %w", err)
		}
		c.AuthorName = authorName.String
		d.Comments = append(d.Comments, c)
	}
	return commentRows.Err()
}
