// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

package database

import "fmt"

// createTables creates the schema if it does not already exist.
// Statements are ordered so referenced tables exist first, though
// DuckDB does not enforce foreign keys here.
func (db *DB) createTables() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id              UUID PRIMARY KEY,
			name            VARCHAR NOT NULL,
			email           VARCHAR NOT NULL UNIQUE,
			password_hash   VARCHAR NOT NULL,
			role            VARCHAR NOT NULL DEFAULT 'user',
			plan            VARCHAR NOT NULL DEFAULT 'free',
			plan_expires_at TIMESTAMP,
			created_at      TIMESTAMP NOT NULL,
			updated_at      TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS preferences (
			user_id  UUID NOT NULL,
			category VARCHAR NOT NULL,
			score    INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (user_id, category)
		)`,
		`CREATE TABLE IF NOT EXISTS watch_history (
			user_id    UUID NOT NULL,
			video_id   UUID NOT NULL,
			progress   DOUBLE NOT NULL DEFAULT 0,
			watched_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, video_id)
		)`,
		`CREATE TABLE IF NOT EXISTS videos (
			id          UUID PRIMARY KEY,
			title       VARCHAR NOT NULL,
			description VARCHAR NOT NULL DEFAULT '',
			category    VARCHAR NOT NULL,
			duration    INTEGER NOT NULL DEFAULT 0,
			video_url   VARCHAR NOT NULL,
			thumbnail   VARCHAR NOT NULL DEFAULT '',
			uploader    UUID NOT NULL,
			views       BIGINT NOT NULL DEFAULT 0,
			likes       BIGINT NOT NULL DEFAULT 0,
			created_at  TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS video_subtitles (
			video_id UUID NOT NULL,
			language VARCHAR NOT NULL,
			url      VARCHAR NOT NULL,
			PRIMARY KEY (video_id, language)
		)`,
		`CREATE TABLE IF NOT EXISTS reels (
			id          UUID PRIMARY KEY,
			title       VARCHAR NOT NULL,
			video_url   VARCHAR NOT NULL,
			thumbnail   VARCHAR NOT NULL DEFAULT '',
			uploader    UUID NOT NULL,
			views       BIGINT NOT NULL DEFAULT 0,
			likes       BIGINT NOT NULL DEFAULT 0,
			created_at  TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS discussions (
			id          UUID PRIMARY KEY,
			author      UUID NOT NULL,
			title       VARCHAR NOT NULL,
			content     VARCHAR NOT NULL,
			category    VARCHAR NOT NULL,
			movie_title VARCHAR NOT NULL DEFAULT '',
			rating      INTEGER NOT NULL DEFAULT 0,
			created_at  TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS discussion_likes (
			discussion_id UUID NOT NULL,
			user_id       UUID NOT NULL,
			PRIMARY KEY (discussion_id, user_id)
		)`,
		`CREATE TABLE IF NOT EXISTS discussion_comments (
			id            UUID PRIMARY KEY,
			discussion_id UUID NOT NULL,
			author        UUID NOT NULL,
			content       VARCHAR NOT NULL,
			created_at    TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS notifications (
			id         UUID PRIMARY KEY,
			recipient  UUID NOT NULL,
			sender     UUID,
			type       VARCHAR NOT NULL,
			title      VARCHAR NOT NULL,
			message    VARCHAR NOT NULL,
			link       VARCHAR NOT NULL DEFAULT '',
			is_read    BOOLEAN NOT NULL DEFAULT false,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_recipient
			ON notifications (recipient, is_read, created_at)`,
		`CREATE TABLE IF NOT EXISTS subscriptions (
			id                UUID PRIMARY KEY,
			user_id           UUID NOT NULL,
			plan              VARCHAR NOT NULL,
			stripe_session_id VARCHAR NOT NULL UNIQUE,
			status            VARCHAR NOT NULL DEFAULT 'active',
			expires_at        TIMESTAMP NOT NULL,
			created_at        TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_subscriptions_user
			ON subscriptions (user_id, status)`,
	}

	for _, stmt := range stmts {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("schema statement failed: %w", err)
		}
	}
	return nil
}
