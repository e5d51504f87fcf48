// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

// Package database provides the DuckDB-backed persistence layer.
//
// All entities (users, videos, reels, discussions, notifications,
// subscription records) live in a single embedded DuckDB database. The
// schema is created at startup; there are no migrations.
//
// Concurrency notes:
//   - Counter updates (video views/likes, preference scores) use atomic
//     SQL increments, never read-modify-write in application code.
//   - Discussion likes are a table with PRIMARY KEY (discussion_id,
//     user_id), giving set semantics under concurrent toggles.
//   - subscriptions.stripe_session_id carries a UNIQUE constraint; the
//     engine-enforced violation on insert is the serialization point for
//     concurrent payment verification.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"runtime"
	"time"

	_ "github.com/duckdb/duckdb-go/v2" // DuckDB database/sql driver
	"github.com/streamx/streamx/internal/config"
	"github.com/streamx/streamx/internal/logging"
)

// DB wraps the DuckDB connection and exposes typed CRUD operations.
type DB struct {
	conn *sql.DB
	cfg  *config.DatabaseConfig
}

// New opens the DuckDB database at the configured path and initializes
// the schema. Use Path ":memory:" for an ephemeral database.
func New(cfg *config.DatabaseConfig) (*DB, error) {
	threads := cfg.Threads
	if threads <= 0 {
		threads = runtime.NumCPU()
	}

	connStr := cfg.Path
	if connStr != ":memory:" && connStr != "" {
		connStr = fmt.Sprintf("%s?access_mode=read_write&threads=%d&max_memory=%s",
			cfg.Path, threads, cfg.MaxMemory)
	}

	conn, err := sql.Open("duckdb", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(runtime.NumCPU())
	conn.SetMaxIdleConns(2)
	conn.SetConnMaxLifetime(time.Hour)

	db := &DB{conn: conn, cfg: cfg}
	if err := db.createTables(); err != nil {
		closeQuietly(conn)
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	logging.Info().Str("path", cfg.Path).Msg("Database initialized")
	return db, nil
}

// Conn returns the underlying SQL connection, for health checks.
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Ping verifies the database connection is alive.
func (db *DB) Ping(ctx context.Context) error {
	return db.conn.PingContext(ctx)
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}
