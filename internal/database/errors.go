// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

package database

import (
	"errors"
	"io"
	"strings"

	"github.com/streamx/streamx/internal/logging"
)

var (
	// ErrNotFound indicates the requested row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate indicates an insert violated a unique constraint.
	ErrDuplicate = errors.New("duplicate key")
)

// isUniqueViolation reports whether err is a DuckDB unique/primary key
// constraint violation. The driver does not expose structured error
// codes, so this matches the known message forms.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "Duplicate key") ||
		strings.Contains(msg, "violates unique constraint") ||
		strings.Contains(msg, "violates primary key constraint") ||
		strings.Contains(msg, "Constraint Error")
}

func closeQuietly(c io.Closer) {
	if err := c.Close(); err != nil {
		logging.Warn().Err(err).Msg("Failed to close resource")
	}
}
