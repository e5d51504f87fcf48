// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

package notify

import (
	"context"
	"time"

	"github.com/streamx/streamx/internal/logging"
)

// Sweeper periodically deletes expired notifications. It implements
// suture.Service and runs under the application supervisor.
type Sweeper struct {
	service  *Service
	interval time.Duration
}

// NewSweeper creates a sweeper that runs at the given interval.
func NewSweeper(service *Service, interval time.Duration) *Sweeper {
	return &Sweeper{service: service, interval: interval}
}

// Serve runs the sweep loop until the context is cancelled. One sweep
// runs immediately on startup so expired rows do not linger across
// restarts.
func (s *Sweeper) Serve(ctx context.Context) error {
	if _, err := s.service.SweepExpired(ctx); err != nil {
		logging.Error().Err(err).Msg("Notification sweep failed")
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.service.SweepExpired(ctx); err != nil {
				logging.Error().Err(err).Msg("Notification sweep failed")
			}
		}
	}
}

// String identifies the service in supervisor logs.
func (s *Sweeper) String() string {
	return "notification-sweeper"
}
