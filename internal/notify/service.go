// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

// Package notify implements the notification service: creation with
// self-notification suppression, capped inbox listing, read-state
// transitions, admin broadcast fan-out, and TTL-based expiry.
package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/streamx/streamx/internal/config"
	"github.com/streamx/streamx/internal/database"
	"github.com/streamx/streamx/internal/logging"
	"github.com/streamx/streamx/internal/metrics"
	"github.com/streamx/streamx/internal/models"
)

// Service implements notification semantics on top of the database.
type Service struct {
	db  *database.DB
	cfg *config.NotificationsConfig
}

// NewService creates the notification service.
func NewService(db *database.DB, cfg *config.NotificationsConfig) *Service {
	return &Service{db: db, cfg: cfg}
}

// Event describes a notification to deliver.
type Event struct {
	Recipient uuid.UUID
	Sender    *uuid.UUID // nil for system-generated notifications
	Type      models.NotificationType
	Title     string
	Message   string
	Link      string
}

// Notify delivers a notification as a side effect of another operation.
// It never returns an error: a notification is an enhancement to the
// triggering action, so storage failures are logged and swallowed
// rather than failing a like or a comment that already happened.
//
// Self-notifications are suppressed: when the sender is also the
// recipient, nothing is stored.
func (s *Service) Notify(ctx context.Context, ev Event) {
	if ev.Sender != nil && *ev.Sender == ev.Recipient {
		metrics.NotificationsSuppressed.Inc()
		return
	}

	n := &models.Notification{
		ID:        uuid.New(),
		Recipient: ev.Recipient,
		Sender:    ev.Sender,
		Type:      ev.Type,
		Title:     ev.Title,
		Message:   ev.Message,
		Link:      ev.Link,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.InsertNotification(ctx, n); err != nil {
		metrics.NotificationsDropped.WithLabelValues(string(ev.Type)).Inc()
		logging.Ctx(ctx).Error().Err(err).
			Str("recipient", ev.Recipient.String()).
			Str("type", string(ev.Type)).
			Msg("Failed to store notification")
		return
	}
	metrics.NotificationsCreated.WithLabelValues(string(ev.Type)).Inc()
}

// List returns the recipient's newest notifications, capped at the
// configured inbox limit.
func (s *Service) List(ctx context.Context, recipient uuid.UUID) ([]models.Notification, error) {
	return s.db.ListNotifications(ctx, recipient, s.cfg.ListLimit)
}

// UnreadCount returns the recipient's unread notification count.
func (s *Service) UnreadCount(ctx context.Context, recipient uuid.UUID) (int, error) {
	return s.db.CountUnread(ctx, recipient)
}

// MarkRead marks one notification read. Ownership is enforced at the
// storage layer: marking another user's notification returns
// database.ErrNotFound, indistinguishable from a nonexistent ID.
func (s *Service) MarkRead(ctx context.Context, id, recipient uuid.UUID) error {
	return s.db.MarkNotificationRead(ctx, id, recipient)
}

// MarkAllRead marks all of the recipient's notifications read and
// returns the number transitioned.
func (s *Service) MarkAllRead(ctx context.Context, recipient uuid.UUID) (int64, error) {
	return s.db.MarkAllNotificationsRead(ctx, recipient)
}

// SendDirect stores a notification for a specific user on behalf of an
// admin. Unlike Notify this is the primary action of its endpoint, so
// failures propagate. Self-suppression still applies.
func (s *Service) SendDirect(ctx context.Context, sender uuid.UUID, req *models.SendNotificationRequest) error {
	if sender == req.RecipientID {
		metrics.NotificationsSuppressed.Inc()
		return nil
	}

	senderID := sender
	n := &models.Notification{
		ID:        uuid.New(),
		Recipient: req.RecipientID,
		Sender:    &senderID,
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		Link:      req.Link,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.db.InsertNotification(ctx, n); err != nil {
		return err
	}
	metrics.NotificationsCreated.WithLabelValues(string(req.Type)).Inc()
	return nil
}

// Broadcast stores one notification per registered user, including the
// sending admin, and returns the recipient count. The batch is inserted
// in one transaction so a failure delivers to nobody rather than some.
func (s *Service) Broadcast(ctx context.Context, sender uuid.UUID, req *models.BroadcastRequest) (int, error) {
	ids, err := s.db.ListUserIDs(ctx)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	senderID := sender
	batch := make([]models.Notification, 0, len(ids))
	for _, recipient := range ids {
		batch = append(batch, models.Notification{
			ID:        uuid.New(),
			Recipient: recipient,
			Sender:    &senderID,
			Type:      req.Type,
			Title:     req.Title,
			Message:   req.Message,
			Link:      req.Link,
			CreatedAt: now,
		})
	}

	if err := s.db.InsertNotifications(ctx, batch); err != nil {
		return 0, err
	}

	metrics.BroadcastFanout.Observe(float64(len(batch)))
	for range batch {
		metrics.NotificationsCreated.WithLabelValues(string(req.Type)).Inc()
	}
	logging.Ctx(ctx).Info().
		Int("recipients", len(batch)).
		Str("type", string(req.Type)).
		Msg("Broadcast delivered")
	return len(batch), nil
}

// SweepExpired deletes notifications older than the configured TTL and
// returns the number removed.
func (s *Service) SweepExpired(ctx context.Context) (int64, error) {
	cutoff := time.Now().UTC().Add(-s.cfg.TTL)
	deleted, err := s.db.DeleteExpiredNotifications(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		metrics.NotificationsExpired.Add(float64(deleted))
		logging.Ctx(ctx).Info().Int64("deleted", deleted).Msg("Expired notifications removed")
	}
	return deleted, nil
}
