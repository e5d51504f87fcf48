// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/streamx/streamx/internal/database"
	"github.com/streamx/streamx/internal/models"
)

// ListNotifications returns the caller's most recent notifications,
// newest first, capped server-side.
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	notifications, err := h.notifier.List(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to list notifications", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, notifications)
}

// UnreadCount returns how many of the caller's notifications are unread.
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	count, err := h.notifier.UnreadCount(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to count notifications", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, models.UnreadCountResponse{Count: int64(count)})
}

// MarkNotificationRead marks one of the caller's notifications as read.
// Notifications belonging to anyone else are indistinguishable from
// missing ones.
func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.notifier.MarkRead(r.Context(), id, user.ID); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "Notification not found", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to mark notification read", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}

// MarkAllNotificationsRead marks every unread notification of the caller
// as read and reports how many changed.
func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	updated, err := h.notifier.MarkAllRead(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to mark notifications read", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]int64{"updated": updated})
}

// SendNotification delivers a notification to a single user. Admin only.
// Sending to yourself succeeds but delivers nothing.
func (h *Handler) SendNotification(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req models.SendNotificationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.notifier.SendDirect(r.Context(), user.ID, &req); err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to send notification", err)
		return
	}
	respondSuccess(w, r, http.StatusCreated, map[string]string{"message": "Notification sent"})
}

// BroadcastNotification delivers a notification to every user, the
// sender included. Admin only. Delivery is all-or-nothing.
func (h *Handler) BroadcastNotification(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req models.BroadcastRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	count, err := h.notifier.Broadcast(r.Context(), user.ID, &req)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to broadcast notification", err)
		return
	}
	respondSuccess(w, r, http.StatusCreated, models.BroadcastResponse{
		Message: "Broadcast delivered",
		Count:   int64(count),
	})
}
