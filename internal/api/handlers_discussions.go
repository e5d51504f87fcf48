// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/streamx/streamx/internal/database"
	"github.com/streamx/streamx/internal/models"
	"github.com/streamx/streamx/internal/notify"
)

// ListDiscussions returns community posts, optionally filtered by
// ?category=, newest first, with like sets and comments attached.
func (h *Handler) ListDiscussions(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" && !models.IsValidDiscussionCategory(category) {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "Unknown discussion category", nil)
		return
	}

	discussions, err := h.db.ListDiscussions(r.Context(), category)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to list discussions", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, discussions)
}

// CreateDiscussion posts a new community thread.
func (h *Handler) CreateDiscussion(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req models.CreateDiscussionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	d := &models.Discussion{
		ID:         uuid.New(),
		UserID:     user.ID,
		AuthorName: user.Name,
		Title:      req.Title,
		Content:    req.Content,
		Category:   req.Category,
		MovieTitle: req.MovieTitle,
		Rating:     req.Rating,
		Likes:      []uuid.UUID{},
		Comments:   []models.Comment{},
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.db.CreateDiscussion(r.Context(), d); err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to create discussion", err)
		return
	}
	respondSuccess(w, r, http.StatusCreated, d)
}

// GetDiscussion returns one thread with its like set and comments.
func (h *Handler) GetDiscussion(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	d, err := h.db.GetDiscussion(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "Discussion not found", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to load discussion", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, d)
}

// DeleteDiscussion removes a thread. A missing thread is a 404; an
// existing thread owned by someone else is a 403 unless the caller is
// an admin.
func (h *Handler) DeleteDiscussion(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	d, err := h.db.GetDiscussion(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "Discussion not found", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to load discussion", err)
		return
	}
	if d.UserID != user.ID && user.Role != models.RoleAdmin {
		respondError(w, r, http.StatusForbidden, models.ErrCodeForbidden, "You can only delete your own discussions", nil)
		return
	}

	if err := h.db.DeleteDiscussion(r.Context(), id); err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to delete discussion", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]string{"message": "Discussion deleted"})
}

// ToggleDiscussionLike adds or removes the caller from the thread's like
// set. Adding a like notifies the author; removing one does not.
func (h *Handler) ToggleDiscussionLike(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	d, err := h.db.GetDiscussion(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "Discussion not found", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to load discussion", err)
		return
	}

	liked, err := h.db.ToggleDiscussionLike(r.Context(), id, user.ID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to toggle like", err)
		return
	}

	if liked {
		sender := user.ID
		h.notifier.Notify(r.Context(), notify.Event{
			Recipient: d.UserID,
			Sender:    &sender,
			Type:      models.NotificationLike,
			Title:     "New like on your discussion",
			Message:   user.Name + " liked \"" + d.Title + "\"",
			Link:      "/discussions/" + d.ID.String(),
		})
	}

	respondSuccess(w, r, http.StatusOK, map[string]bool{"liked": liked})
}

// AddComment appends a comment to a thread and notifies the author.
// Commenting on your own thread does not notify; the suppression lives
// in the notifier.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req models.AddCommentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	d, err := h.db.GetDiscussion(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "Discussion not found", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to load discussion", err)
		return
	}

	comment := &models.Comment{
		ID:         uuid.New(),
		UserID:     user.ID,
		AuthorName: user.Name,
		Text:       req.Text,
		CreatedAt:  time.Now().UTC(),
	}
	if err := h.db.AddComment(r.Context(), id, comment); err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to add comment", err)
		return
	}

	sender := user.ID
	h.notifier.Notify(r.Context(), notify.Event{
		Recipient: d.UserID,
		Sender:    &sender,
		Type:      models.NotificationComment,
		Title:     "New comment on your discussion",
		Message:   user.Name + " commented on \"" + d.Title + "\"",
		Link:      "/discussions/" + d.ID.String(),
	})

	respondSuccess(w, r, http.StatusCreated, comment)
}
