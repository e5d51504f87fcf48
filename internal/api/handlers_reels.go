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
)

// ListReels returns all short-form clips, newest first.
func (h *Handler) ListReels(w http.ResponseWriter, r *http.Request) {
	reels, err := h.db.ListReels(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to list reels", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, reels)
}

// CreateReel uploads a short-form clip.
func (h *Handler) CreateReel(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req models.CreateReelRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reel := &models.Reel{
		ID:           uuid.New(),
		Title:        req.Title,
		VideoURL:     req.VideoURL,
		ThumbnailURL: req.ThumbnailURL,
		UploadedBy:   user.ID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.db.CreateReel(r.Context(), reel); err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to create reel", err)
		return
	}
	respondSuccess(w, r, http.StatusCreated, reel)
}

// LikeReel bumps the reel's like counter. Like video likes, reel likes
// only go up.
func (h *Handler) LikeReel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	likes, err := h.db.IncrementReelLikes(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "Reel not found", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to like reel", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]int64{"likes": likes})
}

// ViewReel bumps the reel's view counter.
func (h *Handler) ViewReel(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.db.IncrementReelViews(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "Reel not found", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to record view", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]string{"message": "View recorded"})
}

// MovieReels returns short movie teasers assembled from TMDB. The result
// is best-effort: movies missing a poster or trailer are omitted.
func (h *Handler) MovieReels(w http.ResponseWriter, r *http.Request) {
	reels, err := h.tmdb.MovieReels(r.Context())
	if err != nil {
		respondError(w, r, http.StatusBadGateway, models.ErrCodeExternalService, "Movie reels are temporarily unavailable", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, reels)
}
