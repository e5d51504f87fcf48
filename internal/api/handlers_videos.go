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
	"github.com/streamx/streamx/internal/logging"
	"github.com/streamx/streamx/internal/models"
	"github.com/streamx/streamx/internal/notify"
)

// ListVideos returns the catalog, optionally filtered by ?category= and
// ?search= (case-insensitive title match), newest first.
func (h *Handler) ListVideos(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category != "" && !models.IsValidVideoCategory(category) {
		respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "Unknown video category", nil)
		return
	}

	videos, err := h.db.ListVideos(r.Context(), category, r.URL.Query().Get("search"))
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to list videos", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, videos)
}

// GetVideo returns one video and bumps its view counter.
func (h *Handler) GetVideo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	video, err := h.db.GetVideo(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "Video not found", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to load video", err)
		return
	}

	if err := h.db.IncrementVideoViews(r.Context(), id); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to increment video views")
	} else {
		video.Views++
	}

	respondSuccess(w, r, http.StatusOK, video)
}

// CreateVideo adds a catalog entry. Admin only.
func (h *Handler) CreateVideo(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req models.CreateVideoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	video := &models.Video{
		ID:           uuid.New(),
		Title:        req.Title,
		Description:  req.Description,
		Category:     req.Category,
		Duration:     req.Duration,
		VideoURL:     req.VideoURL,
		ThumbnailURL: req.ThumbnailURL,
		UploadedBy:   user.ID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.db.CreateVideo(r.Context(), video); err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to create video", err)
		return
	}
	respondSuccess(w, r, http.StatusCreated, video)
}

// DeleteVideo removes a catalog entry. Admin only.
func (h *Handler) DeleteVideo(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.db.DeleteVideo(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "Video not found", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to delete video", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]string{"message": "Video deleted"})
}

// AddSubtitle attaches a caption track to a video. Admin only.
func (h *Handler) AddSubtitle(w http.ResponseWriter, r *http.Request) {
	id, ok := pathUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req models.AddSubtitleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if _, err := h.db.GetVideo(r.Context(), id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "Video not found", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to load video", err)
		return
	}

	sub := models.Subtitle{Language: req.Language, URL: req.URL}
	if err := h.db.AddSubtitle(r.Context(), id, sub); err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to add subtitle", err)
		return
	}
	respondSuccess(w, r, http.StatusCreated, sub)
}

// LikeVideo bumps the like counter (monotonic, no unlike), credits the
// like weight to the caller's category affinity, and notifies the
// uploader. The notification and preference update are side effects:
// their failure never fails the like.
func (h *Handler) LikeVideo(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}
	id, ok := pathUUID(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	video, err := h.db.GetVideo(r.Context(), id)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "Video not found", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to load video", err)
		return
	}

	likes, err := h.db.IncrementVideoLikes(r.Context(), id)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to like video", err)
		return
	}

	if err := h.engine.RecordLike(r.Context(), user.ID, video.Category); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to record like preference")
	}

	sender := user.ID
	h.notifier.Notify(r.Context(), notify.Event{
		Recipient: video.UploadedBy,
		Sender:    &sender,
		Type:      models.NotificationLike,
		Title:     "New like on your video",
		Message:   user.Name + " liked \"" + video.Title + "\"",
		Link:      "/videos/" + video.ID.String(),
	})

	respondSuccess(w, r, http.StatusOK, map[string]int64{"likes": likes})
}

// WatchHistory records playback progress and credits the watch weight
// to the caller's category affinity. Every call counts toward affinity.
func (h *Handler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req models.WatchHistoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	video, err := h.db.GetVideo(r.Context(), req.VideoID)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			respondError(w, r, http.StatusNotFound, models.ErrCodeNotFound, "Video not found", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to load video", err)
		return
	}

	if err := h.db.UpsertWatchHistory(r.Context(), user.ID, req.VideoID, req.Progress); err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to record progress", err)
		return
	}
	if err := h.engine.RecordWatch(r.Context(), user.ID, video.Category); err != nil {
		logging.Ctx(r.Context()).Warn().Err(err).Msg("Failed to record watch preference")
	}

	respondSuccess(w, r, http.StatusOK, map[string]string{"message": "Progress saved"})
}

// Recommendations returns the caller's ranked unwatched videos.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	videos, err := h.engine.Recommend(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to build recommendations", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, videos)
}
