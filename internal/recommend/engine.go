// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

// Package recommend implements preference-based video recommendations.
//
// Scoring model: each user accumulates per-category affinity scores
// from engagement events (liking a video, reporting watch progress).
// A candidate video's score is the user's affinity for its category,
// zero when the user has never engaged with that category. Videos the
// user has already watched are excluded before scoring.
package recommend

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/streamx/streamx/internal/config"
	"github.com/streamx/streamx/internal/database"
	"github.com/streamx/streamx/internal/metrics"
	"github.com/streamx/streamx/internal/models"
)

// Engine assembles recommendation lists.
type Engine struct {
	db  *database.DB
	cfg *config.RecommendConfig
}

// NewEngine creates the recommendation engine.
func NewEngine(db *database.DB, cfg *config.RecommendConfig) *Engine {
	return &Engine{db: db, cfg: cfg}
}

// Recommend returns up to the configured limit of unwatched videos,
// highest affinity first. The sort is stable: videos with equal scores
// keep their catalog order (newest first), so a user with no
// preferences sees the newest unwatched videos.
func (e *Engine) Recommend(ctx context.Context, userID uuid.UUID) ([]models.Video, error) {
	start := time.Now()

	prefs, err := e.db.GetPreferences(ctx, userID)
	if err != nil {
		return nil, err
	}
	watched, err := e.db.GetWatchedVideoIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	catalog, err := e.db.ListVideos(ctx, "", "")
	if err != nil {
		return nil, err
	}

	candidates := make([]models.Video, 0, len(catalog))
	for _, v := range catalog {
		if _, seen := watched[v.ID]; seen {
			continue
		}
		candidates = append(candidates, v)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return prefs[candidates[i].Category] > prefs[candidates[j].Category]
	})

	if len(candidates) > e.cfg.Limit {
		candidates = candidates[:e.cfg.Limit]
	}

	metrics.RecommendationsServed.Inc()
	metrics.RecommendationDuration.Observe(time.Since(start).Seconds())
	return candidates, nil
}

// RecordLike credits the like weight to the user's affinity for the
// video's category.
func (e *Engine) RecordLike(ctx context.Context, userID uuid.UUID, category string) error {
	return e.db.IncrementPreference(ctx, userID, category, e.cfg.LikeWeight)
}

// RecordWatch credits the watch weight to the user's affinity for the
// video's category. Every progress report counts; rewatching a video
// keeps strengthening its category.
func (e *Engine) RecordWatch(ctx context.Context, userID uuid.UUID, category string) error {
	return e.db.IncrementPreference(ctx, userID, category, e.cfg.WatchWeight)
}
