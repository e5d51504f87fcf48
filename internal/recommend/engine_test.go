// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

package recommend

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/streamx/streamx/internal/config"
	"github.com/streamx/streamx/internal/database"
	"github.com/streamx/streamx/internal/models"
)

func newTestEngine(t *testing.T) (*Engine, *database.DB) {
	t.Helper()
	db, err := database.New(&config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := &config.RecommendConfig{Limit: 20, LikeWeight: 5, WatchWeight: 3}
	return NewEngine(db, cfg), db
}

func createUser(t *testing.T, db *database.DB) *models.User {
	t.Helper()
	now := time.Now().UTC()
	u := &models.User{
		ID:           uuid.New(),
		Name:         "Viewer",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "$2a$04$test",
		Role:         models.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return u
}

func createVideo(t *testing.T, db *database.DB, uploader uuid.UUID, title, category string, age time.Duration) *models.Video {
	t.Helper()
	v := &models.Video{
		ID:         uuid.New(),
		Title:      title,
		Category:   category,
		VideoURL:   "https://cdn.example.com/" + title + ".mp4",
		UploadedBy: uploader,
		CreatedAt:  time.Now().UTC().Add(-age),
	}
	if err := db.CreateVideo(context.Background(), v); err != nil {
		t.Fatalf("failed to create video: %v", err)
	}
	return v
}

func TestRecommendExcludesWatchedAndRanksByAffinity(t *testing.T) {
	t.Parallel()
	engine, db := newTestEngine(t)
	ctx := context.Background()
	user := createUser(t, db)
	uploader := createUser(t, db)

	videoX := createVideo(t, db, uploader.ID, "videoX", "Action", 4*time.Hour)
	videoY := createVideo(t, db, uploader.ID, "videoY", "Action", 3*time.Hour)
	videoZ := createVideo(t, db, uploader.ID, "videoZ", "Comedy", 2*time.Hour)
	videoW := createVideo(t, db, uploader.ID, "videoW", "Drama", time.Hour)
	_ = videoY
	_ = videoZ
	_ = videoW

	if err := db.IncrementPreference(ctx, user.ID, "Action", 5); err != nil {
		t.Fatalf("failed to set preference: %v", err)
	}
	if err := db.IncrementPreference(ctx, user.ID, "Comedy", 2); err != nil {
		t.Fatalf("failed to set preference: %v", err)
	}
	if err := db.UpsertWatchHistory(ctx, user.ID, videoX.ID, 100); err != nil {
		t.Fatalf("failed to record watch: %v", err)
	}

	got, err := engine.Recommend(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to recommend: %v", err)
	}

	want := []string{"videoY", "videoZ", "videoW"}
	if len(got) != len(want) {
		t.Fatalf("expected %d videos, got %d", len(want), len(got))
	}
	for i, title := range want {
		if got[i].Title != title {
			t.Errorf("position %d: expected %s, got %s", i, title, got[i].Title)
		}
	}
}

func TestRecommendNoPreferencesKeepsNewestFirst(t *testing.T) {
	t.Parallel()
	engine, db := newTestEngine(t)
	ctx := context.Background()
	user := createUser(t, db)
	uploader := createUser(t, db)

	createVideo(t, db, uploader.ID, "oldest", "Horror", 3*time.Hour)
	createVideo(t, db, uploader.ID, "middle", "Drama", 2*time.Hour)
	createVideo(t, db, uploader.ID, "newest", "Comedy", time.Hour)

	got, err := engine.Recommend(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to recommend: %v", err)
	}

	want := []string{"newest", "middle", "oldest"}
	for i, title := range want {
		if got[i].Title != title {
			t.Errorf("position %d: expected %s, got %s", i, title, got[i].Title)
		}
	}
}

func TestRecommendCapsAtLimit(t *testing.T) {
	t.Parallel()
	engine, db := newTestEngine(t)
	ctx := context.Background()
	user := createUser(t, db)
	uploader := createUser(t, db)

	for i := 0; i < 25; i++ {
		createVideo(t, db, uploader.ID, uuid.NewString(), "Action", time.Duration(i)*time.Minute)
	}

	got, err := engine.Recommend(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to recommend: %v", err)
	}
	if len(got) != 20 {
		t.Errorf("expected 20 videos, got %d", len(got))
	}
}

func TestRecordLikeAndWatchWeights(t *testing.T) {
	t.Parallel()
	engine, db := newTestEngine(t)
	ctx := context.Background()
	user := createUser(t, db)

	if err := engine.RecordLike(ctx, user.ID, "Sci-Fi"); err != nil {
		t.Fatalf("failed to record like: %v", err)
	}
	if err := engine.RecordWatch(ctx, user.ID, "Sci-Fi"); err != nil {
		t.Fatalf("failed to record watch: %v", err)
	}
	if err := engine.RecordWatch(ctx, user.ID, "Sci-Fi"); err != nil {
		t.Fatalf("failed to record watch: %v", err)
	}

	prefs, err := db.GetPreferences(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to get preferences: %v", err)
	}
	if prefs["Sci-Fi"] != 11 {
		t.Errorf("expected Sci-Fi score 11 (5+3+3), got %d", prefs["Sci-Fi"])
	}
}
