// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

package database

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/streamx/streamx/internal/config"
	"github.com/streamx/streamx/internal/models"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(&config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})
	return db
}

func newTestUser(t *testing.T, db *DB, email string) *models.User {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	u := &models.User{
		ID:           uuid.New(),
		Name:         "Test User",
		Email:        email,
		PasswordHash: "$2a$10$test",
		Role:         models.RoleUser,
		Subscription: models.UserSubscription{Plan: models.PlanFree},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := db.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return u
}

func newTestVideo(t *testing.T, db *DB, uploader uuid.UUID, title, category string) *models.Video {
	t.Helper()
	v := &models.Video{
		ID:         uuid.New(),
		Title:      title,
		Category:   category,
		VideoURL:   "https://cdn.example.com/" + title + ".mp4",
		UploadedBy: uploader,
		CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
	}
	if err := db.CreateVideo(context.Background(), v); err != nil {
		t.Fatalf("failed to create video: %v", err)
	}
	return v
}

func TestCreateUserDuplicateEmail(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	newTestUser(t, db, "dup@example.com")

	u := &models.User{
		ID:           uuid.New(),
		Name:         "Second",
		Email:        "dup@example.com",
		PasswordHash: "$2a$10$test",
		Role:         models.RoleUser,
		CreatedAt:    time.Now().UTC(),
		UpdatedAt:    time.Now().UTC(),
	}
	if err := db.CreateUser(context.Background(), u); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetUserByIDAttachesEngagementState(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()
	u := newTestUser(t, db, "engaged@example.com")
	v := newTestVideo(t, db, u.ID, "First", "Action")

	if err := db.IncrementPreference(ctx, u.ID, "Action", 5); err != nil {
		t.Fatalf("failed to increment preference: %v", err)
	}
	if err := db.UpsertWatchHistory(ctx, u.ID, v.ID, 42); err != nil {
		t.Fatalf("failed to upsert watch history: %v", err)
	}

	got, err := db.GetUserByID(ctx, u.ID)
	if err != nil {
		t.Fatalf("failed to get user: %v", err)
	}
	if got.Preferences["Action"] != 5 {
		t.Errorf("expected Action preference 5, got %d", got.Preferences["Action"])
	}
	if len(got.WatchHistory) != 1 || got.WatchHistory[0].Progress != 42 {
		t.Errorf("unexpected watch history: %+v", got.WatchHistory)
	}
}

func TestIncrementPreferenceAccumulates(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()
	u := newTestUser(t, db, "prefs@example.com")

	for i := 0; i < 3; i++ {
		if err := db.IncrementPreference(ctx, u.ID, "Comedy", 3); err != nil {
			t.Fatalf("failed to increment: %v", err)
		}
	}
	prefs, err := db.GetPreferences(ctx, u.ID)
	if err != nil {
		t.Fatalf("failed to get preferences: %v", err)
	}
	if prefs["Comedy"] != 9 {
		t.Errorf("expected Comedy score 9, got %d", prefs["Comedy"])
	}
}

func TestUpsertWatchHistoryOverwrites(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()
	u := newTestUser(t, db, "history@example.com")
	v := newTestVideo(t, db, u.ID, "Rewatched", "Drama")

	if err := db.UpsertWatchHistory(ctx, u.ID, v.ID, 10); err != nil {
		t.Fatalf("failed first upsert: %v", err)
	}
	if err := db.UpsertWatchHistory(ctx, u.ID, v.ID, 95); err != nil {
		t.Fatalf("failed second upsert: %v", err)
	}

	history, err := db.GetWatchHistory(ctx, u.ID)
	if err != nil {
		t.Fatalf("failed to get history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected one entry per video, got %d", len(history))
	}
	if history[0].Progress != 95 {
		t.Errorf("expected progress 95, got %d", history[0].Progress)
	}
}

func TestIncrementVideoLikesMonotonic(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()
	u := newTestUser(t, db, "likes@example.com")
	v := newTestVideo(t, db, u.ID, "Liked", "Horror")

	for want := int64(1); want <= 3; want++ {
		got, err := db.IncrementVideoLikes(ctx, v.ID)
		if err != nil {
			t.Fatalf("failed to increment likes: %v", err)
		}
		if got != want {
			t.Errorf("expected like count %d, got %d", want, got)
		}
	}

	if _, err := db.IncrementVideoLikes(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown video, got %v", err)
	}
}

func TestToggleDiscussionLikeSetSemantics(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()
	u := newTestUser(t, db, "toggle@example.com")

	d := &models.Discussion{
		ID:        uuid.New(),
		UserID:    u.ID,
		Title:     "Favorite endings",
		Content:   "Which one surprised you most?",
		Category:  "Discussion",
		CreatedAt: time.Now().UTC(),
	}
	if err := db.CreateDiscussion(ctx, d); err != nil {
		t.Fatalf("failed to create discussion: %v", err)
	}

	liked, err := db.ToggleDiscussionLike(ctx, d.ID, u.ID)
	if err != nil || !liked {
		t.Fatalf("expected first toggle to like, got liked=%v err=%v", liked, err)
	}
	liked, err = db.ToggleDiscussionLike(ctx, d.ID, u.ID)
	if err != nil || liked {
		t.Fatalf("expected second toggle to unlike, got liked=%v err=%v", liked, err)
	}

	got, err := db.GetDiscussion(ctx, d.ID)
	if err != nil {
		t.Fatalf("failed to get discussion: %v", err)
	}
	if len(got.Likes) != 0 {
		t.Errorf("expected empty like set after toggle pair, got %d", len(got.Likes))
	}

	if _, err := db.ToggleDiscussionLike(ctx, uuid.New(), u.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown discussion, got %v", err)
	}
}

func TestDeleteDiscussionRemovesEngagement(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()
	author := newTestUser(t, db, "author@example.com")
	fan := newTestUser(t, db, "fan@example.com")

	d := &models.Discussion{
		ID:        uuid.New(),
		UserID:    author.ID,
		Title:     "Best pilot episodes",
		Content:   "Which show hooked you from the first hour?",
		Category:  "Discussion",
		CreatedAt: time.Now().UTC(),
	}
	if err := db.CreateDiscussion(ctx, d); err != nil {
		t.Fatalf("failed to create discussion: %v", err)
	}
	if _, err := db.ToggleDiscussionLike(ctx, d.ID, fan.ID); err != nil {
		t.Fatalf("failed to like discussion: %v", err)
	}
	if err := db.AddComment(ctx, d.ID, &models.Comment{
		ID: uuid.New(), UserID: fan.ID, Text: "Easy pick.", CreatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("failed to add comment: %v", err)
	}

	if err := db.DeleteDiscussion(ctx, d.ID); err != nil {
		t.Fatalf("failed to delete discussion: %v", err)
	}
	if _, err := db.GetDiscussion(ctx, d.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}

	// The like and comment rows go with the post.
	var likes, comments int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM discussion_likes WHERE discussion_id = ?`, d.ID).Scan(&likes); err != nil {
		t.Fatalf("failed to count likes: %v", err)
	}
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM discussion_comments WHERE discussion_id = ?`, d.ID).Scan(&comments); err != nil {
		t.Fatalf("failed to count comments: %v", err)
	}
	if likes != 0 || comments != 0 {
		t.Errorf("expected orphaned rows removed, got %d likes and %d comments", likes, comments)
	}

	if err := db.DeleteDiscussion(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown discussion, got %v", err)
	}
}

func TestListNotificationsCapAndOrder(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()
	u := newTestUser(t, db, "inbox@example.com")

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 60; i++ {
		n := &models.Notification{
			ID:        uuid.New(),
			Recipient: u.ID,
			Type:      models.NotificationSystem,
			Title:     "Update",
			Message:   "message",
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		if err := db.InsertNotification(ctx, n); err != nil {
			t.Fatalf("failed to insert notification: %v", err)
		}
	}

	list, err := db.ListNotifications(ctx, u.ID, 50)
	if err != nil {
		t.Fatalf("failed to list notifications: %v", err)
	}
	if len(list) != 50 {
		t.Fatalf("expected 50 notifications, got %d", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i].CreatedAt.After(list[i-1].CreatedAt) {
			t.Fatalf("expected newest-first ordering at index %d", i)
		}
	}
}

func TestMarkNotificationReadOwnedOnly(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()
	owner := newTestUser(t, db, "owner@example.com")
	other := newTestUser(t, db, "other@example.com")

	n := &models.Notification{
		ID:        uuid.New(),
		Recipient: owner.ID,
		Type:      models.NotificationLike,
		Title:     "New like",
		Message:   "Someone liked your video",
		CreatedAt: time.Now().UTC(),
	}
	if err := db.InsertNotification(ctx, n); err != nil {
		t.Fatalf("failed to insert notification: %v", err)
	}

	if err := db.MarkNotificationRead(ctx, n.ID, other.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for non-recipient, got %v", err)
	}
	if err := db.MarkNotificationRead(ctx, n.ID, owner.ID); err != nil {
		t.Fatalf("expected recipient to mark read, got %v", err)
	}

	unread, err := db.CountUnread(ctx, owner.ID)
	if err != nil {
		t.Fatalf("failed to count unread: %v", err)
	}
	if unread != 0 {
		t.Errorf("expected 0 unread, got %d", unread)
	}
}

func TestDeleteExpiredNotifications(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()
	u := newTestUser(t, db, "ttl@example.com")

	old := &models.Notification{
		ID:        uuid.New(),
		Recipient: u.ID,
		Type:      models.NotificationPromo,
		Title:     "Old promo",
		Message:   "expired",
		CreatedAt: time.Now().UTC().Add(-31 * 24 * time.Hour),
	}
	fresh := &models.Notification{
		ID:        uuid.New(),
		Recipient: u.ID,
		Type:      models.NotificationPromo,
		Title:     "Fresh promo",
		Message:   "current",
		CreatedAt: time.Now().UTC(),
	}
	for _, n := range []*models.Notification{old, fresh} {
		if err := db.InsertNotification(ctx, n); err != nil {
			t.Fatalf("failed to insert notification: %v", err)
		}
	}

	cutoff := time.Now().UTC().Add(-30 * 24 * time.Hour)
	deleted, err := db.DeleteExpiredNotifications(ctx, cutoff)
	if err != nil {
		t.Fatalf("failed to delete expired: %v", err)
	}
	if deleted != 1 {
		t.Errorf("expected 1 deleted, got %d", deleted)
	}

	list, err := db.ListNotifications(ctx, u.ID, 50)
	if err != nil {
		t.Fatalf("failed to list: %v", err)
	}
	if len(list) != 1 || list[0].Title != "Fresh promo" {
		t.Errorf("expected only fresh notification to survive, got %+v", list)
	}
}

func TestInsertSubscriptionRecordDuplicateSession(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()
	u := newTestUser(t, db, "payer@example.com")

	rec := &models.SubscriptionRecord{
		ID:              uuid.New(),
		UserID:          u.ID,
		Plan:            models.PlanPremium,
		StripeSessionID: "cs_test_abc123",
		Status:          models.SubscriptionActive,
		ExpiresAt:       time.Now().UTC().AddDate(0, 1, 0),
		CreatedAt:       time.Now().UTC(),
	}
	if err := db.InsertSubscriptionRecord(ctx, rec); err != nil {
		t.Fatalf("failed first insert: %v", err)
	}

	dup := *rec
	dup.ID = uuid.New()
	if err := db.InsertSubscriptionRecord(ctx, &dup); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for reused session, got %v", err)
	}

	got, err := db.GetSubscriptionBySessionID(ctx, "cs_test_abc123")
	if err != nil {
		t.Fatalf("failed to fetch record: %v", err)
	}
	if got.ID != rec.ID {
		t.Errorf("expected original record to win, got %s", got.ID)
	}
}

func TestCancelActiveSubscriptionsKeepsRecords(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()
	u := newTestUser(t, db, "cancel@example.com")

	rec := &models.SubscriptionRecord{
		ID:              uuid.New(),
		UserID:          u.ID,
		Plan:            models.PlanBasic,
		StripeSessionID: "cs_test_cancel",
		Status:          models.SubscriptionActive,
		ExpiresAt:       time.Now().UTC().AddDate(0, 1, 0),
		CreatedAt:       time.Now().UTC(),
	}
	if err := db.InsertSubscriptionRecord(ctx, rec); err != nil {
		t.Fatalf("failed to insert record: %v", err)
	}

	n, err := db.CancelActiveSubscriptions(ctx, u.ID)
	if err != nil {
		t.Fatalf("failed to cancel: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 cancelled, got %d", n)
	}

	recs, err := db.ListSubscriptionRecords(ctx, u.ID)
	if err != nil {
		t.Fatalf("failed to list records: %v", err)
	}
	if len(recs) != 1 || recs[0].Status != models.SubscriptionCancelled {
		t.Errorf("expected cancelled record retained, got %+v", recs)
	}
}

func TestListVideosFilters(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)
	ctx := context.Background()
	u := newTestUser(t, db, "uploader@example.com")
	newTestVideo(t, db, u.ID, "Galaxy Quest", "Sci-Fi")
	newTestVideo(t, db, u.ID, "Quiet Drama", "Drama")

	scifi, err := db.ListVideos(ctx, "Sci-Fi", "")
	if err != nil {
		t.Fatalf("failed to list by category: %v", err)
	}
	if len(scifi) != 1 || scifi[0].Title != "Galaxy Quest" {
		t.Errorf("unexpected category filter result: %+v", scifi)
	}

	found, err := db.ListVideos(ctx, "", "galaxy")
	if err != nil {
		t.Fatalf("failed to search: %v", err)
	}
	if len(found) != 1 || found[0].Title != "Galaxy Quest" {
		t.Errorf("unexpected search result: %+v", found)
	}
}
