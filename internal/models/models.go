// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

// Package models defines the core domain entities shared between the
// database layer, services, and HTTP handlers.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Roles assignable to users.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Subscription plans.
const (
	PlanFree    = "free"
	PlanBasic   = "basic"
	PlanPremium = "premium"
)

// Subscription record statuses.
const (
	SubscriptionActive    = "active"
	SubscriptionCancelled = "cancelled"
)

// NotificationType identifies what kind of event a notification describes.
type NotificationType string

// Notification types.
const (
	NotificationLike     NotificationType = "like"
	NotificationComment  NotificationType = "comment"
	NotificationNewMovie NotificationType = "new_movie"
	NotificationPromo    NotificationType = "promo"
	NotificationSystem   NotificationType = "system"
)

// IsValidNotificationType reports whether t is a known notification type.
func IsValidNotificationType(t NotificationType) bool {
	switch t {
	case NotificationLike, NotificationComment, NotificationNewMovie,
		NotificationPromo, NotificationSystem:
		return true
	}
	return false
}

// VideoCategories is the closed set of catalog categories. Preference
// scores are keyed by these values.
var VideoCategories = []string{
	"Action", "Drama", "Comedy", "Horror", "Sci-Fi", "Romance", "Documentary",
}

// IsValidVideoCategory reports whether c is a known catalog category.
func IsValidVideoCategory(c string) bool {
	for _, known := range VideoCategories {
		if c == known {
			return true
		}
	}
	return false
}

// DiscussionCategories is the closed set of discussion board categories.
var DiscussionCategories = []string{
	"Review", "Discussion", "Recommendation", "Question",
}

// IsValidDiscussionCategory reports whether c is a known discussion category.
func IsValidDiscussionCategory(c string) bool {
	for _, known := range DiscussionCategories {
		if c == known {
			return true
		}
	}
	return false
}

// User is an account holder with engagement state attached.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`

	// Preferences maps catalog category to an affinity score accumulated
	// from engagement events. Only the recommendation scorer reads it.
	Preferences map[string]int `json:"preferences"`

	// WatchHistory holds at most one entry per video; progress updates
	// overwrite in place.
	WatchHistory []WatchHistoryEntry `json:"watchHistory"`

	Subscription UserSubscription `json:"subscription"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// UserSubscription is the subscription state embedded on the user record.
// The subscriptions table is the source of truth; these fields are the
// denormalized copy the middleware checks.
type UserSubscription struct {
	Plan      string     `json:"plan"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// IsActive reports whether the subscription currently grants paid access:
// a paid plan that has either no expiry or an expiry in the future.
func (s UserSubscription) IsActive(now time.Time) bool {
	if s.Plan == "" || s.Plan == PlanFree {
		return false
	}
	return s.ExpiresAt == nil || !s.ExpiresAt.Before(now)
}

// WatchHistoryEntry records a user's last playback position for one video.
type WatchHistoryEntry struct {
	VideoID   uuid.UUID `json:"videoId"`
	Progress  int       `json:"progress"`
	WatchedAt time.Time `json:"watchedAt"`
}

// Video is a catalog entry.
type Video struct {
	ID           uuid.UUID  `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Category     string     `json:"category"`
	Duration     int        `json:"duration"`
	VideoURL     string     `json:"videoUrl"`
	ThumbnailURL string     `json:"thumbnailUrl,omitempty"`
	Subtitles    []Subtitle `json:"subtitles,omitempty"`
	Views        int64      `json:"views"`
	Likes        int64      `json:"likes"`
	UploadedBy   uuid.UUID  `json:"uploadedBy"`
	UploaderName string     `json:"uploaderName,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// Subtitle is a caption track attached to a video.
type Subtitle struct {
	Language string `json:"language"`
	URL      string `json:"url"`
}

// Reel is a short-form clip.
type Reel struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	VideoURL     string    `json:"videoUrl"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	Views        int64     `json:"views"`
	Likes        int64     `json:"likes"`
	UploadedBy   uuid.UUID `json:"uploadedBy"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Discussion is a community post with a like set and ordered comments.
type Discussion struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"userId"`
	AuthorName string    `json:"authorName,omitempty"`
	Title      string    `json:"title"`
	Content    string    `json:"content"`
	Category   string    `json:"category"`
	MovieTitle string    `json:"movieTitle,omitempty"`
	Rating     int       `json:"rating,omitempty"`

	// Likes is a set of user IDs; membership toggles rather than counts.
	Likes    []uuid.UUID `json:"likes"`
	Comments []Comment   `json:"comments"`

	CreatedAt time.Time `json:"createdAt"`
}

// Comment is one entry in a discussion's comment list.
type Comment struct {
	ID         uuid.UUID `json:"id"`
	UserID     uuid.UUID `json:"userId"`
	AuthorName string    `json:"authorName,omitempty"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Notification is a one-way message to a recipient about an event. It is
// mutated only by read-state transitions and deleted only by TTL expiry.
type Notification struct {
	ID         uuid.UUID        `json:"id"`
	Recipient  uuid.UUID        `json:"recipient"`
	Sender     *uuid.UUID       `json:"sender,omitempty"`
	SenderName string           `json:"senderName,omitempty"`
	Type       NotificationType `json:"type"`
	Title      string           `json:"title"`
	Message    string           `json:"message"`
	Link       string           `json:"link,omitempty"`
	Read       bool             `json:"read"`
	CreatedAt  time.Time        `json:"createdAt"`
}

// SubscriptionRecord is an immutable audit entry for one payment session.
// The Stripe session ID is unique across all records; that constraint is
// what makes payment verification at-most-once.
type SubscriptionRecord struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"userId"`
	Plan            string    `json:"plan"`
	StripeSessionID string    `json:"stripeSessionId"`
	Status          string    `json:"status"`
	ExpiresAt       time.Time `json:"expiresAt"`
	CreatedAt       time.Time `json:"createdAt"`
}

// MovieReel is a short movie teaser assembled from TMDB metadata.
type MovieReel struct {
	ID         string `json:"id"`
	Title      string `json:"title"`
	Year       string `json:"year"`
	Genre      string `json:"genre"`
	Plot       string `json:"plot"`
	Rating     string `json:"rating"`
	Poster     string `json:"poster,omitempty"`
	Backdrop   string `json:"backdrop,omitempty"`
	ClipURL    string `json:"clipUrl,omitempty"`
	TrailerKey string `json:"trailerKey,omitempty"`
}
