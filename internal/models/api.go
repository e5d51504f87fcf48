// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

package models

import (
	"time"

	"github.com/google/uuid"
)

// APIResponse is the standardized envelope for all API endpoints.
type APIResponse struct {
	// Status is "success" or "error".
	Status string `json:"status"`

	// Data contains the response payload (null on error).
	Data interface{} `json:"data,omitempty"`

	// Error contains error details (null on success).
	Error *APIError `json:"error,omitempty"`

	// Metadata describes the response itself.
	Metadata Metadata `json:"metadata"`
}

// APIError is a machine-readable error payload.
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// Metadata carries response generation info.
type Metadata struct {
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}

// Error codes used across API responses.
const (
	ErrCodeValidation        = "VALIDATION_ERROR"
	ErrCodeAuthRequired      = "AUTH_REQUIRED"
	ErrCodeForbidden         = "FORBIDDEN"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodePaymentIncomplete = "PAYMENT_INCOMPLETE"
	ErrCodeExternalService   = "EXTERNAL_SERVICE_ERROR"
	ErrCodeDatabase          = "DATABASE_ERROR"
	ErrCodeInternal          = "INTERNAL_ERROR"
	ErrCodeMethodNotAllowed  = "METHOD_NOT_ALLOWED"
	ErrCodeTooManyRequests   = "TOO_MANY_REQUESTS"
)

// RegisterRequest is the body of POST /api/v1/auth/register.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=128"`
}

// LoginRequest is the body of POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest is the body of PUT /api/v1/auth/profile.
type UpdateProfileRequest struct {
	Name  string `json:"name" validate:"omitempty,max=100"`
	Email string `json:"email" validate:"omitempty,email"`
}

// AuthResponse is returned by register and login.
type AuthResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
	User    *User  `json:"user"`
}

// CreateVideoRequest is the body of POST /api/v1/videos.
type CreateVideoRequest struct {
	Title        string `json:"title" validate:"required,max=200"`
	Description  string `json:"description" validate:"max=5000"`
	Category     string `json:"category" validate:"required,video_category"`
	Duration     int    `json:"duration" validate:"required,min=1"`
	VideoURL     string `json:"videoUrl" validate:"required,uri"`
	ThumbnailURL string `json:"thumbnailUrl" validate:"omitempty,uri"`
}

// AddSubtitleRequest is the body of POST /api/v1/videos/{id}/subtitles.
type AddSubtitleRequest struct {
	Language string `json:"language" validate:"required,max=50"`
	URL      string `json:"url" validate:"required,uri"`
}

// WatchHistoryRequest is the body of POST /api/v1/videos/watch-history.
type WatchHistoryRequest struct {
	VideoID  uuid.UUID `json:"videoId" validate:"required"`
	Progress int       `json:"progress" validate:"min=0"`
}

// CreateReelRequest is the body of POST /api/v1/reels.
type CreateReelRequest struct {
	Title        string `json:"title" validate:"required,max=200"`
	VideoURL     string `json:"videoUrl" validate:"required,uri"`
	ThumbnailURL string `json:"thumbnailUrl" validate:"omitempty,uri"`
}

// CreateDiscussionRequest is the body of POST /api/v1/discussions.
type CreateDiscussionRequest struct {
	Title      string `json:"title" validate:"required,max=200"`
	Content    string `json:"content" validate:"required,max=5000"`
	Category   string `json:"category" validate:"required,discussion_category"`
	MovieTitle string `json:"movieTitle" validate:"max=200"`
	Rating     int    `json:"rating" validate:"omitempty,min=1,max=5"`
}

// AddCommentRequest is the body of POST /api/v1/discussions/{id}/comment.
type AddCommentRequest struct {
	Text string `json:"text" validate:"required,max=1000"`
}

// SendNotificationRequest is the body of POST /api/v1/notifications/send.
type SendNotificationRequest struct {
	RecipientID uuid.UUID        `json:"recipientId" validate:"required"`
	Type        NotificationType `json:"type" validate:"required,notification_type"`
	Title       string           `json:"title" validate:"required,max=200"`
	Message     string           `json:"message" validate:"required,max=2000"`
	Link        string           `json:"link" validate:"max=500"`
}

// BroadcastRequest is the body of POST /api/v1/notifications/broadcast.
type BroadcastRequest struct {
	Type    NotificationType `json:"type" validate:"required,notification_type"`
	Title   string           `json:"title" validate:"required,max=200"`
	Message string           `json:"message" validate:"required,max=2000"`
	Link    string           `json:"link" validate:"max=500"`
}

// UnreadCountResponse is returned by GET /api/v1/notifications/unread-count.
type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

// BroadcastResponse is returned by POST /api/v1/notifications/broadcast.
type BroadcastResponse struct {
	Message string `json:"message"`
	Count   int64  `json:"count"`
}

// CreateCheckoutRequest is the body of POST /api/v1/subscriptions/create-checkout.
type CreateCheckoutRequest struct {
	Plan string `json:"plan" validate:"required,paid_plan"`
}

// CheckoutResponse is returned by create-checkout.
type CheckoutResponse struct {
	SessionID string `json:"sessionId"`
	URL       string `json:"url"`
}

// VerifyPaymentRequest is the body of POST /api/v1/subscriptions/verify-payment.
type VerifyPaymentRequest struct {
	SessionID string `json:"sessionId" validate:"required"`
}

// SubscriptionStatus is the subscription payload returned to clients.
type SubscriptionStatus struct {
	Plan      string     `json:"plan"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// VerifyPaymentResponse is returned by verify-payment.
type VerifyPaymentResponse struct {
	Message      string             `json:"message"`
	Subscription SubscriptionStatus `json:"subscription"`
}
