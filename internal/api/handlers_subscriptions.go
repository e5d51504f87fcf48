// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

package api

import (
	"errors"
	"net/http"

	"github.com/streamx/streamx/internal/billing"
	"github.com/streamx/streamx/internal/models"
)

// CreateCheckout opens a Stripe checkout session for a paid plan and
// returns the hosted payment URL.
func (h *Handler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	var req models.CreateCheckoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	checkout, err := h.reconciler.CreateCheckout(r.Context(), user, req.Plan)
	if err != nil {
		if errors.Is(err, billing.ErrUnknownPlan) {
			respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "Unknown subscription plan", nil)
			return
		}
		respondError(w, r, http.StatusBadGateway, models.ErrCodeExternalService, "Payment provider is unavailable", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, checkout)
}

// VerifyPayment confirms a completed checkout session and activates the
// subscription for the user recorded in the session metadata. Safe to
// call repeatedly with the same session: the first call activates,
// later calls return the same state.
func (h *Handler) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.requireUser(w, r); !ok {
		return
	}

	var req models.VerifyPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	status, err := h.reconciler.VerifyPayment(r.Context(), req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, billing.ErrPaymentIncomplete):
			respondError(w, r, http.StatusBadRequest, models.ErrCodePaymentIncomplete, "Payment has not been completed", nil)
		case errors.Is(err, billing.ErrUnknownPlan):
			respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "Checkout session references an unknown plan", nil)
		case errors.Is(err, billing.ErrInvalidSession):
			respondError(w, r, http.StatusBadRequest, models.ErrCodeValidation, "Checkout session metadata is missing or invalid", nil)
		default:
			respondError(w, r, http.StatusBadGateway, models.ErrCodeExternalService, "Failed to verify payment", err)
		}
		return
	}

	respondSuccess(w, r, http.StatusOK, models.VerifyPaymentResponse{
		Message:      "Subscription activated",
		Subscription: *status,
	})
}

// MySubscription returns the caller's current plan and expiry.
func (h *Handler) MySubscription(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	status, err := h.reconciler.Status(r.Context(), user.ID)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to load subscription", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, status)
}

// CancelSubscription downgrades the caller to the free plan. Payment
// records are kept for audit; access ends immediately.
func (h *Handler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	user, ok := h.requireUser(w, r)
	if !ok {
		return
	}

	if err := h.reconciler.Cancel(r.Context(), user.ID); err != nil {
		respondError(w, r, http.StatusInternalServerError, models.ErrCodeDatabase, "Failed to cancel subscription", err)
		return
	}
	respondSuccess(w, r, http.StatusOK, map[string]string{"message": "Subscription cancelled"})
}
