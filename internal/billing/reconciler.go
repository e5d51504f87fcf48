// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/streamx/streamx/internal/database"
	"github.com/streamx/streamx/internal/logging"
	"github.com/streamx/streamx/internal/metrics"
	"github.com/streamx/streamx/internal/models"
	"github.com/streamx/streamx/internal/notify"
)

var (
	// ErrPaymentIncomplete indicates the Stripe session exists but has
	// not been paid yet.
	ErrPaymentIncomplete = errors.New("payment not completed")

	// ErrUnknownPlan indicates a plan name outside the paid set.
	ErrUnknownPlan = errors.New("unknown subscription plan")

	// ErrInvalidSession indicates a paid session whose metadata is
	// missing or malformed; it cannot be attributed to a user.
	ErrInvalidSession = errors.New("invalid checkout session metadata")
)

// planPricing maps paid plans to their checkout price.
var planPricing = map[string]struct {
	Cents int64
	Label string
}{
	models.PlanBasic:   {Cents: 999, Label: "StreamX Basic (1 month)"},
	models.PlanPremium: {Cents: 1999, Label: "StreamX Premium (1 month)"},
}

// Reconciler drives the checkout and verification flow. Verification is
// idempotent: the unique Stripe session ID in the subscriptions table
// guarantees each paid session activates a subscription exactly once,
// no matter how many times or how concurrently it is verified.
type Reconciler struct {
	db        *database.DB
	stripe    *StripeClient
	notifier  *notify.Service
	clientURL string
}

// NewReconciler creates the payment reconciler.
func NewReconciler(db *database.DB, stripe *StripeClient, notifier *notify.Service, clientURL string) *Reconciler {
	return &Reconciler{
		db:        db,
		stripe:    stripe,
		notifier:  notifier,
		clientURL: clientURL,
	}
}

// CreateCheckout opens a Stripe Checkout session for a paid plan and
// returns the session ID and redirect URL.
func (r *Reconciler) CreateCheckout(ctx context.Context, user *models.User, plan string) (*models.CheckoutResponse, error) {
	pricing, ok := planPricing[plan]
	if !ok {
		return nil, ErrUnknownPlan
	}

	session, err := r.stripe.CreateCheckoutSession(ctx, CreateSessionParams{
		PriceCents:  pricing.Cents,
		Currency:    "usd",
		ProductName: pricing.Label,
		SuccessURL:  r.clientURL + "/subscription/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   r.clientURL + "/subscription/cancel",
		Metadata: map[string]string{
			"user_id": user.ID.String(),
			"plan":    plan,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	logging.Ctx(ctx).Info().
		Str("user_id", user.ID.String()).
		Str("plan", plan).
		Str("session_id", session.ID).
		Msg("Checkout session created")
	return &models.CheckoutResponse{SessionID: session.ID, URL: session.URL}, nil
}

// VerifyPayment confirms a checkout session with Stripe and activates
// the subscription it paid for. The subscription belongs to the user
// named in the session metadata, not necessarily the caller. Safe to
// call repeatedly with the same session: the first call activates,
// later calls return the already recorded state without touching the
// user again. Two concurrent first calls race on the unique session ID
// constraint; the loser refetches the winner's record.
func (r *Reconciler) VerifyPayment(ctx context.Context, sessionID string) (*models.SubscriptionStatus, error) {
	// An already recorded session is settled; answer from our own
	// table without another Stripe round-trip or user update.
	existing, err := r.db.GetSubscriptionBySessionID(ctx, sessionID)
	if err == nil {
		metrics.PaymentsVerified.WithLabelValues("duplicate").Inc()
		return &models.SubscriptionStatus{Plan: existing.Plan, ExpiresAt: &existing.ExpiresAt}, nil
	}
	if !errors.Is(err, database.ErrNotFound) {
		return nil, fmt.Errorf("failed to query subscription record: %w", err)
	}

	session, err := r.stripe.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		metrics.PaymentsVerified.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("failed to retrieve checkout session: %w", err)
	}
	if !session.Paid() {
		metrics.PaymentsVerified.WithLabelValues("incomplete").Inc()
		return nil, ErrPaymentIncomplete
	}

	plan := session.Metadata["plan"]
	if _, ok := planPricing[plan]; !ok {
		metrics.PaymentsVerified.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, plan)
	}
	payerID, err := uuid.Parse(session.Metadata["user_id"])
	if err != nil {
		metrics.PaymentsVerified.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("%w: user_id %q", ErrInvalidSession, session.Metadata["user_id"])
	}

	now := time.Now().UTC()
	expiresAt := now.AddDate(0, 1, 0)
	rec := &models.SubscriptionRecord{
		ID:              uuid.New(),
		UserID:          payerID,
		Plan:            plan,
		StripeSessionID: session.ID,
		Status:          models.SubscriptionActive,
		ExpiresAt:       expiresAt,
		CreatedAt:       now,
	}

	err = r.db.InsertSubscriptionRecord(ctx, rec)
	if errors.Is(err, database.ErrDuplicate) {
		// Lost the race: the winner already activated the user, so the
		// stored record is the whole answer.
		existing, getErr := r.db.GetSubscriptionBySessionID(ctx, session.ID)
		if getErr != nil {
			return nil, fmt.Errorf("failed to load existing subscription: %w", getErr)
		}
		metrics.PaymentsVerified.WithLabelValues("duplicate").Inc()
		return &models.SubscriptionStatus{Plan: existing.Plan, ExpiresAt: &existing.ExpiresAt}, nil
	}
	if err != nil {
		metrics.PaymentsVerified.WithLabelValues("error").Inc()
		return nil, err
	}
	metrics.PaymentsVerified.WithLabelValues("activated").Inc()

	if err := r.db.UpdateUserSubscription(ctx, rec.UserID, rec.Plan, &rec.ExpiresAt); err != nil {
		return nil, fmt.Errorf("failed to update user subscription: %w", err)
	}

	r.notifier.Notify(ctx, notify.Event{
		Recipient: rec.UserID,
		Type:      models.NotificationSystem,
		Title:     "Subscription activated",
		Message:   fmt.Sprintf("Your %s plan is active until %s.", rec.Plan, rec.ExpiresAt.Format("January 2, 2006")),
	})

	logging.Ctx(ctx).Info().
		Str("user_id", rec.UserID.String()).
		Str("plan", rec.Plan).
		Str("session_id", session.ID).
		Time("expires_at", rec.ExpiresAt).
		Msg("Subscription activated")
	return &models.SubscriptionStatus{Plan: rec.Plan, ExpiresAt: &rec.ExpiresAt}, nil
}

// Cancel downgrades the user to the free plan. Payment records are kept
// with a cancelled status for auditing; nothing is deleted.
func (r *Reconciler) Cancel(ctx context.Context, userID uuid.UUID) error {
	if _, err := r.db.CancelActiveSubscriptions(ctx, userID); err != nil {
		return err
	}
	if err := r.db.UpdateUserSubscription(ctx, userID, models.PlanFree, nil); err != nil {
		return err
	}
	metrics.SubscriptionsCancelled.Inc()
	logging.Ctx(ctx).Info().Str("user_id", userID.String()).Msg("Subscription cancelled")
	return nil
}

// Status returns the user's current subscription state, derived from
// the denormalized fields on the user record.
func (r *Reconciler) Status(ctx context.Context, userID uuid.UUID) (*models.SubscriptionStatus, error) {
	user, err := r.db.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.SubscriptionStatus{
		Plan:      user.Subscription.Plan,
		ExpiresAt: user.Subscription.ExpiresAt,
	}, nil
}
