// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/streamx/streamx/internal/config"
	"github.com/streamx/streamx/internal/database"
	"github.com/streamx/streamx/internal/models"
	"github.com/streamx/streamx/internal/notify"
)

// fakeStripe is an httptest-backed stand-in for the Stripe Checkout API.
type fakeStripe struct {
	mu       sync.Mutex
	sessions map[string]*CheckoutSession
	counter  int
}

func newFakeStripe() *fakeStripe {
	return &fakeStripe{sessions: make(map[string]*CheckoutSession)}
}

func (f *fakeStripe) addPaidSession(id, plan string, userID uuid.UUID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[id] = &CheckoutSession{
		ID:            id,
		PaymentStatus: "paid",
		Status:        "complete",
		Metadata:      map[string]string{"plan": plan, "user_id": userID.String()},
	}
}

// addPaidOrphanSession records a paid session with no user_id in its
// metadata, the shape a session forged outside CreateCheckout would have.
func (f *fakeStripe) addPaidOrphanSession(id, plan string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[id] = &CheckoutSession{
		ID:            id,
		PaymentStatus: "paid",
		Status:        "complete",
		Metadata:      map[string]string{"plan": plan},
	}
}

func (f *fakeStripe) addUnpaidSession(id, plan string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[id] = &CheckoutSession{
		ID:            id,
		PaymentStatus: "unpaid",
		Status:        "open",
		Metadata:      map[string]string{"plan": plan},
	}
}

func (f *fakeStripe) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasPrefix(r.Header.Get("Authorization"), "Bearer ") {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}

		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v1/checkout/sessions":
			if err := r.ParseForm(); err != nil {
				w.WriteHeader(http.StatusBadRequest)
				return
			}
			f.counter++
			id := fmt.Sprintf("cs_test_%d", f.counter)
			session := &CheckoutSession{
				ID:            id,
				URL:           "https://checkout.stripe.test/pay/" + id,
				PaymentStatus: "unpaid",
				Status:        "open",
				Metadata: map[string]string{
					"plan":    r.PostForm.Get("metadata[plan]"),
					"user_id": r.PostForm.Get("metadata[user_id]"),
				},
			}
			f.sessions[id] = session
			_ = json.NewEncoder(w).Encode(session)

		case r.Method == http.MethodGet && strings.HasPrefix(r.URL.Path, "/v1/checkout/sessions/"):
			id := strings.TrimPrefix(r.URL.Path, "/v1/checkout/sessions/")
			session, ok := f.sessions[id]
			if !ok {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"error":{"message":"No such checkout session"}}`))
				return
			}
			_ = json.NewEncoder(w).Encode(session)

		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newTestReconciler(t *testing.T) (*Reconciler, *database.DB, *fakeStripe) {
	t.Helper()

	db, err := database.New(&config.DatabaseConfig{Path: ":memory:"})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	fake := newFakeStripe()
	server := httptest.NewServer(fake.handler())
	t.Cleanup(server.Close)

	stripe := NewStripeClient(&config.StripeConfig{
		SecretKey: "sk_test_key",
		BaseURL:   server.URL,
		Timeout:   5 * time.Second,
	})
	notifier := notify.NewService(db, &config.NotificationsConfig{
		TTL:       30 * 24 * time.Hour,
		ListLimit: 50,
	})
	return NewReconciler(db, stripe, notifier, "https://app.streamx.test"), db, fake
}

func createUser(t *testing.T, db *database.DB) *models.User {
	t.Helper()
	now := time.Now().UTC()
	u := &models.User{
		ID:           uuid.New(),
		Name:         "Subscriber",
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "$2a$04$test",
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

func TestCreateCheckout(t *testing.T) {
	t.Parallel()
	rec, db, _ := newTestReconciler(t)
	user := createUser(t, db)

	resp, err := rec.CreateCheckout(context.Background(), user, models.PlanPremium)
	if err != nil {
		t.Fatalf("failed to create checkout: %v", err)
	}
	if resp.SessionID == "" || resp.URL == "" {
		t.Errorf("expected session ID and URL, got %+v", resp)
	}

	if _, err := rec.CreateCheckout(context.Background(), user, "free"); !errors.Is(err, ErrUnknownPlan) {
		t.Errorf("expected ErrUnknownPlan for free plan, got %v", err)
	}
	if _, err := rec.CreateCheckout(context.Background(), user, "gold"); !errors.Is(err, ErrUnknownPlan) {
		t.Errorf("expected ErrUnknownPlan for unknown plan, got %v", err)
	}
}

func TestVerifyPaymentActivatesOnce(t *testing.T) {
	t.Parallel()
	rec, db, fake := newTestReconciler(t)
	ctx := context.Background()
	user := createUser(t, db)
	fake.addPaidSession("cs_test_paid", models.PlanPremium, user.ID)

	status, err := rec.VerifyPayment(ctx, "cs_test_paid")
	if err != nil {
		t.Fatalf("failed to verify payment: %v", err)
	}
	if status.Plan != models.PlanPremium {
		t.Errorf("expected premium plan, got %s", status.Plan)
	}
	if status.ExpiresAt == nil || status.ExpiresAt.Before(time.Now().AddDate(0, 0, 27)) {
		t.Errorf("expected expiry about one month out, got %v", status.ExpiresAt)
	}

	// Repeat verification is idempotent: same plan, same expiry, still
	// one record.
	again, err := rec.VerifyPayment(ctx, "cs_test_paid")
	if err != nil {
		t.Fatalf("failed repeat verification: %v", err)
	}
	if !again.ExpiresAt.Equal(*status.ExpiresAt) {
		t.Errorf("expected stable expiry, got %v then %v", status.ExpiresAt, again.ExpiresAt)
	}

	recs, err := db.ListSubscriptionRecords(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to list records: %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("expected exactly one record, got %d", len(recs))
	}

	updated, err := db.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if !updated.Subscription.IsActive(time.Now()) {
		t.Errorf("expected active subscription, got %+v", updated.Subscription)
	}
}

func TestVerifyPaymentConcurrent(t *testing.T) {
	t.Parallel()
	rec, db, fake := newTestReconciler(t)
	ctx := context.Background()
	user := createUser(t, db)
	fake.addPaidSession("cs_test_race", models.PlanBasic, user.ID)

	const workers = 8
	var wg sync.WaitGroup
	errs := make([]error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = rec.VerifyPayment(ctx, "cs_test_race")
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("worker %d: unexpected error %v", i, err)
		}
	}

	recs, err := db.ListSubscriptionRecords(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to list records: %v", err)
	}
	if len(recs) != 1 {
		t.Errorf("expected exactly one record after %d concurrent verifies, got %d", workers, len(recs))
	}
}

func TestVerifyPaymentIncomplete(t *testing.T) {
	t.Parallel()
	rec, db, fake := newTestReconciler(t)
	ctx := context.Background()
	user := createUser(t, db)
	fake.addUnpaidSession("cs_test_unpaid", models.PlanBasic)

	if _, err := rec.VerifyPayment(ctx, "cs_test_unpaid"); !errors.Is(err, ErrPaymentIncomplete) {
		t.Fatalf("expected ErrPaymentIncomplete, got %v", err)
	}

	recs, err := db.ListSubscriptionRecords(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to list records: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("expected no records for unpaid session, got %d", len(recs))
	}
}

func TestCancelDowngradesAndKeepsRecords(t *testing.T) {
	t.Parallel()
	rec, db, fake := newTestReconciler(t)
	ctx := context.Background()
	user := createUser(t, db)
	fake.addPaidSession("cs_test_cancel", models.PlanPremium, user.ID)

	if _, err := rec.VerifyPayment(ctx, "cs_test_cancel"); err != nil {
		t.Fatalf("failed to verify: %v", err)
	}
	if err := rec.Cancel(ctx, user.ID); err != nil {
		t.Fatalf("failed to cancel: %v", err)
	}

	status, err := rec.Status(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to get status: %v", err)
	}
	if status.Plan != models.PlanFree || status.ExpiresAt != nil {
		t.Errorf("expected free plan with no expiry, got %+v", status)
	}

	recs, err := db.ListSubscriptionRecords(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to list records: %v", err)
	}
	if len(recs) != 1 || recs[0].Status != models.SubscriptionCancelled {
		t.Errorf("expected one cancelled record, got %+v", recs)
	}
}

func TestVerifyAfterCancelStaysCancelled(t *testing.T) {
	t.Parallel()
	rec, db, fake := newTestReconciler(t)
	ctx := context.Background()
	user := createUser(t, db)
	fake.addPaidSession("cs_test_replay", models.PlanPremium, user.ID)

	if _, err := rec.VerifyPayment(ctx, "cs_test_replay"); err != nil {
		t.Fatalf("failed to verify: %v", err)
	}
	if err := rec.Cancel(ctx, user.ID); err != nil {
		t.Fatalf("failed to cancel: %v", err)
	}

	// Replaying the old session answers from the stored record and must
	// not hand the plan back.
	status, err := rec.VerifyPayment(ctx, "cs_test_replay")
	if err != nil {
		t.Fatalf("failed replay verification: %v", err)
	}
	if status.Plan != models.PlanPremium {
		t.Errorf("expected recorded premium plan in replay answer, got %s", status.Plan)
	}

	updated, err := db.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to reload user: %v", err)
	}
	if updated.Subscription.Plan != models.PlanFree || updated.Subscription.ExpiresAt != nil {
		t.Errorf("expected user to stay on free plan after replay, got %+v", updated.Subscription)
	}

	recs, err := db.ListSubscriptionRecords(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to list records: %v", err)
	}
	if len(recs) != 1 || recs[0].Status != models.SubscriptionCancelled {
		t.Errorf("expected the single cancelled record to survive replay, got %+v", recs)
	}
}

func TestVerifyCreditsMetadataUser(t *testing.T) {
	t.Parallel()
	rec, db, fake := newTestReconciler(t)
	ctx := context.Background()
	payer := createUser(t, db)
	bystander := createUser(t, db)
	fake.addPaidSession("cs_test_payer", models.PlanBasic, payer.ID)

	if _, err := rec.VerifyPayment(ctx, "cs_test_payer"); err != nil {
		t.Fatalf("failed to verify: %v", err)
	}

	recs, err := db.ListSubscriptionRecords(ctx, payer.ID)
	if err != nil {
		t.Fatalf("failed to list payer records: %v", err)
	}
	if len(recs) != 1 || recs[0].UserID != payer.ID {
		t.Fatalf("expected one record owned by the payer, got %+v", recs)
	}

	reloaded, err := db.GetUserByID(ctx, payer.ID)
	if err != nil {
		t.Fatalf("failed to reload payer: %v", err)
	}
	if reloaded.Subscription.Plan != models.PlanBasic {
		t.Errorf("expected payer on basic plan, got %+v", reloaded.Subscription)
	}

	other, err := db.GetUserByID(ctx, bystander.ID)
	if err != nil {
		t.Fatalf("failed to reload bystander: %v", err)
	}
	if other.Subscription.Plan != models.PlanFree {
		t.Errorf("expected bystander untouched on free plan, got %+v", other.Subscription)
	}
}

func TestVerifyPaymentRejectsMissingUserMetadata(t *testing.T) {
	t.Parallel()
	rec, db, fake := newTestReconciler(t)
	ctx := context.Background()
	user := createUser(t, db)
	fake.addPaidOrphanSession("cs_test_orphan", models.PlanPremium)

	if _, err := rec.VerifyPayment(ctx, "cs_test_orphan"); !errors.Is(err, ErrInvalidSession) {
		t.Fatalf("expected ErrInvalidSession, got %v", err)
	}

	recs, err := db.ListSubscriptionRecords(ctx, user.ID)
	if err != nil {
		t.Fatalf("failed to list records: %v", err)
	}
	if len(recs) != 0 {
		t.Errorf("expected no records for unattributed session, got %d", len(recs))
	}
}
