// StreamX - Video Streaming Platform Backend
// Copyright 2026 StreamX Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamx/streamx

package validation

import (
	"strings"
	"testing"
)

type notificationPayload struct {
	RecipientID string `validate:"required,uuid"`
	Type        string `validate:"required,notification_type"`
	Title       string `validate:"required,max=200"`
}

type checkoutPayload struct {
	Plan string `validate:"required,paid_plan"`
}

func TestValidateStructPasses(t *testing.T) {
	t.Parallel()
	p := notificationPayload{
		RecipientID: "b9e57078-7f3e-4b39-9d2f-53a170f946ba",
		Type:        "like",
		Title:       "New like on your video",
	}
	if err := ValidateStruct(&p); err != nil {
		t.Fatalf("expected valid payload, got %v", err)
	}
}

func TestValidateStructFieldErrors(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		payload interface{}
		field   string
	}{
		{"missing recipient", notificationPayload{Type: "like", Title: "t"}, "RecipientID"},
		{"bad uuid", notificationPayload{RecipientID: "nope", Type: "like", Title: "t"}, "RecipientID"},
		{"unknown type", notificationPayload{RecipientID: "b9e57078-7f3e-4b39-9d2f-53a170f946ba", Type: "poke", Title: "t"}, "Type"},
		{"free plan rejected", checkoutPayload{Plan: "free"}, "Plan"},
		{"unknown plan rejected", checkoutPayload{Plan: "gold"}, "Plan"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateStruct(tt.payload)
			if err == nil {
				t.Fatal("expected validation error")
			}
			found := false
			for _, fe := range err.Errors() {
				if fe.Field() == tt.field {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on field %s, got %v", tt.field, err)
			}
		})
	}
}

func TestToAPIErrorSingleAndMultiple(t *testing.T) {
	t.Parallel()

	single := ValidateStruct(checkoutPayload{Plan: "gold"})
	if single == nil {
		t.Fatal("expected validation error")
	}
	apiErr := single.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR code, got %s", apiErr.Code)
	}
	if apiErr.Details["field"] != "Plan" {
		t.Errorf("expected field detail Plan, got %v", apiErr.Details["field"])
	}

	multi := ValidateStruct(notificationPayload{})
	if multi == nil {
		t.Fatal("expected validation error")
	}
	multiErr := multi.ToAPIError()
	if !strings.Contains(multiErr.Message, ";") {
		t.Errorf("expected combined message for multiple errors, got %q", multiErr.Message)
	}
	if _, ok := multiErr.Details["fields"]; !ok {
		t.Errorf("expected fields detail, got %v", multiErr.Details)
	}
}
