package payment

import (
	"context"
	"errors"
	"testing"

	"storefront-orders/internal/domain"
)

func TestTestGatewayIntentLifecycle(t *testing.T) {
	g := NewTestGateway("whsec_test")
	ctx := context.Background()

	created, err := g.CreateIntent(ctx, 2799, "USD", map[string]string{"order_id": "o1"})
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if created.Status != IntentStatusSucceeded {
		t.Errorf("status = %q, want succeeded", created.Status)
	}
	if created.ClientSecret == "" {
		t.Error("expected a client secret")
	}

	got, err := g.RetrieveIntent(ctx, created.ID)
	if err != nil {
		t.Fatalf("RetrieveIntent: %v", err)
	}
	if got.AmountCents != 2799 || got.Currency != "USD" {
		t.Errorf("retrieved intent = %+v", got)
	}
	if got.Metadata["order_id"] != "o1" {
		t.Errorf("metadata = %v, want order_id preserved", got.Metadata)
	}
}

func TestTestGatewayUnknownIntent(t *testing.T) {
	g := NewTestGateway("whsec_test")

	var extErr *domain.ExternalError
	_, err := g.RetrieveIntent(context.Background(), "pi_missing")
	if !errors.As(err, &extErr) {
		t.Fatalf("err = %v, want ExternalError", err)
	}
}

func TestTestGatewaySignedEventVerifies(t *testing.T) {
	g := NewTestGateway("whsec_test")

	intent, err := g.CreateIntent(context.Background(), 500, "USD", nil)
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}

	body, sig := g.SignedSucceededEvent(intent.ID, intent.AmountCents)
	ev, err := ParseEvent(body, sig, "whsec_test")
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if ev.IntentID != intent.ID {
		t.Errorf("intent id = %q, want %q", ev.IntentID, intent.ID)
	}
	if ev.AmountCents != 500 {
		t.Errorf("amount = %d, want 500", ev.AmountCents)
	}
}
