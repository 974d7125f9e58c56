package payment

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"storefront-orders/internal/domain"
)

func TestClientCreateIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/payment_intents" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk_test" {
			t.Errorf("authorization = %q", got)
		}
		var req map[string]any
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req["currency"] != "USD" {
			t.Errorf("currency = %v", req["currency"])
		}
		json.NewEncoder(w).Encode(intentPayload{
			ID:           "pi_1",
			ClientSecret: "cs_1",
			Status:       "pending",
			Amount:       2799,
			Currency:     "USD",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test", time.Second)
	intent, err := c.CreateIntent(context.Background(), 2799, "USD", map[string]string{"order_id": "o1"})
	if err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if intent.ID != "pi_1" || intent.Status != IntentStatusPending || intent.AmountCents != 2799 {
		t.Errorf("intent = %+v", intent)
	}
}

func TestClientRetrieveIntent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/payment_intents/pi_1" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(intentPayload{ID: "pi_1", Status: "succeeded", Amount: 2799, Currency: "USD"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test", time.Second)
	intent, err := c.RetrieveIntent(context.Background(), "pi_1")
	if err != nil {
		t.Fatalf("RetrieveIntent: %v", err)
	}
	if intent.Status != IntentStatusSucceeded {
		t.Errorf("status = %q", intent.Status)
	}
}

func TestClientGatewayErrorWrapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test", time.Second)
	var extErr *domain.ExternalError
	if _, err := c.RetrieveIntent(context.Background(), "pi_1"); !errors.As(err, &extErr) {
		t.Fatalf("err = %v, want ExternalError", err)
	}
}

func TestClientTimesOut(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	c := NewClient(srv.URL, "sk_test", 50*time.Millisecond)
	var extErr *domain.ExternalError
	if _, err := c.CreateIntent(context.Background(), 100, "USD", nil); !errors.As(err, &extErr) {
		t.Fatalf("err = %v, want ExternalError", err)
	}
}
