package httpserver

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront-orders/internal/domain"
	"storefront-orders/internal/payment"
)

func postWebhook(t *testing.T, handler http.Handler, body []byte, signature string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/webhooks/payment", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if signature != "" {
		req.Header.Set(headerSignature, signature)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestWebhookConfirmsPayment(t *testing.T) {
	paid := sampleOrder()
	paid.PaymentStatus = domain.PaymentPaid
	svc := &serviceStub{order: paid}
	router := newTestRouter(svc)

	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","intent_id":"pi_1","amount":2799}`)
	rec := postWebhook(t, router, body, payment.Sign(body, "whsec_test"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if svc.webhookCalls != 1 || svc.webhookIntent != "pi_1" || svc.webhookAmount != 2799 {
		t.Errorf("webhook call: calls=%d intent=%q amount=%d", svc.webhookCalls, svc.webhookIntent, svc.webhookAmount)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	svc := &serviceStub{}
	router := newTestRouter(svc)

	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","intent_id":"pi_1","amount":2799}`)
	rec := postWebhook(t, router, body, payment.Sign(body, "wrong-secret"))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if svc.webhookCalls != 0 {
		t.Errorf("service reached despite bad signature")
	}
}

func TestWebhookIgnoresOtherEventTypes(t *testing.T) {
	svc := &serviceStub{}
	router := newTestRouter(svc)

	body := []byte(`{"id":"evt_1","type":"payment_intent.created","intent_id":"pi_1","amount":2799}`)
	rec := postWebhook(t, router, body, payment.Sign(body, "whsec_test"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if svc.webhookCalls != 0 {
		t.Errorf("service called for an ignored event type")
	}
}

func TestWebhookAcknowledgesUnknownReference(t *testing.T) {
	svc := &serviceStub{err: domain.ErrNotFound}
	router := newTestRouter(svc)

	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","intent_id":"pi_unknown","amount":100}`)
	rec := postWebhook(t, router, body, payment.Sign(body, "whsec_test"))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 so the gateway stops retrying", rec.Code)
	}
}

func TestWebhookSurfacesAmountMismatch(t *testing.T) {
	svc := &serviceStub{err: domain.Conflictf("payment amount does not match order")}
	router := newTestRouter(svc)

	body := []byte(`{"id":"evt_1","type":"payment_intent.succeeded","intent_id":"pi_1","amount":1}`)
	rec := postWebhook(t, router, body, payment.Sign(body, "whsec_test"))

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}
