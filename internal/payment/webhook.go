package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
)

// ErrBadSignature rejects webhook deliveries whose HMAC does not match.
var ErrBadSignature = errors.New("webhook signature mismatch")

// Event types delivered by the gateway webhook.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.failed"
)

// Event is one inbound gateway notification.
type Event struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	IntentID    string `json:"intent_id"`
	AmountCents int64  `json:"amount"`
}

// Sign computes the hex HMAC-SHA256 of body under secret; the gateway sends
// the same value in its signature header.
func Sign(body []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// ParseEvent verifies the delivery signature and decodes the event. The
// signature check happens before any decoding so unauthenticated payloads
// never reach business logic.
func ParseEvent(body []byte, signature, secret string) (*Event, error) {
	expected := Sign(body, secret)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, ErrBadSignature
	}
	var ev Event
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
