// Package payment wraps the third-party payment-intent API. The boundary is
// treated as untrusted: webhook signatures are verified before any state
// transition, and retrieved intents are cross-checked against the local order
// before it is marked paid.
package payment

import "context"

// Intent statuses reported by the gateway.
const (
	IntentStatusPending   = "pending"
	IntentStatusSucceeded = "succeeded"
	IntentStatusFailed    = "failed"
)

// Intent is the gateway-side handle for an in-progress charge attempt. The
// ClientSecret is handed to the buyer's client to complete the charge.
type Intent struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"clientSecret"`
	Status       string            `json:"status"`
	AmountCents  int64             `json:"amountCents"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata,omitempty"`
}

// Gateway is the external-collaborator contract. Implementations must bound
// every call with a timeout and fail closed on expiry.
type Gateway interface {
	CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error)
	RetrieveIntent(ctx context.Context, id string) (*Intent, error)
}
