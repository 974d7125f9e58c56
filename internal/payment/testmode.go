package payment

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/google/uuid"

	"storefront-orders/internal/domain"
)

// TestGateway is the explicit sandbox implementation selected by
// PAYMENT_TEST_MODE. Intents are held in memory and succeed immediately.
// It signs its own webhook events with the configured secret so the
// verification path stays exercised in sandbox runs.
type TestGateway struct {
	secret string

	mu      sync.Mutex
	intents map[string]*Intent
}

func NewTestGateway(webhookSecret string) *TestGateway {
	return &TestGateway{
		secret:  webhookSecret,
		intents: make(map[string]*Intent),
	}
}

func (g *TestGateway) CreateIntent(_ context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error) {
	intent := &Intent{
		ID:           "pi_test_" + uuid.NewString(),
		ClientSecret: "secret_test_" + uuid.NewString(),
		Status:       IntentStatusSucceeded,
		AmountCents:  amountCents,
		Currency:     currency,
		Metadata:     metadata,
	}
	g.mu.Lock()
	g.intents[intent.ID] = intent
	g.mu.Unlock()
	return intent, nil
}

func (g *TestGateway) RetrieveIntent(_ context.Context, id string) (*Intent, error) {
	g.mu.Lock()
	intent, ok := g.intents[id]
	g.mu.Unlock()
	if !ok {
		return nil, &domain.ExternalError{Op: "retrieve payment intent", Err: errors.New("unknown intent " + id)}
	}
	cp := *intent
	return &cp, nil
}

// SignedSucceededEvent renders a signed webhook delivery for the given
// intent, as the real gateway would send it.
func (g *TestGateway) SignedSucceededEvent(intentID string, amountCents int64) (body []byte, signature string) {
	payload := []byte(`{"id":"evt_` + uuid.NewString() + `","type":"` + EventIntentSucceeded + `","intent_id":"` + intentID + `","amount":` + strconv.FormatInt(amountCents, 10) + `}`)
	return payload, Sign(payload, g.secret)
}
