package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"storefront-orders/internal/domain"
)

// Client talks to the payment provider's REST API.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient builds a gateway client. Every request is bounded by timeout so
// a hung provider cannot stall a checkout; on expiry the operation fails
// closed and the order stays pending.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type intentPayload struct {
	ID           string            `json:"id"`
	ClientSecret string            `json:"client_secret"`
	Status       string            `json:"status"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	Metadata     map[string]string `json:"metadata"`
}

func (c *Client) CreateIntent(ctx context.Context, amountCents int64, currency string, metadata map[string]string) (*Intent, error) {
	body, err := json.Marshal(map[string]any{
		"amount":   amountCents,
		"currency": currency,
		"metadata": metadata,
	})
	if err != nil {
		return nil, err
	}
	return c.do(ctx, http.MethodPost, "/v1/payment_intents", body, "create payment intent")
}

func (c *Client) RetrieveIntent(ctx context.Context, id string) (*Intent, error) {
	return c.do(ctx, http.MethodGet, "/v1/payment_intents/"+id, nil, "retrieve payment intent")
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, op string) (*Intent, error) {
	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, &domain.ExternalError{Op: op, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.ExternalError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.ExternalError{Op: op, Err: fmt.Errorf("gateway returned %d", resp.StatusCode)}
	}

	var payload intentPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &domain.ExternalError{Op: op, Err: err}
	}
	return &Intent{
		ID:           payload.ID,
		ClientSecret: payload.ClientSecret,
		Status:       payload.Status,
		AmountCents:  payload.Amount,
		Currency:     payload.Currency,
		Metadata:     payload.Metadata,
	}, nil
}
