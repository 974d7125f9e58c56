package domain

import "time"

// Cart is the caller-owned shopping cart this core reads at checkout. It is
// never mutated here except for the clear on successful order creation.
type Cart struct {
	ID        string     `json:"id"`
	UserID    string     `json:"userId"`
	State     string     `json:"state"`
	CreatedAt time.Time  `json:"createdAt"`
	Lines     []CartLine `json:"lines,omitempty"`
}

// CartLine is a read-only checkout input; unit price was snapshotted when the
// line was added to the cart.
type CartLine struct {
	ID             string    `json:"id"`
	CartID         string    `json:"cartId"`
	ProductID      string    `json:"productId"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int64     `json:"unitPriceCents"`
	CreatedAt      time.Time `json:"createdAt"`
}
