package domain

import "time"

// Product is the catalog lookup capability this core depends on: current
// price, remaining stock, and whether the product can still be sold. Stock is
// mutated exclusively through the inventory ledger's reserve/release
// operations and never goes negative.
type Product struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	PriceCents int64     `json:"priceCents"`
	Stock      int       `json:"stock"`
	IsActive   bool      `json:"isActive"`
	CreatedAt  time.Time `json:"createdAt"`
}
