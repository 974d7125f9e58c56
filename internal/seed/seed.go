package seed

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type productSeed struct {
	ID         string
	Name       string
	PriceCents int64
	Stock      int
}

// Fixed ids keep the seed idempotent and give manual tests stable targets.
var products = []productSeed{
	{ID: "4f9c2f9a-0001-4d7a-9c10-93f2c8a1b001", Name: "Demo T-Shirt", PriceCents: 1999, Stock: 25},
	{ID: "4f9c2f9a-0002-4d7a-9c10-93f2c8a1b002", Name: "Demo Mug", PriceCents: 1299, Stock: 40},
	{ID: "4f9c2f9a-0003-4d7a-9c10-93f2c8a1b003", Name: "Demo Poster", PriceCents: 899, Stock: 3},
}

// Apply inserts seed data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	for _, p := range products {
		if err := upsertProduct(ctx, pool, p); err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
	}

	if err := ensureDemoCart(ctx, pool, "demo-user"); err != nil {
		return fmt.Errorf("ensure demo cart: %w", err)
	}
	return nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, p productSeed) error {
	const q = `
INSERT INTO products (id, name, price_cents, stock, is_active)
VALUES ($1, $2, $3, $4, true)
ON CONFLICT (id) DO UPDATE
SET name = EXCLUDED.name,
    price_cents = EXCLUDED.price_cents,
    stock = EXCLUDED.stock,
    is_active = true
`
	_, err := pool.Exec(ctx, q, p.ID, p.Name, p.PriceCents, p.Stock)
	return err
}

// ensureDemoCart gives the demo user an active cart holding the first two
// seed products so a checkout can be exercised immediately.
func ensureDemoCart(ctx context.Context, pool *pgxpool.Pool, userID string) error {
	const findCart = `SELECT id::text FROM carts WHERE user_id = $1 AND state = 'active' LIMIT 1`
	var cartID string
	err := pool.QueryRow(ctx, findCart, userID).Scan(&cartID)
	if err != nil {
		const insertCart = `INSERT INTO carts (user_id, state) VALUES ($1, 'active') RETURNING id::text`
		if err := pool.QueryRow(ctx, insertCart, userID).Scan(&cartID); err != nil {
			return err
		}
	}

	const upsertLine = `
INSERT INTO cart_lines (cart_id, product_id, quantity, unit_price_cents)
VALUES ($1, $2, $3, $4)
ON CONFLICT (cart_id, product_id) DO UPDATE
SET quantity = EXCLUDED.quantity,
    unit_price_cents = EXCLUDED.unit_price_cents
`
	for i, p := range products[:2] {
		if _, err := pool.Exec(ctx, upsertLine, cartID, p.ID, i+1, p.PriceCents); err != nil {
			return err
		}
	}
	return nil
}
