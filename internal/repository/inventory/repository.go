package inventory

import (
	"context"

	"github.com/jackc/pgx/v5"

	"storefront-orders/internal/domain"
)

// Ledger owns per-product stock counts. Both operations run inside the
// caller's transaction so a reservation commits or rolls back together with
// the order it belongs to.
type Ledger interface {
	// Reserve decrements stock for every item as one atomic unit. Rows are
	// locked in ascending product-id order to avoid deadlocks between
	// concurrent checkouts sharing products. On failure nothing is applied and
	// the returned ConflictError names the offending product.
	Reserve(ctx context.Context, tx pgx.Tx, orderID string, items []domain.Reservation) error

	// Release reverses a prior reservation. The movement ledger's unique
	// (order, product, direction) index makes a second release for the same
	// order fail instead of double-crediting stock.
	Release(ctx context.Context, tx pgx.Tx, orderID string, items []domain.Reservation) error
}
