package product

import (
	"context"

	"github.com/jackc/pgx/v5"

	"storefront-orders/internal/domain"
)

// Repository is the product-lookup capability: current price, stock, and
// active flag. GetManyTx reads inside the checkout transaction so name and
// price snapshots are consistent with the reservation.
type Repository interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	GetManyTx(ctx context.Context, tx pgx.Tx, ids []string) (map[string]domain.Product, error)
}
