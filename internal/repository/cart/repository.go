package cart

import (
	"context"

	"github.com/jackc/pgx/v5"

	"storefront-orders/internal/domain"
)

// Repository is the cart-read capability the fulfillment core consumes. The
// cart itself is owned by the storefront; this core only reads the active
// cart at checkout and clears it when the order commits.
type Repository interface {
	GetActiveByUser(ctx context.Context, userID string) (*domain.Cart, error)
	// MarkOrdered flips the cart out of the active state inside the order's
	// transaction, so a failed checkout leaves the cart untouched.
	MarkOrdered(ctx context.Context, tx pgx.Tx, cartID string) error
}
