package order

import (
	"context"

	"github.com/jackc/pgx/v5"

	"storefront-orders/internal/domain"
)

// LineInput is one order line captured at creation time.
type LineInput struct {
	ProductID      string
	ProductName    string
	Quantity       int
	UnitPriceCents int64
}

// InsertInput carries everything needed to persist a new pending order.
type InsertInput struct {
	ID              string
	OrderNumber     string
	UserID          string
	PaymentMethod   domain.PaymentMethod
	Totals          domain.Totals
	ShippingAddress domain.Address
	Notes           string
	Lines           []LineInput
}

// Repository persists orders. Methods taking a pgx.Tx participate in the
// caller's transaction; the rest are single-statement and safe on the pool.
type Repository interface {
	Insert(ctx context.Context, tx pgx.Tx, in InsertInput) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	GetByPaymentRef(ctx context.Context, ref string) (*domain.Order, error)
	// GetForUpdate loads the order and its lines under a row lock.
	GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, int64, error)
	// SetPaymentRef attaches a gateway intent, first writer wins. Returns
	// false when the order already carries a reference.
	SetPaymentRef(ctx context.Context, orderID, ref string) (bool, error)
	// MarkPaid is a status-guarded conditional update: it transitions
	// payment_status to paid (and pending orders to processing) only when the
	// order is not already paid. Returns false when no row changed.
	MarkPaid(ctx context.Context, orderID, intentID string) (bool, error)
	// MarkCancelled flips the order to cancelled only from a cancellable
	// status. Returns false when no row changed.
	MarkCancelled(ctx context.Context, tx pgx.Tx, orderID, cancelledBy, reason string) (bool, error)
	// SetStatus moves status from exactly `from` to `to`, recording tracking
	// details when provided. Returns false when the order was not in `from`.
	SetStatus(ctx context.Context, orderID string, from, to domain.OrderStatus, trackingNumber, carrier string) (bool, error)
	Stats(ctx context.Context) (*domain.OrderStats, error)
}
