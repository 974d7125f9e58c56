package counter

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
)

// Sequence hands out day-scoped order numbers. Next must run inside the same
// transaction that creates the order so concurrent checkouts on one day can
// never be assigned duplicate numbers.
type Sequence interface {
	Next(ctx context.Context, tx pgx.Tx, day time.Time) (string, error)
}
