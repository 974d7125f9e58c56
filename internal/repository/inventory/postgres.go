package inventory

import (
	"context"
	"errors"
	"sort"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"storefront-orders/internal/db"
	"storefront-orders/internal/domain"
)

type postgresLedger struct {
	logger *zap.Logger
}

func NewPostgres(logger *zap.Logger) Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresLedger{logger: logger}
}

func (r *postgresLedger) Reserve(ctx context.Context, tx pgx.Tx, orderID string, items []domain.Reservation) error {
	for _, it := range canonical(items) {
		const q = `
UPDATE products
SET stock = stock - $2
WHERE id = $1 AND is_active AND stock >= $2
`
		cmd, err := tx.Exec(ctx, q, it.ProductID, it.Quantity)
		if err != nil {
			if db.IsCheckViolation(err) {
				// stock >= $2 guard should make this unreachable; treat as contention
				return &domain.IntegrityError{Err: err}
			}
			return err
		}
		if cmd.RowsAffected() == 0 {
			return r.reserveConflict(ctx, tx, it)
		}

		const mq = `
INSERT INTO inventory_movements (order_id, product_id, quantity, direction)
VALUES ($1, $2, $3, 'reserve')
`
		if _, err := tx.Exec(ctx, mq, orderID, it.ProductID, it.Quantity); err != nil {
			if db.IsUniqueViolation(err) {
				return &domain.IntegrityError{Err: err}
			}
			return err
		}
	}
	return nil
}

func (r *postgresLedger) Release(ctx context.Context, tx pgx.Tx, orderID string, items []domain.Reservation) error {
	for _, it := range canonical(items) {
		const mq = `
INSERT INTO inventory_movements (order_id, product_id, quantity, direction)
VALUES ($1, $2, $3, 'release')
`
		if _, err := tx.Exec(ctx, mq, orderID, it.ProductID, it.Quantity); err != nil {
			if db.IsUniqueViolation(err) {
				r.logger.Warn("duplicate stock release blocked",
					zap.String("order_id", orderID),
					zap.String("product_id", it.ProductID))
				return &domain.IntegrityError{Err: err}
			}
			return err
		}

		const q = `
UPDATE products
SET stock = stock + $2
WHERE id = $1
`
		cmd, err := tx.Exec(ctx, q, it.ProductID, it.Quantity)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			// Product rows are never deleted; a missing row here means the
			// ledger and catalog diverged.
			return &domain.IntegrityError{Err: errors.New("release: product row missing: " + it.ProductID)}
		}
	}
	return nil
}

// reserveConflict diagnoses why the conditional decrement matched no row.
func (r *postgresLedger) reserveConflict(ctx context.Context, tx pgx.Tx, it domain.Reservation) error {
	var name string
	var stock int
	var active bool
	err := tx.QueryRow(ctx, `SELECT name, stock, is_active FROM products WHERE id = $1`, it.ProductID).
		Scan(&name, &stock, &active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &domain.ConflictError{
				Reason:    "product " + it.ProductID + " is no longer available",
				ProductID: it.ProductID,
			}
		}
		return err
	}
	if !active {
		return &domain.ConflictError{
			Reason:    "product " + name + " is no longer available",
			ProductID: it.ProductID,
		}
	}
	r.logger.Info("insufficient stock",
		zap.String("product_id", it.ProductID),
		zap.Int("requested", it.Quantity),
		zap.Int("available", stock))
	return &domain.ConflictError{
		Reason:    "insufficient stock for " + name,
		ProductID: it.ProductID,
	}
}

// canonical returns the items sorted by ascending product id, merging
// duplicates, so every transaction locks product rows in the same order.
func canonical(items []domain.Reservation) []domain.Reservation {
	merged := make(map[string]int, len(items))
	for _, it := range items {
		merged[it.ProductID] += it.Quantity
	}
	out := make([]domain.Reservation, 0, len(merged))
	for id, qty := range merged {
		out = append(out, domain.Reservation{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
