package order

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront-orders/internal/db"
	"storefront-orders/internal/domain"
)

const orderColumns = `
id::text, order_number, user_id, status, payment_status, payment_method, payment_ref,
subtotal_cents, tax_cents, shipping_cents, discount_cents, total_cents,
ship_name, ship_line1, ship_city, ship_postal_code, ship_country,
notes, tracking_number, carrier,
created_at, paid_at, cancelled_at, cancelled_by, cancel_reason`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

// querier is satisfied by both *pgxpool.Pool and pgx.Tx.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *postgresRepo) Insert(ctx context.Context, tx pgx.Tx, in InsertInput) (*domain.Order, error) {
	const q = `
INSERT INTO orders (
    id, order_number, user_id, payment_method,
    subtotal_cents, tax_cents, shipping_cents, discount_cents, total_cents,
    ship_name, ship_line1, ship_city, ship_postal_code, ship_country, notes
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
RETURNING ` + orderColumns

	row := tx.QueryRow(ctx, q,
		in.ID, in.OrderNumber, in.UserID, in.PaymentMethod,
		in.Totals.SubtotalCents, in.Totals.TaxCents, in.Totals.ShippingCents,
		in.Totals.DiscountCents, in.Totals.TotalCents,
		in.ShippingAddress.Name, in.ShippingAddress.Line1, in.ShippingAddress.City,
		in.ShippingAddress.PostalCode, in.ShippingAddress.Country, in.Notes,
	)
	o, err := scanOrder(row)
	if err != nil {
		if db.IsUniqueViolation(err) || db.IsCheckViolation(err) {
			return nil, &domain.IntegrityError{Err: err}
		}
		return nil, err
	}

	for _, l := range in.Lines {
		const lq = `
INSERT INTO order_lines (order_id, product_id, product_name, quantity, unit_price_cents)
VALUES ($1, $2, $3, $4, $5)
RETURNING id::text, created_at
`
		line := domain.OrderLine{
			OrderID:        o.ID,
			ProductID:      l.ProductID,
			ProductName:    l.ProductName,
			Quantity:       l.Quantity,
			UnitPriceCents: l.UnitPriceCents,
		}
		if err := tx.QueryRow(ctx, lq, o.ID, l.ProductID, l.ProductName, l.Quantity, l.UnitPriceCents).
			Scan(&line.ID, &line.CreatedAt); err != nil {
			return nil, err
		}
		o.Lines = append(o.Lines, line)
	}

	r.logger.Info("order inserted",
		zap.String("order_id", o.ID),
		zap.String("order_number", o.OrderNumber),
		zap.Int64("total_cents", o.TotalCents))
	return o, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.fetchOne(ctx, r.pool, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *postgresRepo) GetByPaymentRef(ctx context.Context, ref string) (*domain.Order, error) {
	return r.fetchOne(ctx, r.pool, `SELECT `+orderColumns+` FROM orders WHERE payment_ref = $1`, ref)
}

func (r *postgresRepo) GetForUpdate(ctx context.Context, tx pgx.Tx, id string) (*domain.Order, error) {
	return r.fetchOne(ctx, tx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
}

func (r *postgresRepo) fetchOne(ctx context.Context, q querier, query, arg string) (*domain.Order, error) {
	o, err := scanOrder(q.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	lines, err := fetchLines(ctx, q, o.ID)
	if err != nil {
		return nil, err
	}
	o.Lines = lines
	return o, nil
}

func (r *postgresRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]domain.Order, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM orders WHERE user_id = $1`, userID).Scan(&total); err != nil {
		return nil, 0, err
	}

	const q = `
SELECT ` + orderColumns + `
FROM orders
WHERE user_id = $1
ORDER BY created_at DESC
LIMIT $2 OFFSET $3
`
	rows, err := r.pool.Query(ctx, q, userID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

// SetPaymentRef attaches the gateway intent to the order. The empty-ref guard
// makes the attachment first-writer-wins so two concurrent intent requests
// cannot overwrite each other; false means a reference is already set.
func (r *postgresRepo) SetPaymentRef(ctx context.Context, orderID, ref string) (bool, error) {
	cmd, err := r.pool.Exec(ctx,
		`UPDATE orders SET payment_ref = $2 WHERE id = $1 AND payment_ref = ''`, orderID, ref)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *postgresRepo) MarkPaid(ctx context.Context, orderID, intentID string) (bool, error) {
	const q = `
UPDATE orders
SET payment_status = 'paid',
    status = CASE WHEN status = 'pending' THEN 'processing' ELSE status END,
    paid_at = now(),
    payment_ref = $2
WHERE id = $1
  AND payment_status <> 'paid'
  AND status IN ('pending', 'processing')
`
	cmd, err := r.pool.Exec(ctx, q, orderID, intentID)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *postgresRepo) MarkCancelled(ctx context.Context, tx pgx.Tx, orderID, cancelledBy, reason string) (bool, error) {
	const q = `
UPDATE orders
SET status = 'cancelled',
    cancelled_at = now(),
    cancelled_by = $2,
    cancel_reason = $3
WHERE id = $1 AND status IN ('pending', 'processing')
`
	cmd, err := tx.Exec(ctx, q, orderID, cancelledBy, reason)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *postgresRepo) SetStatus(ctx context.Context, orderID string, from, to domain.OrderStatus, trackingNumber, carrier string) (bool, error) {
	const q = `
UPDATE orders
SET status = $3,
    tracking_number = CASE WHEN $4 <> '' THEN $4 ELSE tracking_number END,
    carrier = CASE WHEN $5 <> '' THEN $5 ELSE carrier END
WHERE id = $1 AND status = $2
`
	cmd, err := r.pool.Exec(ctx, q, orderID, from, to, trackingNumber, carrier)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func (r *postgresRepo) Stats(ctx context.Context) (*domain.OrderStats, error) {
	stats := &domain.OrderStats{ByStatus: make(map[domain.OrderStatus]int64)}

	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var status domain.OrderStatus
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			return nil, err
		}
		stats.ByStatus[status] = count
		stats.TotalOrders += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	stats.CancelledCount = stats.ByStatus[domain.StatusCancelled]

	if err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(total_cents), 0) FROM orders WHERE payment_status = 'paid'`,
	).Scan(&stats.PaidRevenue); err != nil {
		return nil, err
	}

	if err := r.pool.QueryRow(ctx,
		// Same UTC day bucketing as order numbering, independent of the
		// session timezone.
		`SELECT COUNT(*) FROM orders WHERE (created_at AT TIME ZONE 'UTC')::date = (now() AT TIME ZONE 'UTC')::date`,
	).Scan(&stats.OrdersToday); err != nil {
		return nil, err
	}

	return stats, nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var o domain.Order
	if err := row.Scan(
		&o.ID, &o.OrderNumber, &o.UserID, &o.Status, &o.PaymentStatus, &o.PaymentMethod, &o.PaymentRef,
		&o.SubtotalCents, &o.TaxCents, &o.ShippingCents, &o.DiscountCents, &o.TotalCents,
		&o.ShippingAddress.Name, &o.ShippingAddress.Line1, &o.ShippingAddress.City,
		&o.ShippingAddress.PostalCode, &o.ShippingAddress.Country,
		&o.Notes, &o.TrackingNumber, &o.Carrier,
		&o.CreatedAt, &o.PaidAt, &o.CancelledAt, &o.CancelledBy, &o.CancelReason,
	); err != nil {
		return nil, err
	}
	return &o, nil
}

func fetchLines(ctx context.Context, q querier, orderID string) ([]domain.OrderLine, error) {
	const lq = `
SELECT id::text, order_id::text, product_id::text, product_name, quantity, unit_price_cents, created_at
FROM order_lines
WHERE order_id = $1
ORDER BY created_at ASC, id ASC
`
	rows, err := q.Query(ctx, lq, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []domain.OrderLine
	for rows.Next() {
		var l domain.OrderLine
		if err := rows.Scan(&l.ID, &l.OrderID, &l.ProductID, &l.ProductName, &l.Quantity, &l.UnitPriceCents, &l.CreatedAt); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
