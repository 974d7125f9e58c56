package counter

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

type postgresSequence struct{}

func NewPostgres() Sequence {
	return &postgresSequence{}
}

// Next increments the per-day counter row and formats the order number. The
// upsert locks the counter row until commit, serializing same-day checkouts
// only for this final numbering step.
func (s *postgresSequence) Next(ctx context.Context, tx pgx.Tx, day time.Time) (string, error) {
	const q = `
INSERT INTO order_day_counters (day, seq)
VALUES ($1, 1)
ON CONFLICT (day) DO UPDATE SET seq = order_day_counters.seq + 1
RETURNING seq
`
	var seq int
	if err := tx.QueryRow(ctx, q, day.UTC().Format("2006-01-02")).Scan(&seq); err != nil {
		return "", err
	}
	return Format(day, seq), nil
}

// Format renders the ORD{YY}{MM}{DD}{seq:04d} order number.
func Format(day time.Time, seq int) string {
	return fmt.Sprintf("ORD%s%04d", day.UTC().Format("060102"), seq)
}
