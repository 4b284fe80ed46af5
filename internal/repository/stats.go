package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/order"
	"github.com/xenking/storefront/internal/domain/stats"
)

const statsSnapshotSQL = `SELECT
		COUNT(*),
		COALESCE(SUM(total), 0),
		COALESCE(SUM(discount_amount), 0),
		COALESCE(SUM((
			SELECT SUM((l->>'quantity')::BIGINT)
			FROM jsonb_array_elements(lines) AS l
		)), 0)::BIGINT
	FROM orders`

var _ stats.Source = (*StatsRepository)(nil)

// StatsRepository derives the aggregate snapshot directly from the orders and
// discount_codes tables. Those tables are the authoritative logs, so the
// snapshot is a full fold by construction and RecordOrder/RecordIssuedCode
// have nothing left to do: inserting the row is the record.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository returns a StatsRepository that uses the given pool.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// RecordOrder is a no-op; the order row itself is the record.
func (r *StatsRepository) RecordOrder(context.Context, *order.Order) error {
	return nil
}

// RecordIssuedCode is a no-op; the discount_codes row itself is the record.
func (r *StatsRepository) RecordIssuedCode(context.Context, string) error {
	return nil
}

// Snapshot folds the order and code logs into the aggregate counters.
func (r *StatsRepository) Snapshot(ctx context.Context) (stats.Snapshot, error) {
	var (
		s         stats.Snapshot
		amount    decimal.Decimal
		discounts decimal.Decimal
	)
	err := r.pool.QueryRow(ctx, statsSnapshotSQL).Scan(
		&s.OrderCount, &amount, &discounts, &s.TotalItemsSold,
	)
	if err != nil {
		return stats.Snapshot{}, fmt.Errorf("aggregating orders: %w", err)
	}
	s.TotalAmount = amount
	s.TotalDiscount = discounts

	codes, err := NewDiscountRepository(r.pool).Codes(ctx)
	if err != nil {
		return stats.Snapshot{}, fmt.Errorf("listing issued codes: %w", err)
	}
	s.IssuedCodes = codes

	return s, nil
}
