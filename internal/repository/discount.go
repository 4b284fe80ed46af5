package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/discount"
)

const (
	insertCodeSQL = `INSERT INTO discount_codes (code, consumed, created_at)
		VALUES ($1, FALSE, $2) ON CONFLICT (code) DO NOTHING`

	// The conditional UPDATE is the atomic check-and-set: only one concurrent
	// transaction can match consumed = FALSE for a given code.
	consumeCodeSQL = `UPDATE discount_codes SET consumed = TRUE
		WHERE code = $1 AND consumed = FALSE`

	getCodeConsumedSQL = `SELECT consumed FROM discount_codes WHERE code = $1`

	listCodesSQL = `SELECT code FROM discount_codes ORDER BY position`
)

var _ discount.Repository = (*DiscountRepository)(nil)

// DiscountRepository implements discount.Repository backed by PostgreSQL.
type DiscountRepository struct {
	pool *pgxpool.Pool
}

// NewDiscountRepository returns a DiscountRepository that uses the given pool.
func NewDiscountRepository(pool *pgxpool.Pool) *DiscountRepository {
	return &DiscountRepository{pool: pool}
}

// Insert stores a fresh code, or returns discount.ErrCodeExists.
func (r *DiscountRepository) Insert(ctx context.Context, c *discount.Code) error {
	tag, err := r.pool.Exec(ctx, insertCodeSQL, c.Value, c.CreatedAt)
	if err != nil {
		return fmt.Errorf("inserting code %q: %w", c.Value, err)
	}
	if tag.RowsAffected() == 0 {
		return discount.ErrCodeExists
	}
	return nil
}

// Consume flips the consumed flag for the code. The update is conditional on
// consumed = FALSE, so exactly one caller ever gets a nil result per code.
func (r *DiscountRepository) Consume(ctx context.Context, value string) error {
	tag, err := r.pool.Exec(ctx, consumeCodeSQL, value)
	if err != nil {
		return fmt.Errorf("consuming code %q: %w", value, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	// The code was not consumable: distinguish unknown from already used.
	var consumed bool
	err = r.pool.QueryRow(ctx, getCodeConsumedSQL, value).Scan(&consumed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return discount.ErrCodeNotFound
		}
		return fmt.Errorf("checking code %q: %w", value, err)
	}
	if consumed {
		return discount.ErrCodeConsumed
	}
	// The row existed unconsumed when checked but the update matched nothing:
	// a concurrent consumer won the race between our two statements.
	return discount.ErrCodeConsumed
}

// Codes returns every issued code value in issue order.
func (r *DiscountRepository) Codes(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listCodesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing codes: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var code string
		err := row.Scan(&code)
		return code, err
	})
}
