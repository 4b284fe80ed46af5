package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/storefront/internal/domain/cart"
)

const (
	ensureCartSQL = `INSERT INTO carts (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`

	lockCartSQL = `SELECT user_id FROM carts WHERE user_id = $1 FOR UPDATE`

	getCartLinesSQL = `SELECT item_id, quantity FROM cart_lines
		WHERE user_id = $1 ORDER BY position`

	deleteCartLinesSQL = `DELETE FROM cart_lines WHERE user_id = $1`

	insertCartLineSQL = `INSERT INTO cart_lines (user_id, item_id, quantity)
		VALUES ($1, $2, $3)`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL. Per-user
// serialization comes from a FOR UPDATE row lock on the carts row, held for
// the duration of the update transaction.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Get returns the user's cart. An unknown user gets an empty cart; the row is
// materialized lazily on the first mutation.
func (r *CartRepository) Get(ctx context.Context, userID string) (*cart.Cart, error) {
	rows, err := r.pool.Query(ctx, getCartLinesSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("getting cart for %q: %w", userID, err)
	}

	lines, err := pgx.CollectRows(rows, scanCartLine)
	if err != nil {
		return nil, fmt.Errorf("getting cart for %q: %w", userID, err)
	}
	return &cart.Cart{UserID: userID, Lines: lines}, nil
}

// Update loads the user's cart inside a transaction holding the cart row
// lock, runs fn, and writes the resulting lines back. A non-nil error from fn
// rolls the transaction back, leaving the stored cart unchanged.
func (r *CartRepository) Update(ctx context.Context, userID string, fn func(c *cart.Cart) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning cart update for %q: %w", userID, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, ensureCartSQL, userID); err != nil {
		return fmt.Errorf("ensuring cart row for %q: %w", userID, err)
	}
	if _, err := tx.Exec(ctx, lockCartSQL, userID); err != nil {
		return fmt.Errorf("locking cart for %q: %w", userID, err)
	}

	rows, err := tx.Query(ctx, getCartLinesSQL, userID)
	if err != nil {
		return fmt.Errorf("loading cart lines for %q: %w", userID, err)
	}
	lines, err := pgx.CollectRows(rows, scanCartLine)
	if err != nil {
		return fmt.Errorf("loading cart lines for %q: %w", userID, err)
	}

	c := &cart.Cart{UserID: userID, Lines: lines}
	if err := fn(c); err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, deleteCartLinesSQL, userID); err != nil {
		return fmt.Errorf("clearing cart lines for %q: %w", userID, err)
	}
	for _, line := range c.Lines {
		if _, err := tx.Exec(ctx, insertCartLineSQL, userID, line.ItemID, line.Quantity); err != nil {
			return fmt.Errorf("writing cart line %q for %q: %w", line.ItemID, userID, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing cart update for %q: %w", userID, err)
	}
	return nil
}

func scanCartLine(row pgx.CollectableRow) (cart.Line, error) {
	var line cart.Line
	err := row.Scan(&line.ItemID, &line.Quantity)
	return line, err
}
