package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/discount"
	"github.com/xenking/storefront/internal/domain/order"
)

const (
	createOrderSQL = `INSERT INTO orders
		(id, user_id, lines, subtotal, discount_code, discount_amount, total,
		 discount_applied, discount_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	listOrdersSQL = `SELECT id, user_id, lines, subtotal, discount_code,
		discount_amount, total, discount_applied, discount_message, created_at
		FROM orders ORDER BY created_at, id`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. Order
// lines are serialized to JSON for storage in a JSONB column.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create persists a new order.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	linesJSON, err := json.Marshal(o.Lines)
	if err != nil {
		return fmt.Errorf("marshaling order lines: %w", err)
	}

	_, err = r.pool.Exec(ctx, createOrderSQL,
		o.ID, o.UserID, linesJSON, o.Subtotal, o.DiscountCode, o.DiscountAmount,
		o.Total, o.Discount.Applied, o.Discount.Message, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// List returns all orders in creation order.
func (r *OrderRepository) List(ctx context.Context) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, listOrdersSQL)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	return pgx.CollectRows(rows, scanOrder)
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var (
		o         order.Order
		linesJSON []byte
		subtotal  decimal.Decimal
		amount    decimal.Decimal
		total     decimal.Decimal
	)
	err := row.Scan(
		&o.ID, &o.UserID, &linesJSON, &subtotal, &o.DiscountCode,
		&amount, &total, &o.Discount.Applied, &o.Discount.Message, &o.CreatedAt,
	)
	if err != nil {
		return o, err
	}
	if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
		return o, fmt.Errorf("unmarshaling order lines: %w", err)
	}
	o.Subtotal = subtotal
	o.DiscountAmount = amount
	o.Total = total
	o.Discount.Amount = amount
	if !o.Discount.Applied && o.Discount.Message == "" {
		o.Discount.Message = discount.MsgNoCode
	}
	return o, nil
}
