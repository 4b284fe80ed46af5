package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/discount"
)

// Line is a cart line captured at checkout time with the then-current catalog
// name and price. Later catalog changes do not affect finalized orders.
type Line struct {
	ItemID   string          `json:"item_id"`
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Order is an immutable record of a finalized checkout.
// Total = Subtotal - DiscountAmount, with 0 <= DiscountAmount <= Subtotal.
type Order struct {
	ID             string
	UserID         string
	Lines          []Line
	Subtotal       decimal.Decimal
	DiscountCode   string
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
	Discount       discount.Result
	CreatedAt      time.Time
}

// ItemCount returns the total quantity across all lines.
func (o *Order) ItemCount() int {
	n := 0
	for _, l := range o.Lines {
		n += l.Quantity
	}
	return n
}

// Repository is the append-only order log.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	// List returns all orders in creation order.
	List(ctx context.Context) ([]Order, error)
}
