package order

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/cart"
	"github.com/xenking/storefront/internal/domain/catalog"
	"github.com/xenking/storefront/internal/domain/discount"
)

// ErrEmptyCart is returned when checkout is attempted with no cart lines.
var ErrEmptyCart = errors.New("cart is empty")

// timeNow is overridable in tests.
var timeNow = func() time.Time { return time.Now().UTC() }

// Redeemer consumes a discount code against a subtotal. A refused code comes
// back as a non-applied Result, not an error.
type Redeemer interface {
	Redeem(ctx context.Context, value string, subtotal decimal.Decimal) (discount.Result, error)
}

// StatsRecorder folds finalized orders into the aggregate counters.
type StatsRecorder interface {
	RecordOrder(ctx context.Context, o *Order) error
}

// Finalizer converts a cart plus an optional discount code into an immutable
// order.
type Finalizer struct {
	carts   cart.Repository
	catalog catalog.Repository
	codes   Redeemer
	orders  Repository
	stats   StatsRecorder
}

// NewFinalizer creates a Finalizer with the required collaborators.
func NewFinalizer(
	carts cart.Repository,
	cat catalog.Repository,
	codes Redeemer,
	orders Repository,
	stats StatsRecorder,
) *Finalizer {
	return &Finalizer{
		carts:   carts,
		catalog: cat,
		codes:   codes,
		orders:  orders,
		stats:   stats,
	}
}

// Checkout snapshots the user's cart at current catalog prices, redeems the
// optional discount code, persists the resulting order, clears the cart, and
// reports the order to stats. The whole sequence runs inside the cart
// repository's per-user critical section, so it never interleaves with
// concurrent add/remove/checkout for the same user, and any failure leaves
// the cart unchanged.
//
// A refused code (unknown or already used) does not abort checkout: the order
// finalizes at full price and Discount carries the explanatory message. A cart
// line whose item has vanished from the catalog fails the checkout with
// catalog.ErrNotFound.
func (f *Finalizer) Checkout(ctx context.Context, userID, code string) (*Order, error) {
	var placed *Order
	err := f.carts.Update(ctx, userID, func(c *cart.Cart) error {
		if c.Empty() {
			return ErrEmptyCart
		}

		lines, subtotal, err := f.snapshot(ctx, c)
		if err != nil {
			return err
		}

		res := discount.Result{Applied: false, Message: discount.MsgNoCode, Amount: decimal.Zero}
		if code != "" {
			res, err = f.codes.Redeem(ctx, code, subtotal)
			if err != nil {
				return errors.Wrap(err, "redeem code")
			}
		}

		o := &Order{
			ID:             uuid.New().String(),
			UserID:         userID,
			Lines:          lines,
			Subtotal:       subtotal,
			DiscountCode:   code,
			DiscountAmount: res.Amount,
			Total:          subtotal.Sub(res.Amount).Round(2),
			Discount:       res,
			CreatedAt:      timeNow(),
		}
		if err := f.orders.Create(ctx, o); err != nil {
			return errors.Wrap(err, "create order")
		}
		if err := f.stats.RecordOrder(ctx, o); err != nil {
			return errors.Wrap(err, "record order")
		}

		c.Clear()
		placed = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return placed, nil
}

// snapshot copies cart lines with the current catalog name and price and
// computes the subtotal. A missing catalog item fails loudly rather than
// silently dropping the line.
func (f *Finalizer) snapshot(ctx context.Context, c *cart.Cart) ([]Line, decimal.Decimal, error) {
	ids := make([]string, len(c.Lines))
	for i, line := range c.Lines {
		ids[i] = line.ItemID
	}

	items, err := f.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, errors.Wrap(err, "get items")
	}
	byID := make(map[string]catalog.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	lines := make([]Line, 0, len(c.Lines))
	subtotal := decimal.Zero
	for _, cl := range c.Lines {
		it, ok := byID[cl.ItemID]
		if !ok {
			return nil, decimal.Zero, errors.Wrapf(catalog.ErrNotFound, "item %s", cl.ItemID)
		}
		lines = append(lines, Line{
			ItemID:   it.ID,
			Name:     it.Name,
			Price:    it.Price,
			Quantity: cl.Quantity,
		})
		qty := decimal.NewFromInt(int64(cl.Quantity))
		subtotal = subtotal.Add(it.Price.Mul(qty))
	}

	return lines, subtotal.Round(2), nil
}
