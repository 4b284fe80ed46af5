package cart

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/catalog"
)

// ErrInvalidQuantity is returned when a requested quantity is not a positive
// integer.
var ErrInvalidQuantity = errors.New("quantity must be a positive integer")

// PricedLine is a cart line joined with the current catalog name and price.
type PricedLine struct {
	ItemID   string
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// View is a cart priced against the live catalog. Total is recomputed from
// current prices on every read, so catalog price changes are reflected until
// checkout snapshots them.
type View struct {
	UserID string
	Lines  []PricedLine
	Total  decimal.Decimal
}

// Ledger owns cart mutations and pricing.
type Ledger struct {
	carts   Repository
	catalog catalog.Repository
}

// NewLedger creates a Ledger over the given cart and catalog repositories.
func NewLedger(carts Repository, cat catalog.Repository) *Ledger {
	return &Ledger{carts: carts, catalog: cat}
}

// Get returns the user's cart priced at current catalog prices, creating an
// empty cart on first access.
func (l *Ledger) Get(ctx context.Context, userID string) (*View, error) {
	c, err := l.carts.Get(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart")
	}
	return l.Price(ctx, c)
}

// Add puts quantity of the item into the user's cart, merging with an existing
// line for the same item. The quantity must be positive and the item must
// exist in the catalog; validation failures leave the cart unchanged.
func (l *Ledger) Add(ctx context.Context, userID, itemID string, quantity int) (*View, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	if _, err := l.catalog.GetByID(ctx, itemID); err != nil {
		return nil, errors.Wrapf(err, "look up item %s", itemID)
	}

	var updated *Cart
	err := l.carts.Update(ctx, userID, func(c *Cart) error {
		c.Add(itemID, quantity)
		updated = c.Clone()
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "update cart")
	}
	return l.Price(ctx, updated)
}

// Remove deletes the item's line from the user's cart. Removing an item that
// is not in the cart is a no-op, not an error.
func (l *Ledger) Remove(ctx context.Context, userID, itemID string) (*View, error) {
	var updated *Cart
	err := l.carts.Update(ctx, userID, func(c *Cart) error {
		c.Remove(itemID)
		updated = c.Clone()
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "update cart")
	}
	return l.Price(ctx, updated)
}

// Price joins cart lines with current catalog items and computes the running
// total. A line whose item has vanished from the catalog fails with
// catalog.ErrNotFound rather than being silently dropped.
func (l *Ledger) Price(ctx context.Context, c *Cart) (*View, error) {
	view := &View{UserID: c.UserID, Total: decimal.Zero}
	if c.Empty() {
		return view, nil
	}

	ids := make([]string, len(c.Lines))
	for i, line := range c.Lines {
		ids[i] = line.ItemID
	}

	items, err := l.catalog.GetByIDs(ctx, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get items")
	}
	byID := make(map[string]catalog.Item, len(items))
	for _, it := range items {
		byID[it.ID] = it
	}

	view.Lines = make([]PricedLine, 0, len(c.Lines))
	for _, line := range c.Lines {
		it, ok := byID[line.ItemID]
		if !ok {
			return nil, errors.Wrapf(catalog.ErrNotFound, "item %s", line.ItemID)
		}
		view.Lines = append(view.Lines, PricedLine{
			ItemID:   it.ID,
			Name:     it.Name,
			Price:    it.Price,
			Quantity: line.Quantity,
		})
		qty := decimal.NewFromInt(int64(line.Quantity))
		view.Total = view.Total.Add(it.Price.Mul(qty))
	}
	view.Total = view.Total.Round(2)

	return view, nil
}
