package cart

import "context"

// Line is a single cart entry. Quantity is always >= 1: a line whose quantity
// would drop to zero is removed instead of stored.
type Line struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// Cart is a user's pending purchase. Lines keep insertion order and reference
// at most one line per item.
type Cart struct {
	UserID string
	Lines  []Line
}

// Add merges quantity into an existing line for the item, or appends a new one.
func (c *Cart) Add(itemID string, quantity int) {
	for i := range c.Lines {
		if c.Lines[i].ItemID == itemID {
			c.Lines[i].Quantity += quantity
			return
		}
	}
	c.Lines = append(c.Lines, Line{ItemID: itemID, Quantity: quantity})
}

// Remove deletes the line for the item. Removing an absent item is a no-op.
func (c *Cart) Remove(itemID string) {
	for i := range c.Lines {
		if c.Lines[i].ItemID == itemID {
			c.Lines = append(c.Lines[:i], c.Lines[i+1:]...)
			return
		}
	}
}

// Clear drops all lines.
func (c *Cart) Clear() {
	c.Lines = nil
}

// Empty reports whether the cart has no lines.
func (c *Cart) Empty() bool {
	return len(c.Lines) == 0
}

// Clone returns a deep copy of the cart.
func (c *Cart) Clone() *Cart {
	out := &Cart{UserID: c.UserID}
	if len(c.Lines) > 0 {
		out.Lines = make([]Line, len(c.Lines))
		copy(out.Lines, c.Lines)
	}
	return out
}

// Repository defines persistence for carts, keyed by user ID.
type Repository interface {
	// Get returns the user's cart, creating an empty one on first access.
	Get(ctx context.Context, userID string) (*Cart, error)
	// Update runs fn against the user's cart under per-user mutual exclusion.
	// Mutations made by fn are persisted only when fn returns nil; any error
	// aborts the update and leaves the stored cart unchanged. Updates for the
	// same user never interleave.
	Update(ctx context.Context, userID string, fn func(c *Cart) error) error
}
