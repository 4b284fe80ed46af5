package catalog

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested item does not exist in the catalog.
var ErrNotFound = errors.New("item not found")

// Item is a single catalog entry. Catalog data is created at load time and is
// never mutated by cart or checkout operations.
type Item struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	Description string
	Category    string
}

// Repository defines read access to the catalog.
type Repository interface {
	// List returns items in insertion order. A non-empty category restricts the
	// result to items whose category matches exactly (case-sensitive). An empty
	// result is valid, not an error.
	List(ctx context.Context, category string) ([]Item, error)
	// Categories returns the distinct categories present in the catalog.
	Categories(ctx context.Context) ([]string, error)
	// GetByID returns a single item, or ErrNotFound.
	GetByID(ctx context.Context, id string) (*Item, error)
	// GetByIDs returns the items matching any of the given IDs. Missing IDs are
	// simply absent from the result; callers decide whether that is fatal.
	GetByIDs(ctx context.Context, ids []string) ([]Item, error)
}
