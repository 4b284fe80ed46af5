package repository

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/catalog"
)

const (
	listItemsSQL = `SELECT id, name, price, description, category
		FROM items WHERE ($1 = '' OR category = $1) ORDER BY position`

	// First-seen order, matching the order items entered the catalog.
	listCategoriesSQL = `SELECT category FROM items GROUP BY category ORDER BY MIN(position)`

	getItemByIDSQL = `SELECT id, name, price, description, category
		FROM items WHERE id = $1`

	getItemsByIDsSQL = `SELECT id, name, price, description, category
		FROM items WHERE id = ANY($1)`

	upsertItemSQL = `INSERT INTO items (id, name, price, description, category)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			price = EXCLUDED.price,
			description = EXCLUDED.description,
			category = EXCLUDED.category`
)

var _ catalog.Repository = (*CatalogRepository)(nil)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// List returns items in insertion order, optionally filtered by exact
// category match.
func (r *CatalogRepository) List(ctx context.Context, category string) ([]catalog.Item, error) {
	rows, err := r.pool.Query(ctx, listItemsSQL, category)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return pgx.CollectRows(rows, scanItem)
}

// Categories returns the distinct categories present in the catalog.
func (r *CatalogRepository) Categories(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (string, error) {
		var c string
		err := row.Scan(&c)
		return c, err
	})
}

// GetByID returns a single item by its identifier.
func (r *CatalogRepository) GetByID(ctx context.Context, id string) (*catalog.Item, error) {
	rows, err := r.pool.Query(ctx, getItemByIDSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting item %q: %w", id, err)
	}

	it, err := pgx.CollectExactlyOneRow(rows, scanItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrNotFound
		}
		return nil, fmt.Errorf("getting item %q: %w", id, err)
	}
	return &it, nil
}

// GetByIDs returns items matching any of the given IDs.
func (r *CatalogRepository) GetByIDs(ctx context.Context, ids []string) ([]catalog.Item, error) {
	rows, err := r.pool.Query(ctx, getItemsByIDsSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("getting items by ids: %w", err)
	}
	return pgx.CollectRows(rows, scanItem)
}

// Upsert inserts or updates a catalog item. Used by the seed tool.
func (r *CatalogRepository) Upsert(ctx context.Context, it catalog.Item) error {
	_, err := r.pool.Exec(ctx, upsertItemSQL,
		it.ID, it.Name, it.Price, it.Description, it.Category,
	)
	if err != nil {
		return fmt.Errorf("upserting item %q: %w", it.ID, err)
	}
	return nil
}

func scanItem(row pgx.CollectableRow) (catalog.Item, error) {
	var (
		it    catalog.Item
		price decimal.Decimal
	)
	err := row.Scan(&it.ID, &it.Name, &price, &it.Description, &it.Category)
	it.Price = price
	return it, err
}
