package app

import (
	"encoding/json"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/db"
	"github.com/xenking/storefront/internal/domain/catalog"
)

// seedItem mirrors the db/seed/items.json entry layout. Prices are JSON
// strings so the decimal survives parsing exactly.
type seedItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Price       string `json:"price"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// loadSeedCatalog parses the embedded default catalog.
func loadSeedCatalog() ([]catalog.Item, error) {
	var raw []seedItem
	if err := json.Unmarshal(db.SeedItems, &raw); err != nil {
		return nil, errors.Wrap(err, "parse seed items")
	}

	items := make([]catalog.Item, 0, len(raw))
	for _, s := range raw {
		price, err := decimal.NewFromString(s.Price)
		if err != nil {
			return nil, errors.Wrapf(err, "parse price for item %q", s.ID)
		}
		items = append(items, catalog.Item{
			ID:          s.ID,
			Name:        s.Name,
			Price:       price,
			Description: s.Description,
			Category:    s.Category,
		})
	}
	return items, nil
}
