// Package memory provides mutex-guarded in-memory implementations of the
// domain repositories. It is the default backend and the backend unit tests
// run against; the interfaces it implements are the same ones the PostgreSQL
// repositories satisfy.
package memory

import (
	"context"
	"sync"

	"github.com/xenking/storefront/internal/domain/catalog"
)

// Catalog is an insertion-ordered in-memory catalog.
type Catalog struct {
	mu    sync.RWMutex
	order []string
	items map[string]catalog.Item
}

// NewCatalog creates a Catalog preloaded with the given items.
func NewCatalog(items ...catalog.Item) *Catalog {
	c := &Catalog{items: make(map[string]catalog.Item, len(items))}
	for _, it := range items {
		c.Put(it)
	}
	return c
}

// Put inserts or replaces an item. Intended for load time and tests.
func (c *Catalog) Put(it catalog.Item) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[it.ID]; !ok {
		c.order = append(c.order, it.ID)
	}
	c.items[it.ID] = it
}

// Delete removes an item. Intended for tests exercising checkout against a
// catalog that changed after items were carted.
func (c *Catalog) Delete(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.items[id]; !ok {
		return
	}
	delete(c.items, id)
	for i, v := range c.order {
		if v == id {
			c.order = append(c.order[:i], c.order[i+1:]...)
			break
		}
	}
}

// List returns items in insertion order, optionally filtered by exact
// category match.
func (c *Catalog) List(_ context.Context, category string) ([]catalog.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]catalog.Item, 0, len(c.order))
	for _, id := range c.order {
		it := c.items[id]
		if category != "" && it.Category != category {
			continue
		}
		out = append(out, it)
	}
	return out, nil
}

// Categories returns the distinct categories in first-seen order.
func (c *Catalog) Categories(_ context.Context) ([]string, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]struct{})
	var out []string
	for _, id := range c.order {
		cat := c.items[id].Category
		if _, ok := seen[cat]; ok {
			continue
		}
		seen[cat] = struct{}{}
		out = append(out, cat)
	}
	return out, nil
}

// GetByID returns a single item, or catalog.ErrNotFound.
func (c *Catalog) GetByID(_ context.Context, id string) (*catalog.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	it, ok := c.items[id]
	if !ok {
		return nil, catalog.ErrNotFound
	}
	return &it, nil
}

// GetByIDs returns the items matching any of the given IDs; missing IDs are
// absent from the result.
func (c *Catalog) GetByIDs(_ context.Context, ids []string) ([]catalog.Item, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]catalog.Item, 0, len(ids))
	for _, id := range ids {
		if it, ok := c.items[id]; ok {
			out = append(out, it)
		}
	}
	return out, nil
}
