package memory

import (
	"context"
	"sync"

	"github.com/xenking/storefront/internal/domain/cart"
)

// Carts stores one cart per user with one lock per cart, so mutations for the
// same user serialize without blocking other users.
type Carts struct {
	mu    sync.Mutex
	carts map[string]*cartEntry
}

type cartEntry struct {
	mu   sync.Mutex
	cart cart.Cart
}

// NewCarts creates an empty cart store.
func NewCarts() *Carts {
	return &Carts{carts: make(map[string]*cartEntry)}
}

func (s *Carts) entry(userID string) *cartEntry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.carts[userID]
	if !ok {
		e = &cartEntry{cart: cart.Cart{UserID: userID}}
		s.carts[userID] = e
	}
	return e
}

// Get returns a copy of the user's cart, creating an empty one on first
// access.
func (s *Carts) Get(_ context.Context, userID string) (*cart.Cart, error) {
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.cart.Clone(), nil
}

// Update runs fn against a working copy of the user's cart while holding that
// cart's lock. The copy replaces the stored cart only when fn returns nil, so
// a failed update is invisible.
func (s *Carts) Update(_ context.Context, userID string, fn func(c *cart.Cart) error) error {
	e := s.entry(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	work := e.cart.Clone()
	if err := fn(work); err != nil {
		return err
	}
	e.cart = *work
	return nil
}
