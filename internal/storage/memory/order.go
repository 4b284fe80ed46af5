package memory

import (
	"context"
	"sync"

	"github.com/xenking/storefront/internal/domain/order"
)

// Orders is the in-memory append-only order log.
type Orders struct {
	mu     sync.Mutex
	orders []order.Order
}

// NewOrders creates an empty order log.
func NewOrders() *Orders {
	return &Orders{}
}

// Create appends a deep copy of the order.
func (s *Orders) Create(_ context.Context, o *order.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *o
	stored.Lines = make([]order.Line, len(o.Lines))
	copy(stored.Lines, o.Lines)
	s.orders = append(s.orders, stored)
	return nil
}

// List returns all orders in creation order.
func (s *Orders) List(_ context.Context) ([]order.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]order.Order, len(s.orders))
	copy(out, s.orders)
	return out, nil
}
