package memory

import (
	"context"
	"sync"

	"github.com/xenking/storefront/internal/domain/discount"
)

// Codes is the in-memory discount code registry log. The single mutex makes
// Consume an atomic check-and-set: two checkouts racing on one code can never
// both win.
type Codes struct {
	mu    sync.Mutex
	order []string
	codes map[string]*discount.Code
}

// NewCodes creates an empty code registry.
func NewCodes() *Codes {
	return &Codes{codes: make(map[string]*discount.Code)}
}

// Insert stores a fresh code, or returns discount.ErrCodeExists.
func (s *Codes) Insert(_ context.Context, c *discount.Code) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.codes[c.Value]; ok {
		return discount.ErrCodeExists
	}
	stored := *c
	s.codes[c.Value] = &stored
	s.order = append(s.order, c.Value)
	return nil
}

// Consume atomically flips the consumed flag exactly once per code.
func (s *Codes) Consume(_ context.Context, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.codes[value]
	if !ok {
		return discount.ErrCodeNotFound
	}
	if c.Consumed {
		return discount.ErrCodeConsumed
	}
	c.Consumed = true
	return nil
}

// Codes returns every issued code value in issue order.
func (s *Codes) Codes(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.order))
	copy(out, s.order)
	return out, nil
}
