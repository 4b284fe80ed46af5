// Package stats maintains aggregate sales counters derived from the order and
// discount-code logs. The snapshot is a read model: it must always equal a
// full fold over those logs, which makes it recomputable for recovery.
package stats

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/xenking/storefront/internal/domain/order"
)

// Snapshot is the aggregate view at a point in time.
type Snapshot struct {
	TotalItemsSold int64
	TotalAmount    decimal.Decimal
	TotalDiscount  decimal.Decimal
	IssuedCodes    []string
	OrderCount     int64
}

// Source produces the current aggregates.
type Source interface {
	Snapshot(ctx context.Context) (Snapshot, error)
}

// Aggregator is an in-memory incremental fold over finalized orders and issued
// codes. Safe for concurrent use. It implements order.StatsRecorder,
// discount.StatsRecorder, and Source.
type Aggregator struct {
	mu        sync.Mutex
	itemsSold int64
	amount    decimal.Decimal
	discount  decimal.Decimal
	codes     []string
	orders    int64
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{
		amount:   decimal.Zero,
		discount: decimal.Zero,
	}
}

// RecordOrder folds a finalized order into the running aggregates. Each order
// must be recorded exactly once.
func (a *Aggregator) RecordOrder(_ context.Context, o *order.Order) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.itemsSold += int64(o.ItemCount())
	a.amount = a.amount.Add(o.Total)
	a.discount = a.discount.Add(o.DiscountAmount)
	a.orders++
	return nil
}

// RecordIssuedCode adds a code to the issued set, independent of whether the
// code is ever redeemed.
func (a *Aggregator) RecordIssuedCode(_ context.Context, value string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.codes = append(a.codes, value)
	return nil
}

// Snapshot returns a copy of the current aggregates.
func (a *Aggregator) Snapshot(_ context.Context) (Snapshot, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	codes := make([]string, len(a.codes))
	copy(codes, a.codes)

	return Snapshot{
		TotalItemsSold: a.itemsSold,
		TotalAmount:    a.amount,
		TotalDiscount:  a.discount,
		IssuedCodes:    codes,
		OrderCount:     a.orders,
	}, nil
}

// Fold recomputes a Snapshot from scratch over the given logs. Used to verify
// that the incremental aggregates stayed consistent.
func Fold(orders []order.Order, codes []string) Snapshot {
	s := Snapshot{
		TotalAmount:   decimal.Zero,
		TotalDiscount: decimal.Zero,
		IssuedCodes:   append([]string(nil), codes...),
	}
	for i := range orders {
		s.TotalItemsSold += int64(orders[i].ItemCount())
		s.TotalAmount = s.TotalAmount.Add(orders[i].Total)
		s.TotalDiscount = s.TotalDiscount.Add(orders[i].DiscountAmount)
		s.OrderCount++
	}
	return s
}
