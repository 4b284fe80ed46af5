package stats

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/storefront/internal/domain/order"
)

func testOrder(total, discount string, quantities ...int) order.Order {
	o := order.Order{
		Total:          decimal.RequireFromString(total),
		DiscountAmount: decimal.RequireFromString(discount),
	}
	o.Subtotal = o.Total.Add(o.DiscountAmount)
	for _, q := range quantities {
		o.Lines = append(o.Lines, order.Line{ItemID: "x", Quantity: q})
	}
	return o
}

func TestAggregator_EmptySnapshot(t *testing.T) {
	s, err := NewAggregator().Snapshot(context.Background())
	require.NoError(t, err)
	assert.Zero(t, s.TotalItemsSold)
	assert.Zero(t, s.OrderCount)
	assert.True(t, decimal.Zero.Equal(s.TotalAmount))
	assert.True(t, decimal.Zero.Equal(s.TotalDiscount))
	assert.Empty(t, s.IssuedCodes)
}

func TestAggregator_FoldsOrdersAndCodes(t *testing.T) {
	ctx := context.Background()
	a := NewAggregator()

	o1 := testOrder("18.00", "2.00", 2)
	o2 := testOrder("5.50", "0", 1, 3)
	require.NoError(t, a.RecordOrder(ctx, &o1))
	require.NoError(t, a.RecordOrder(ctx, &o2))
	require.NoError(t, a.RecordIssuedCode(ctx, "CODEONE1"))
	require.NoError(t, a.RecordIssuedCode(ctx, "CODETWO2"))

	s, err := a.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(6), s.TotalItemsSold)
	assert.Equal(t, int64(2), s.OrderCount)
	assert.True(t, decimal.RequireFromString("23.50").Equal(s.TotalAmount), "got %s", s.TotalAmount)
	assert.True(t, decimal.RequireFromString("2.00").Equal(s.TotalDiscount))
	assert.Equal(t, []string{"CODEONE1", "CODETWO2"}, s.IssuedCodes)
}

func TestAggregator_SnapshotIsACopy(t *testing.T) {
	ctx := context.Background()
	a := NewAggregator()
	require.NoError(t, a.RecordIssuedCode(ctx, "AAAA1111"))

	s, err := a.Snapshot(ctx)
	require.NoError(t, err)
	s.IssuedCodes[0] = "mutated"

	again, err := a.Snapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAAA1111"}, again.IssuedCodes)
}

func TestFold_MatchesIncremental(t *testing.T) {
	ctx := context.Background()
	a := NewAggregator()

	orders := []order.Order{
		testOrder("18.00", "2.00", 2),
		testOrder("5.50", "0", 1),
		testOrder("100.00", "11.11", 4, 4),
	}
	codes := []string{"AAAA1111", "BBBB2222"}

	for i := range orders {
		require.NoError(t, a.RecordOrder(ctx, &orders[i]))
	}
	for _, c := range codes {
		require.NoError(t, a.RecordIssuedCode(ctx, c))
	}

	incremental, err := a.Snapshot(ctx)
	require.NoError(t, err)
	folded := Fold(orders, codes)

	assert.Equal(t, folded.TotalItemsSold, incremental.TotalItemsSold)
	assert.Equal(t, folded.OrderCount, incremental.OrderCount)
	assert.True(t, folded.TotalAmount.Equal(incremental.TotalAmount))
	assert.True(t, folded.TotalDiscount.Equal(incremental.TotalDiscount))
	assert.Equal(t, folded.IssuedCodes, incremental.IssuedCodes)
}
