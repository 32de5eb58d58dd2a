package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	catalog "github.com/wyfcoding/posregister/internal/catalog/domain"
)

func product(code string, price, cost int64, stock int) *catalog.Product {
	return &catalog.Product{
		Code:      code,
		Name:      "Item " + code,
		Size:      "M",
		Price:     decimal.NewFromInt(price),
		CostPrice: decimal.NewFromInt(cost),
		Stock:     stock,
	}
}

func TestAddMergesLines(t *testing.T) {
	c := NewCart()
	p := product("C001", 1200, 800, 10)

	require.NoError(t, c.Add(p, 2))
	require.NoError(t, c.Add(p, 1))

	lines := c.Lines()
	require.Len(t, lines, 1)
	require.Equal(t, 3, lines[0].Qty)
	require.True(t, c.Subtotal().Equal(decimal.NewFromInt(3600)))
	require.True(t, c.TotalCost().Equal(decimal.NewFromInt(2400)))
	require.Equal(t, 3, c.Units())
}

func TestAddChecksCumulativeQtyAgainstStock(t *testing.T) {
	c := NewCart()
	p := product("C001", 1200, 800, 3)

	require.NoError(t, c.Add(p, 2))
	err := c.Add(p, 2)
	require.ErrorIs(t, err, catalog.ErrInsufficientStock)
	require.Equal(t, 2, c.Lines()[0].Qty)
}

func TestAddRejectsNonPositiveQty(t *testing.T) {
	c := NewCart()
	require.ErrorIs(t, c.Add(product("C001", 1, 1, 5), 0), catalog.ErrValidation)
	require.True(t, c.IsEmpty())
}

func TestSnapshotIsolation(t *testing.T) {
	c := NewCart()
	p := product("C001", 100, 60, 10)
	require.NoError(t, c.Add(p, 1))

	p.Price = decimal.NewFromInt(200)
	p.Name = "Renamed"
	require.NoError(t, c.Add(p, 1))

	line := c.Lines()[0]
	require.Equal(t, "Item C001", line.Name)
	require.True(t, line.Total().Equal(decimal.NewFromInt(200)))
}

func TestLinesReturnsCopy(t *testing.T) {
	c := NewCart()
	require.NoError(t, c.Add(product("C001", 100, 60, 10), 1))

	lines := c.Lines()
	lines[0].Qty = 99
	require.Equal(t, 1, c.Lines()[0].Qty)
}

func TestRemoveAndClear(t *testing.T) {
	c := NewCart()
	require.NoError(t, c.Add(product("C001", 100, 60, 10), 1))
	require.NoError(t, c.Add(product("C002", 50, 20, 10), 2))

	require.False(t, c.Remove("NOPE"))
	require.True(t, c.Remove("C001"))
	require.Equal(t, "C002", c.Lines()[0].Code)

	c.Clear()
	require.True(t, c.IsEmpty())
	require.True(t, c.Subtotal().IsZero())
}

func TestGrandTotal(t *testing.T) {
	c := NewCart()
	require.NoError(t, c.Add(product("C001", 1200, 800, 10), 3))

	total, err := c.GrandTotal(decimal.NewFromInt(600))
	require.NoError(t, err)
	require.True(t, total.Equal(decimal.NewFromInt(3000)))

	total, err = c.GrandTotal(decimal.NewFromInt(5000))
	require.NoError(t, err)
	require.True(t, total.IsZero())

	_, err = c.GrandTotal(decimal.NewFromInt(-1))
	require.ErrorIs(t, err, ErrInvalidDiscount)
}

func TestDiscountPrecision(t *testing.T) {
	subtotal := decimal.NewFromInt(3600)

	_, err := ApplyDiscount(subtotal, decimal.RequireFromString("0.005"))
	require.ErrorIs(t, err, ErrInvalidDiscount)
	_, err = ApplyDiscount(subtotal, decimal.RequireFromString("10.125"))
	require.ErrorIs(t, err, ErrInvalidDiscount)

	total, err := ApplyDiscount(subtotal, decimal.RequireFromString("12.50"))
	require.NoError(t, err)
	require.True(t, total.Equal(decimal.RequireFromString("3587.5")))

	// 尾随零不算多余精度
	total, err = ApplyDiscount(subtotal, decimal.RequireFromString("1.500"))
	require.NoError(t, err)
	require.True(t, total.Equal(decimal.RequireFromString("3598.5")))
}
