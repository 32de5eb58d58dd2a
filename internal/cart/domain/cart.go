// 包 domain 收银会话与购物车
package domain

import (
	"errors"

	"github.com/shopspring/decimal"
	catalog "github.com/wyfcoding/posregister/internal/catalog/domain"
)

var (
	ErrEmptyCart       = errors.New("cart is empty")
	ErrInvalidDiscount = errors.New("discount must be non-negative with at most 2 decimal places")
	ErrSessionNotFound = errors.New("session not found")
)

// Line 购物车行，名称、尺码、售价、进价均为加入时的快照
type Line struct {
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	Size      string          `json:"size"`
	Price     decimal.Decimal `json:"price"`
	CostPrice decimal.Decimal `json:"cost_price"`
	Qty       int             `json:"qty"`
}

// Total 行金额 = 售价 × 数量
func (l Line) Total() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Cost 行成本 = 进价 × 数量
func (l Line) Cost() decimal.Decimal {
	return l.CostPrice.Mul(decimal.NewFromInt(int64(l.Qty)))
}

// Cart 单个会话的购物车，每个商品编码至多一行，按加入顺序保存
type Cart struct {
	lines []Line
}

func NewCart() *Cart { return &Cart{} }

// Add 把商品加入购物车
// 同编码已存在时只累加数量，快照保持首次加入时的值；累计数量不得超过当前实时库存
func (c *Cart) Add(product *catalog.Product, qty int) error {
	if qty < 1 {
		return catalog.NewValidationError("qty", "must be at least 1")
	}

	i := c.index(product.Code)
	want := qty
	if i >= 0 {
		want += c.lines[i].Qty
	}
	if want > product.Stock {
		return &catalog.InsufficientStockError{
			ProductCode: product.Code,
			Requested:   want,
			Available:   product.Stock,
		}
	}

	if i >= 0 {
		c.lines[i].Qty = want
		return nil
	}
	c.lines = append(c.lines, Line{
		Code:      product.Code,
		Name:      product.Name,
		Size:      product.Size,
		Price:     product.Price,
		CostPrice: product.CostPrice,
		Qty:       qty,
	})
	return nil
}

// Remove 移除一行，返回是否存在
func (c *Cart) Remove(code string) bool {
	i := c.index(code)
	if i < 0 {
		return false
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	return true
}

func (c *Cart) Clear() { c.lines = nil }

func (c *Cart) IsEmpty() bool { return len(c.lines) == 0 }

// Lines 返回行的副本，调用方修改不影响购物车
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.Total())
	}
	return sum
}

func (c *Cart) TotalCost() decimal.Decimal {
	sum := decimal.Zero
	for _, l := range c.lines {
		sum = sum.Add(l.Cost())
	}
	return sum
}

// Units 件数合计
func (c *Cart) Units() int {
	n := 0
	for _, l := range c.lines {
		n += l.Qty
	}
	return n
}

// GrandTotal 应收金额，折扣超过小计时取 0
func (c *Cart) GrandTotal(discount decimal.Decimal) (decimal.Decimal, error) {
	return ApplyDiscount(c.Subtotal(), discount)
}

// ApplyDiscount max(0, subtotal - discount)；折扣为负或精度超过分时返回 ErrInvalidDiscount
func ApplyDiscount(subtotal, discount decimal.Decimal) (decimal.Decimal, error) {
	if discount.IsNegative() || !discount.Equal(discount.Round(2)) {
		return decimal.Zero, ErrInvalidDiscount
	}
	total := subtotal.Sub(discount)
	if total.IsNegative() {
		return decimal.Zero, nil
	}
	return total, nil
}

func (c *Cart) index(code string) int {
	for i := range c.lines {
		if c.lines[i].Code == code {
			return i
		}
	}
	return -1
}
