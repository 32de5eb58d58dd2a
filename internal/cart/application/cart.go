package application

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/posregister/internal/cart/domain"
	catalog "github.com/wyfcoding/posregister/internal/catalog/domain"
)

// ProductLookup 读取商品实时数据，加入购物车时取快照
type ProductLookup interface {
	Find(ctx context.Context, code string) (*catalog.Product, error)
}

// LineView 购物车行视图
type LineView struct {
	domain.Line
	Total decimal.Decimal `json:"total"`
}

// CartView 购物车视图
type CartView struct {
	SessionID   string          `json:"session_id"`
	Operator    string          `json:"operator"`
	LastInvoice string          `json:"last_invoice,omitempty"`
	Lines       []LineView      `json:"lines"`
	Units       int             `json:"units"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

// 调用方需持有会话锁
func newCartView(s *domain.Session) *CartView {
	lines := s.Cart.Lines()
	views := make([]LineView, 0, len(lines))
	for _, l := range lines {
		views = append(views, LineView{Line: l, Total: l.Total()})
	}
	return &CartView{
		SessionID:   s.ID,
		Operator:    s.Operator,
		LastInvoice: s.LastInvoice,
		Lines:       views,
		Units:       s.Cart.Units(),
		Subtotal:    s.Cart.Subtotal(),
	}
}

// withSession 取出会话并持有其锁执行 fn，保证同一会话单写者
func withSession(ctx context.Context, store domain.SessionStore, id string, fn func(*domain.Session) error) error {
	s, err := store.Get(ctx, id)
	if err != nil {
		return err
	}
	s.Lock()
	defer s.Unlock()
	return fn(s)
}
