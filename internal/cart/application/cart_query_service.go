package application

import (
	"context"

	"github.com/wyfcoding/posregister/internal/cart/domain"
)

// CartQueryService 购物车查询服务
type CartQueryService struct {
	sessions domain.SessionStore
}

// NewCartQueryService 创建购物车查询服务实例
func NewCartQueryService(sessions domain.SessionStore) *CartQueryService {
	return &CartQueryService{sessions: sessions}
}

// GetCart 获取会话当前购物车
func (s *CartQueryService) GetCart(ctx context.Context, sessionID string) (*CartView, error) {
	var view *CartView
	err := withSession(ctx, s.sessions, sessionID, func(session *domain.Session) error {
		view = newCartView(session)
		return nil
	})
	return view, err
}

func (s *CartQueryService) ActiveSessions(ctx context.Context) int {
	return s.sessions.Count(ctx)
}
