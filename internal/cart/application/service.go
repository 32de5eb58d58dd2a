package application

import (
	"context"

	"github.com/wyfcoding/posregister/internal/cart/domain"
	"github.com/wyfcoding/posregister/pkg/metrics"
)

// CartApplicationService 购物车服务门面，整合命令服务和查询服务
type CartApplicationService struct {
	commandService *CartCommandService
	queryService   *CartQueryService
}

// NewCartApplicationService 创建购物车服务门面实例
func NewCartApplicationService(
	sessions domain.SessionStore,
	products ProductLookup,
	publisher domain.EventPublisher,
	recorder metrics.SessionRecorder,
) *CartApplicationService {
	return &CartApplicationService{
		commandService: NewCartCommandService(sessions, products, publisher, recorder),
		queryService:   NewCartQueryService(sessions),
	}
}

func (s *CartApplicationService) OpenSession(ctx context.Context, operator string) (*domain.Session, error) {
	return s.commandService.OpenSession(ctx, operator)
}

func (s *CartApplicationService) CloseSession(ctx context.Context, id string) (bool, error) {
	return s.commandService.CloseSession(ctx, id)
}

func (s *CartApplicationService) AddItem(ctx context.Context, cmd AddItemCommand) (*CartView, error) {
	return s.commandService.AddItem(ctx, cmd)
}

func (s *CartApplicationService) RemoveItem(ctx context.Context, sessionID, code string) (*CartView, error) {
	return s.commandService.RemoveItem(ctx, sessionID, code)
}

func (s *CartApplicationService) ClearCart(ctx context.Context, sessionID string) (*CartView, error) {
	return s.commandService.ClearCart(ctx, sessionID)
}

func (s *CartApplicationService) WithSession(ctx context.Context, sessionID string, fn func(*domain.Session) error) error {
	return s.commandService.WithSession(ctx, sessionID, fn)
}

func (s *CartApplicationService) GetCart(ctx context.Context, sessionID string) (*CartView, error) {
	return s.queryService.GetCart(ctx, sessionID)
}

func (s *CartApplicationService) ActiveSessions(ctx context.Context) int {
	return s.queryService.ActiveSessions(ctx)
}
