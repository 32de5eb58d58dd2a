package application

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wyfcoding/posregister/internal/cart/domain"
	catalog "github.com/wyfcoding/posregister/internal/catalog/domain"
	"github.com/wyfcoding/posregister/pkg/logger"
	"github.com/wyfcoding/posregister/pkg/metrics"
)

// AddItemCommand 添加商品到购物车命令
type AddItemCommand struct {
	SessionID string
	Code      string
	Qty       int
}

// CartCommandService 购物车命令服务
type CartCommandService struct {
	sessions  domain.SessionStore
	products  ProductLookup
	publisher domain.EventPublisher
	recorder  metrics.SessionRecorder
}

// NewCartCommandService 创建购物车命令服务实例
func NewCartCommandService(
	sessions domain.SessionStore,
	products ProductLookup,
	publisher domain.EventPublisher,
	recorder metrics.SessionRecorder,
) *CartCommandService {
	return &CartCommandService{
		sessions:  sessions,
		products:  products,
		publisher: publisher,
		recorder:  recorder,
	}
}

// OpenSession 为收银员开启新会话
func (s *CartCommandService) OpenSession(ctx context.Context, operator string) (*domain.Session, error) {
	operator = strings.TrimSpace(operator)
	if operator == "" {
		return nil, catalog.NewValidationError("operator", "must not be empty")
	}

	session := domain.NewSession(uuid.NewString(), operator)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}
	s.recorder.SetActiveSessions(s.sessions.Count(ctx))

	s.publish(ctx, domain.TopicSessionOpened, session.ID, domain.SessionOpenedEvent{
		SessionID: session.ID,
		Operator:  operator,
		Timestamp: time.Now(),
	})
	logger.Info(logger.WithSessionID(ctx, session.ID), "Session opened", "operator", operator)
	return session, nil
}

// CloseSession 关闭会话，未提交的购物车随之丢弃
func (s *CartCommandService) CloseSession(ctx context.Context, id string) (bool, error) {
	removed, err := s.sessions.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	s.recorder.SetActiveSessions(s.sessions.Count(ctx))
	return removed, nil
}

// AddItem 按当前实时库存校验后加入购物车
func (s *CartCommandService) AddItem(ctx context.Context, cmd AddItemCommand) (*CartView, error) {
	var view *CartView
	err := withSession(ctx, s.sessions, cmd.SessionID, func(session *domain.Session) error {
		product, err := s.products.Find(ctx, strings.TrimSpace(cmd.Code))
		if err != nil {
			return err
		}
		if err := session.Cart.Add(product, cmd.Qty); err != nil {
			return err
		}

		s.publish(ctx, domain.TopicCartItemAdded, session.ID, domain.CartItemAddedEvent{
			SessionID: session.ID,
			Code:      product.Code,
			Qty:       cmd.Qty,
			Price:     product.Price,
			Timestamp: time.Now(),
		})
		view = newCartView(session)
		return nil
	})
	return view, err
}

// RemoveItem 移除一行，不存在时不报错
func (s *CartCommandService) RemoveItem(ctx context.Context, sessionID, code string) (*CartView, error) {
	var view *CartView
	err := withSession(ctx, s.sessions, sessionID, func(session *domain.Session) error {
		session.Cart.Remove(code)
		view = newCartView(session)
		return nil
	})
	return view, err
}

// ClearCart 清空购物车，同时清除上一张发票号，开始新一笔销售
func (s *CartCommandService) ClearCart(ctx context.Context, sessionID string) (*CartView, error) {
	var view *CartView
	err := withSession(ctx, s.sessions, sessionID, func(session *domain.Session) error {
		session.Cart.Clear()
		session.LastInvoice = ""
		view = newCartView(session)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, domain.TopicCartCleared, sessionID, domain.CartClearedEvent{
		SessionID: sessionID,
		Timestamp: time.Now(),
	})
	return view, nil
}

// WithSession 在会话锁内执行 fn，供收银提交使用
func (s *CartCommandService) WithSession(ctx context.Context, sessionID string, fn func(*domain.Session) error) error {
	return withSession(ctx, s.sessions, sessionID, fn)
}

func (s *CartCommandService) publish(ctx context.Context, topic, key string, event any) {
	if err := s.publisher.Publish(ctx, topic, key, event); err != nil {
		logger.Warn(ctx, "Failed to publish cart event", "topic", topic, "error", err)
	}
}
