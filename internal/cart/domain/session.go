package domain

import (
	"context"
	"sync"
	"time"
)

// Session 一个收银员的一次收银会话，同一时刻只有一个写者
type Session struct {
	ID          string    `json:"id"`
	Operator    string    `json:"operator"`
	CreatedAt   time.Time `json:"created_at"`
	LastInvoice string    `json:"last_invoice,omitempty"`
	Cart        *Cart     `json:"-"`

	mu sync.Mutex
}

func NewSession(id, operator string) *Session {
	return &Session{
		ID:        id,
		Operator:  operator,
		CreatedAt: time.Now(),
		Cart:      NewCart(),
	}
}

func (s *Session) Lock()   { s.mu.Lock() }
func (s *Session) Unlock() { s.mu.Unlock() }

// SessionStore 会话存储，购物车不落库，会话丢失即购物车丢失
type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	// Get 不存在返回 ErrSessionNotFound
	Get(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) int
}

// EventPublisher 领域事件发布接口
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
}
