package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicSessionOpened = "session.opened"
	TopicCartItemAdded = "cart.item.added"
	TopicCartCleared   = "cart.cleared"
)

// SessionOpenedEvent 收银会话开启事件
type SessionOpenedEvent struct {
	SessionID string    `json:"session_id"`
	Operator  string    `json:"operator"`
	Timestamp time.Time `json:"timestamp"`
}

// CartItemAddedEvent 购物车添加商品事件
type CartItemAddedEvent struct {
	SessionID string          `json:"session_id"`
	Code      string          `json:"code"`
	Qty       int             `json:"qty"`
	Price     decimal.Decimal `json:"price"`
	Timestamp time.Time       `json:"timestamp"`
}

// CartClearedEvent 购物车清空事件
type CartClearedEvent struct {
	SessionID string    `json:"session_id"`
	Timestamp time.Time `json:"timestamp"`
}
