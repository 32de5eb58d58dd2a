package mq

import (
	"context"
	"fmt"

	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/pkg/messagequeue/outbox"
	"gorm.io/gorm"
)

// OutboxPublisher 基于 Outbox 模式的事件发布者，事件行与业务数据同一事务落库
type OutboxPublisher struct {
	manager *outbox.Manager
}

// NewOutboxPublisher 创建一个新的 OutboxPublisher 实例
func NewOutboxPublisher(manager *outbox.Manager) *OutboxPublisher {
	return &OutboxPublisher{manager: manager}
}

// Publish 发布事件；ctx 中已有事务时随该事务提交，否则单独写入
func (p *OutboxPublisher) Publish(ctx context.Context, topic string, key string, event any) error {
	if tx, ok := contextx.GetTx(ctx).(*gorm.DB); ok && tx != nil {
		return p.manager.PublishInTx(ctx, tx, topic, key, event)
	}
	return p.manager.PublishInTx(ctx, p.manager.DB(), topic, key, event)
}

// PublishInTx 在事务中发布事件
func (p *OutboxPublisher) PublishInTx(ctx context.Context, tx any, topic string, key string, event any) error {
	gormTx, ok := tx.(*gorm.DB)
	if !ok || gormTx == nil {
		return fmt.Errorf("tx must be *gorm.DB, got %T", tx)
	}
	return p.manager.PublishInTx(ctx, gormTx, topic, key, event)
}
