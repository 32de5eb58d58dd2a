package domain

import (
	"context"
	"time"
)

// SaleRepository 销售仓储接口，context 中携带事务时在事务内执行
type SaleRepository interface {
	CreateCustomer(ctx context.Context, customer *Customer) error
	// CreateSale 发票号冲突时返回 ErrDuplicateInvoice
	CreateSale(ctx context.Context, sale *Sale) error
	CreateItems(ctx context.Context, items []*SaleItem) error

	// GetByInvoice 带顾客信息，不存在返回 ErrSaleNotFound
	GetByInvoice(ctx context.Context, invoiceNo string) (*Sale, error)
	// ItemsByInvoice 发票不存在时返回空切片
	ItemsByInvoice(ctx context.Context, invoiceNo string) ([]*SaleItem, error)
	// List 全部销售，最新在前
	List(ctx context.Context) ([]*Sale, error)
	// ListBetween created_at 落在 [from, to) 的销售，按时间升序
	ListBetween(ctx context.Context, from, to time.Time) ([]*Sale, error)
	Totals(ctx context.Context) (Totals, error)
	TopSellers(ctx context.Context, limit int) ([]TopSeller, error)
}

// InvoiceGenerator 生成发票号
type InvoiceGenerator interface {
	Next(now time.Time) string
}

// DashboardCache 看板指标缓存，按代次存取
type DashboardCache interface {
	// Get 返回当前代次及该代次下的缓存值
	Get(ctx context.Context) (metrics *DashboardMetrics, version int64, ok bool)
	// Set 写入 Get 时读到的代次，代次已被 Invalidate 推进时写入对读者不可见
	Set(ctx context.Context, version int64, metrics *DashboardMetrics)
	// Invalidate 推进代次
	Invalidate(ctx context.Context)
}

// EventPublisher 领域事件发布接口，PublishInTx 随业务事务一起提交
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
	PublishInTx(ctx context.Context, tx any, topic string, key string, event any) error
}
