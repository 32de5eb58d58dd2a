package domain

import (
	"context"
	"iter"

	"github.com/shopspring/decimal"
)

// ProductRepository 商品仓储接口，context 中携带事务时在事务内执行
type ProductRepository interface {
	// Upsert 按编码插入或整体替换
	Upsert(ctx context.Context, product *Product) error
	// Delete 按编码删除，返回是否确有删除
	Delete(ctx context.Context, code string) (bool, error)
	// Get 按编码获取，不存在返回 ErrProductNotFound
	Get(ctx context.Context, code string) (*Product, error)
	// Find 收银查找，编码大小写不敏感，完全一致的编码优先
	Find(ctx context.Context, code string) (*Product, error)
	// List 按名称排序的惰性序列，每次遍历重新查询
	List(ctx context.Context) iter.Seq2[*Product, error]
	// AdjustStock 按有符号增量调整库存，结果为负时返回 InsufficientStockError 且库存不变
	AdjustStock(ctx context.Context, code string, delta int) (int, error)
	// Count 商品总数
	Count(ctx context.Context) (int64, error)
	// Inventory 商品数、库存件数与按进价计的库存价值
	Inventory(ctx context.Context) (InventorySummary, error)
	// LowStock 库存不高于阈值的商品，按库存升序
	LowStock(ctx context.Context, threshold int) ([]*Product, error)
}

// InventorySummary 库存汇总
type InventorySummary struct {
	Products int64           `json:"products"`
	Units    int64           `json:"units"`
	Value    decimal.Decimal `json:"value"`
}

// EventPublisher 领域事件发布接口
type EventPublisher interface {
	Publish(ctx context.Context, topic string, key string, event any) error
	PublishInTx(ctx context.Context, tx any, topic string, key string, event any) error
}

// ChangeListener 商品或库存变化后的回调，用于让看板缓存失效
type ChangeListener interface {
	CatalogChanged(ctx context.Context)
}
