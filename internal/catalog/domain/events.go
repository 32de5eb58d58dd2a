package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	TopicProductUpserted      = "product.upserted"
	TopicProductDeleted       = "product.deleted"
	TopicProductStockAdjusted = "product.stock.adjusted"
)

// ProductUpsertedEvent 商品新增或替换事件
type ProductUpsertedEvent struct {
	Code      string          `json:"code"`
	Name      string          `json:"name"`
	CostPrice decimal.Decimal `json:"cost_price"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	Category  string          `json:"category"`
	Timestamp time.Time       `json:"timestamp"`
}

// ProductDeletedEvent 商品删除事件
type ProductDeletedEvent struct {
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

// ProductStockAdjustedEvent 手工调整库存事件
type ProductStockAdjustedEvent struct {
	Code      string    `json:"code"`
	Delta     int       `json:"delta"`
	NewStock  int       `json:"new_stock"`
	Timestamp time.Time `json:"timestamp"`
}
