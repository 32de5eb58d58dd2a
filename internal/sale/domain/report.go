package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Totals 销售汇总
type Totals struct {
	Invoices int64           `gorm:"column:invoices"`
	Revenue  decimal.Decimal `gorm:"column:revenue"`
	COGS     decimal.Decimal `gorm:"column:cogs"`
}

// TopSeller 按累计销量排序的商品
type TopSeller struct {
	Code    string          `json:"code"`
	Name    string          `json:"name"`
	Qty     int64           `json:"qty"`
	Revenue decimal.Decimal `json:"revenue"`
}

// LowStockItem 低库存商品
type LowStockItem struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Size  string `json:"size"`
	Stock int    `json:"stock"`
}

// DashboardMetrics 看板指标
type DashboardMetrics struct {
	Invoices          int64           `json:"invoices"`
	Revenue           decimal.Decimal `json:"revenue"`
	COGS              decimal.Decimal `json:"cogs"`
	Profit            decimal.Decimal `json:"profit"`
	InventoryValue    decimal.Decimal `json:"inventory_value"`
	Products          int64           `json:"products"`
	StockUnits        int64           `json:"stock_units"`
	LowStockThreshold int             `json:"low_stock_threshold"`
	LowStock          []LowStockItem  `json:"low_stock"`
	TopSellers        []TopSeller     `json:"top_sellers"`
	GeneratedAt       time.Time       `json:"generated_at"`
}

// RangeReport 按日期区间的销售报表，区间两端均包含
type RangeReport struct {
	From     string          `json:"from"`
	To       string          `json:"to"`
	Sales    []*Sale         `json:"sales"`
	Invoices int             `json:"invoices"`
	Revenue  decimal.Decimal `json:"revenue"`
	COGS     decimal.Decimal `json:"cogs"`
	Profit   decimal.Decimal `json:"profit"`
}
