package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const TopicSaleCommitted = "sale.committed"

// SaleCommittedEvent 销售提交事件，与销售记录在同一事务写入 outbox
type SaleCommittedEvent struct {
	InvoiceNo string          `json:"invoice_no"`
	Operator  string          `json:"operator"`
	Total     decimal.Decimal `json:"total"`
	TotalCost decimal.Decimal `json:"total_cost"`
	Units     int             `json:"units"`
	Lines     []SoldLine      `json:"lines"`
	Timestamp time.Time       `json:"timestamp"`
}

// SoldLine 事件中的出库明细
type SoldLine struct {
	Code string `json:"code"`
	Qty  int    `json:"qty"`
}
