// 包 domain 销售记录、发票号与报表读模型
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Sale 一笔已提交的销售，创建后不再修改
type Sale struct {
	ID         uint            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	InvoiceNo  string          `gorm:"column:invoice_no;type:varchar(64);uniqueIndex;not null" json:"invoice_no"`
	Operator   string          `gorm:"column:operator;type:varchar(100);not null" json:"operator"`
	CustomerID *uint           `gorm:"column:customer_id;index" json:"customer_id,omitempty"`
	Subtotal   decimal.Decimal `gorm:"column:subtotal;type:decimal(20,2);not null" json:"subtotal"`
	Discount   decimal.Decimal `gorm:"column:discount;type:decimal(20,2);not null" json:"discount"`
	// 应收金额 = max(0, subtotal - discount)
	Total decimal.Decimal `gorm:"column:total;type:decimal(20,2);not null" json:"total"`
	// 成本合计 = Σ 进价 × 数量
	TotalCost decimal.Decimal `gorm:"column:total_cost;type:decimal(20,2);not null" json:"total_cost"`
	CreatedAt time.Time       `gorm:"column:created_at;index" json:"created_at"`

	Customer *Customer `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
}

func (Sale) TableName() string { return "sales" }

// Profit 毛利
func (s *Sale) Profit() decimal.Decimal { return s.Total.Sub(s.TotalCost) }

// SaleItem 销售明细，价格与成本为提交时的快照
type SaleItem struct {
	ID          uint            `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	SaleID      uint            `gorm:"column:sale_id;index;not null" json:"sale_id"`
	ProductCode string          `gorm:"column:product_code;type:varchar(64);index;not null" json:"product_code"`
	Name        string          `gorm:"column:name;type:varchar(255);not null" json:"name"`
	Size        string          `gorm:"column:size;type:varchar(50)" json:"size"`
	Price       decimal.Decimal `gorm:"column:price;type:decimal(20,2);not null" json:"price"`
	CostPrice   decimal.Decimal `gorm:"column:cost_price;type:decimal(20,2);not null" json:"cost_price"`
	Qty         int             `gorm:"column:qty;not null" json:"qty"`
	Total       decimal.Decimal `gorm:"column:total;type:decimal(20,2);not null" json:"total"`

	Sale *Sale `gorm:"foreignKey:SaleID;constraint:OnDelete:CASCADE" json:"-"`
}

func (SaleItem) TableName() string { return "sale_items" }

// Customer 顾客，每笔带姓名或手机号的销售各建一条，不去重
type Customer struct {
	ID        uint      `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"column:name;type:varchar(255)" json:"name"`
	Mobile    string    `gorm:"column:mobile;type:varchar(50);index" json:"mobile"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Customer) TableName() string { return "customers" }

// Models 需要迁移的表
func Models() []any {
	return []any{&Customer{}, &Sale{}, &SaleItem{}}
}
