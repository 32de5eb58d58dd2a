// 包 domain 商品目录的领域模型
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product 商品实体，以商品编码为主键，编码创建后不可修改
type Product struct {
	// 商品编码（业务主键）
	Code string `gorm:"column:code;type:varchar(64);primaryKey" json:"code"`
	// 商品名称
	Name string `gorm:"column:name;type:varchar(255);not null;index" json:"name"`
	// 分类
	Category string `gorm:"column:category;type:varchar(100);index" json:"category"`
	// 尺码
	Size string `gorm:"column:size;type:varchar(50)" json:"size"`
	// 进价
	CostPrice decimal.Decimal `gorm:"column:cost_price;type:decimal(20,2);not null;default:0" json:"cost_price"`
	// 售价
	Price decimal.Decimal `gorm:"column:price;type:decimal(20,2);not null;default:0" json:"price"`
	// 库存，永不为负
	Stock int `gorm:"column:stock;not null;default:0" json:"stock"`
	// 描述
	Description string    `gorm:"column:description;type:text" json:"description"`
	CreatedAt   time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Product) TableName() string { return "products" }

// Normalize 去除文本字段首尾空白
func (p *Product) Normalize() {
	p.Code = strings.TrimSpace(p.Code)
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	p.Size = strings.TrimSpace(p.Size)
	p.Description = strings.TrimSpace(p.Description)
}

// Validate 校验写入前的商品数据
func (p *Product) Validate() error {
	if p.Code == "" {
		return NewValidationError("code", "must not be empty")
	}
	if p.Name == "" {
		return NewValidationError("name", "must not be empty")
	}
	if p.CostPrice.IsNegative() {
		return NewValidationError("cost_price", "must not be negative")
	}
	if p.Price.IsNegative() {
		return NewValidationError("price", "must not be negative")
	}
	if p.Stock < 0 {
		return NewValidationError("stock", "must not be negative")
	}
	return nil
}

// InventoryValue 按进价计算的库存价值
func (p *Product) InventoryValue() decimal.Decimal {
	return p.CostPrice.Mul(decimal.NewFromInt(int64(p.Stock)))
}

// DemoProducts 空库时写入的演示商品
func DemoProducts() []*Product {
	mk := func(code, name, category, size string, cost, price int64, stock int, desc string) *Product {
		return &Product{
			Code:        code,
			Name:        name,
			Category:    category,
			Size:        size,
			CostPrice:   decimal.NewFromInt(cost),
			Price:       decimal.NewFromInt(price),
			Stock:       stock,
			Description: desc,
		}
	}
	return []*Product{
		mk("C001", "Baby Suit - Blue", "Baby", "S", 800, 1200, 10, "Soft cotton baby suit"),
		mk("C002", "Baby Suit - Pink", "Baby", "S", 800, 1200, 8, "Pink cotton baby suit"),
		mk("M001", "Gents Shirt - White", "Gents", "M", 900, 1500, 20, "Formal shirt white"),
		mk("M002", "Gents Shirt - Blue", "Gents", "L", 950, 1600, 15, "Casual blue shirt"),
		mk("B001", "Baba Suit - Traditional", "Baba", "Free", 1500, 2500, 5, "Traditional style"),
		mk("P001", "Gents Paint - Black", "Gents", "32", 400, 800, 12, "Formal paint black"),
	}
}
