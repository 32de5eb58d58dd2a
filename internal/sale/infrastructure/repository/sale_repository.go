package repository

import (
	"context"
	"errors"
	"time"

	"github.com/wyfcoding/posregister/internal/sale/domain"
	"github.com/wyfcoding/posregister/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type saleRepository struct{ db *gorm.DB }

func NewSaleRepository(db *gorm.DB) domain.SaleRepository {
	return &saleRepository{db: db}
}

func (r *saleRepository) CreateCustomer(ctx context.Context, customer *domain.Customer) error {
	return db.Conn(ctx, r.db).Create(customer).Error
}

func (r *saleRepository) CreateSale(ctx context.Context, sale *domain.Sale) error {
	err := db.Conn(ctx, r.db).Omit(clause.Associations).Create(sale).Error
	if db.IsDuplicateKey(err) {
		return domain.ErrDuplicateInvoice
	}
	return err
}

func (r *saleRepository) CreateItems(ctx context.Context, items []*domain.SaleItem) error {
	if len(items) == 0 {
		return nil
	}
	return db.Conn(ctx, r.db).Omit(clause.Associations).Create(&items).Error
}

func (r *saleRepository) GetByInvoice(ctx context.Context, invoiceNo string) (*domain.Sale, error) {
	var sale domain.Sale
	err := db.Conn(ctx, r.db).Preload("Customer").Where("invoice_no = ?", invoiceNo).First(&sale).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrSaleNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

func (r *saleRepository) ItemsByInvoice(ctx context.Context, invoiceNo string) ([]*domain.SaleItem, error) {
	items := make([]*domain.SaleItem, 0)
	err := db.Conn(ctx, r.db).
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Where("sales.invoice_no = ?", invoiceNo).
		Order("sale_items.id ASC").
		Find(&items).Error
	return items, err
}

func (r *saleRepository) List(ctx context.Context) ([]*domain.Sale, error) {
	sales := make([]*domain.Sale, 0)
	err := db.Conn(ctx, r.db).Preload("Customer").
		Order("created_at DESC").Order("id DESC").
		Find(&sales).Error
	return sales, err
}

func (r *saleRepository) ListBetween(ctx context.Context, from, to time.Time) ([]*domain.Sale, error) {
	sales := make([]*domain.Sale, 0)
	err := db.Conn(ctx, r.db).Preload("Customer").
		Where("created_at >= ? AND created_at < ?", from.UTC(), to.UTC()).
		Order("created_at ASC").Order("id ASC").
		Find(&sales).Error
	return sales, err
}

func (r *saleRepository) Totals(ctx context.Context) (domain.Totals, error) {
	var t domain.Totals
	err := db.Conn(ctx, r.db).Model(&domain.Sale{}).
		Select("COUNT(*) AS invoices, COALESCE(SUM(total), 0) AS revenue, COALESCE(SUM(total_cost), 0) AS cogs").
		Scan(&t).Error
	if err != nil {
		return domain.Totals{}, err
	}
	t.Revenue = t.Revenue.Round(2)
	t.COGS = t.COGS.Round(2)
	return t, nil
}

func (r *saleRepository) TopSellers(ctx context.Context, limit int) ([]domain.TopSeller, error) {
	top := make([]domain.TopSeller, 0, limit)
	err := db.Conn(ctx, r.db).Model(&domain.SaleItem{}).
		Select("product_code AS code, MAX(name) AS name, SUM(qty) AS qty, COALESCE(SUM(total), 0) AS revenue").
		Group("product_code").
		Order("qty DESC").Order("code ASC").
		Limit(limit).
		Scan(&top).Error
	if err != nil {
		return nil, err
	}
	for i := range top {
		top[i].Revenue = top[i].Revenue.Round(2)
	}
	return top, nil
}
