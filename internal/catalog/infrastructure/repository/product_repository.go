package repository

import (
	"context"
	"errors"
	"iter"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/posregister/internal/catalog/domain"
	"github.com/wyfcoding/posregister/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var replaceColumns = []string{"name", "category", "size", "cost_price", "price", "stock", "description", "updated_at"}

type productRepository struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) domain.ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Upsert(ctx context.Context, product *domain.Product) error {
	return db.Conn(ctx, r.db).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "code"}},
		DoUpdates: clause.AssignmentColumns(replaceColumns),
	}).Create(product).Error
}

func (r *productRepository) Delete(ctx context.Context, code string) (bool, error) {
	res := db.Conn(ctx, r.db).Where("code = ?", code).Delete(&domain.Product{})
	return res.RowsAffected > 0, res.Error
}

func (r *productRepository) Get(ctx context.Context, code string) (*domain.Product, error) {
	var p domain.Product
	err := db.Conn(ctx, r.db).Where("code = ?", code).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepository) Find(ctx context.Context, code string) (*domain.Product, error) {
	p, err := r.Get(ctx, code)
	if !errors.Is(err, domain.ErrProductNotFound) {
		return p, err
	}
	var found domain.Product
	err = db.Conn(ctx, r.db).Where("UPPER(code) = ?", strings.ToUpper(code)).Order("code ASC").First(&found).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *productRepository) List(ctx context.Context) iter.Seq2[*domain.Product, error] {
	return func(yield func(*domain.Product, error) bool) {
		conn := db.Conn(ctx, r.db)
		rows, err := conn.Model(&domain.Product{}).Order("name ASC").Order("code ASC").Rows()
		if err != nil {
			yield(nil, err)
			return
		}
		defer rows.Close()

		for rows.Next() {
			var p domain.Product
			if err := conn.ScanRows(rows, &p); err != nil {
				yield(nil, err)
				return
			}
			if !yield(&p, nil) {
				return
			}
		}
		if err := rows.Err(); err != nil {
			yield(nil, err)
		}
	}
}

// AdjustStock 用带条件的单条 UPDATE 完成校验与扣减，并发下不会超卖
func (r *productRepository) AdjustStock(ctx context.Context, code string, delta int) (int, error) {
	conn := db.Conn(ctx, r.db)

	if delta != 0 {
		res := conn.Model(&domain.Product{}).
			Where("code = ? AND stock + ? >= 0", code, delta).
			Update("stock", gorm.Expr("stock + ?", delta))
		if res.Error != nil {
			return 0, res.Error
		}
		if res.RowsAffected == 0 {
			current, err := r.Get(ctx, code)
			if err != nil {
				return 0, err
			}
			return current.Stock, &domain.InsufficientStockError{
				ProductCode: code,
				Requested:   -delta,
				Available:   current.Stock,
			}
		}
	}

	current, err := r.Get(ctx, code)
	if err != nil {
		return 0, err
	}
	return current.Stock, nil
}

func (r *productRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	err := db.Conn(ctx, r.db).Model(&domain.Product{}).Count(&n).Error
	return n, err
}

func (r *productRepository) Inventory(ctx context.Context) (domain.InventorySummary, error) {
	var row struct {
		Products int64
		Units    int64
		Value    decimal.Decimal
	}
	err := db.Conn(ctx, r.db).Model(&domain.Product{}).
		Select("COUNT(*) AS products, COALESCE(SUM(stock), 0) AS units, COALESCE(SUM(stock * cost_price), 0) AS value").
		Scan(&row).Error
	if err != nil {
		return domain.InventorySummary{}, err
	}
	return domain.InventorySummary{Products: row.Products, Units: row.Units, Value: row.Value.Round(2)}, nil
}

func (r *productRepository) LowStock(ctx context.Context, threshold int) ([]*domain.Product, error) {
	var products []*domain.Product
	err := db.Conn(ctx, r.db).
		Where("stock <= ?", threshold).
		Order("stock ASC").Order("code ASC").
		Find(&products).Error
	return products, err
}
