package application

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/contextx"
	"github.com/wyfcoding/posregister/internal/catalog/domain"
	"github.com/wyfcoding/posregister/pkg/logger"
)

// UpsertProductCommand 新增或替换商品命令
type UpsertProductCommand struct {
	Code        string
	Name        string
	Category    string
	Size        string
	CostPrice   decimal.Decimal
	Price       decimal.Decimal
	Stock       int
	Description string
}

// AdjustStockCommand 手工调整库存命令（补货为正，盘亏为负）
type AdjustStockCommand struct {
	Code  string
	Delta int
}

// TxRunner 事务执行器，由 *db.DB 实现
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// CatalogCommandService 商品命令服务，写入与领域事件在同一事务提交
type CatalogCommandService struct {
	tx        TxRunner
	repo      domain.ProductRepository
	publisher domain.EventPublisher
	listener  domain.ChangeListener
}

// NewCatalogCommandService 创建商品命令服务实例
func NewCatalogCommandService(
	tx TxRunner,
	repo domain.ProductRepository,
	publisher domain.EventPublisher,
	listener domain.ChangeListener,
) *CatalogCommandService {
	return &CatalogCommandService{
		tx:        tx,
		repo:      repo,
		publisher: publisher,
		listener:  listener,
	}
}

// UpsertProduct 校验后按编码写入商品
func (s *CatalogCommandService) UpsertProduct(ctx context.Context, cmd UpsertProductCommand) (*domain.Product, error) {
	product := &domain.Product{
		Code:        cmd.Code,
		Name:        cmd.Name,
		Category:    cmd.Category,
		Size:        cmd.Size,
		CostPrice:   cmd.CostPrice,
		Price:       cmd.Price,
		Stock:       cmd.Stock,
		Description: cmd.Description,
	}
	product.Normalize()
	if err := product.Validate(); err != nil {
		return nil, err
	}

	var saved *domain.Product
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Upsert(ctx, product); err != nil {
			return fmt.Errorf("upsert product %s: %w", product.Code, err)
		}
		// 替换已有商品时保留原 created_at，回读落库后的行
		var err error
		if saved, err = s.repo.Get(ctx, product.Code); err != nil {
			return fmt.Errorf("reload product %s: %w", product.Code, err)
		}
		return s.publisher.PublishInTx(ctx, contextx.GetTx(ctx), domain.TopicProductUpserted, saved.Code, domain.ProductUpsertedEvent{
			Code:      saved.Code,
			Name:      saved.Name,
			CostPrice: saved.CostPrice,
			Price:     saved.Price,
			Stock:     saved.Stock,
			Category:  saved.Category,
			Timestamp: time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}
	s.listener.CatalogChanged(ctx)

	logger.Info(ctx, "Product upserted", "code", saved.Code, "stock", saved.Stock)
	return saved, nil
}

// DeleteProduct 删除商品，不存在时不报错
func (s *CatalogCommandService) DeleteProduct(ctx context.Context, code string) (bool, error) {
	var removed bool
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if removed, err = s.repo.Delete(ctx, code); err != nil {
			return fmt.Errorf("delete product %s: %w", code, err)
		}
		if !removed {
			return nil
		}
		return s.publisher.PublishInTx(ctx, contextx.GetTx(ctx), domain.TopicProductDeleted, code, domain.ProductDeletedEvent{
			Code:      code,
			Timestamp: time.Now(),
		})
	})
	if err != nil || !removed {
		return false, err
	}
	s.listener.CatalogChanged(ctx)

	logger.Info(ctx, "Product deleted", "code", code)
	return true, nil
}

// AdjustStock 调整库存，返回调整后的库存
func (s *CatalogCommandService) AdjustStock(ctx context.Context, cmd AdjustStockCommand) (int, error) {
	var stock int
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		var err error
		if stock, err = s.repo.AdjustStock(ctx, cmd.Code, cmd.Delta); err != nil {
			return err
		}
		return s.publisher.PublishInTx(ctx, contextx.GetTx(ctx), domain.TopicProductStockAdjusted, cmd.Code, domain.ProductStockAdjustedEvent{
			Code:      cmd.Code,
			Delta:     cmd.Delta,
			NewStock:  stock,
			Timestamp: time.Now(),
		})
	})
	if err != nil {
		return 0, err
	}
	s.listener.CatalogChanged(ctx)

	logger.Info(ctx, "Stock adjusted", "code", cmd.Code, "delta", cmd.Delta, "stock", stock)
	return stock, nil
}

// SeedDemo 商品表为空时写入演示商品，返回写入条数
func (s *CatalogCommandService) SeedDemo(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		return 0, nil
	}

	demo := domain.DemoProducts()
	for _, p := range demo {
		if err := s.repo.Upsert(ctx, p); err != nil {
			return 0, fmt.Errorf("seed product %s: %w", p.Code, err)
		}
	}
	s.listener.CatalogChanged(ctx)

	logger.Info(ctx, "Demo catalog seeded", "count", len(demo))
	return len(demo), nil
}
