package application

import (
	"context"
	"iter"

	"github.com/wyfcoding/posregister/internal/catalog/domain"
)

// CatalogApplicationService 商品服务门面，整合命令服务和查询服务
type CatalogApplicationService struct {
	commandService *CatalogCommandService
	queryService   *CatalogQueryService
}

// NewCatalogApplicationService 创建商品服务门面实例
func NewCatalogApplicationService(
	tx TxRunner,
	repo domain.ProductRepository,
	publisher domain.EventPublisher,
	listener domain.ChangeListener,
) *CatalogApplicationService {
	return &CatalogApplicationService{
		commandService: NewCatalogCommandService(tx, repo, publisher, listener),
		queryService:   NewCatalogQueryService(repo),
	}
}

func (s *CatalogApplicationService) UpsertProduct(ctx context.Context, cmd UpsertProductCommand) (*domain.Product, error) {
	return s.commandService.UpsertProduct(ctx, cmd)
}

func (s *CatalogApplicationService) DeleteProduct(ctx context.Context, code string) (bool, error) {
	return s.commandService.DeleteProduct(ctx, code)
}

func (s *CatalogApplicationService) AdjustStock(ctx context.Context, cmd AdjustStockCommand) (int, error) {
	return s.commandService.AdjustStock(ctx, cmd)
}

func (s *CatalogApplicationService) SeedDemo(ctx context.Context) (int, error) {
	return s.commandService.SeedDemo(ctx)
}

func (s *CatalogApplicationService) GetProduct(ctx context.Context, code string) (*domain.Product, error) {
	return s.queryService.GetProduct(ctx, code)
}

func (s *CatalogApplicationService) Products(ctx context.Context) iter.Seq2[*domain.Product, error] {
	return s.queryService.Products(ctx)
}

func (s *CatalogApplicationService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return s.queryService.ListProducts(ctx)
}

func (s *CatalogApplicationService) CountProducts(ctx context.Context) (int64, error) {
	return s.queryService.CountProducts(ctx)
}
