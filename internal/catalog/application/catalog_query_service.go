package application

import (
	"context"
	"iter"

	"github.com/wyfcoding/posregister/internal/catalog/domain"
)

// CatalogQueryService 商品查询服务
type CatalogQueryService struct {
	repo domain.ProductRepository
}

// NewCatalogQueryService 创建商品查询服务实例
func NewCatalogQueryService(repo domain.ProductRepository) *CatalogQueryService {
	return &CatalogQueryService{repo: repo}
}

func (s *CatalogQueryService) GetProduct(ctx context.Context, code string) (*domain.Product, error) {
	return s.repo.Get(ctx, code)
}

// Products 按名称排序的惰性序列
func (s *CatalogQueryService) Products(ctx context.Context) iter.Seq2[*domain.Product, error] {
	return s.repo.List(ctx)
}

// ListProducts 一次性取出全部商品
func (s *CatalogQueryService) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	products := make([]*domain.Product, 0)
	for p, err := range s.repo.List(ctx) {
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, nil
}

func (s *CatalogQueryService) CountProducts(ctx context.Context) (int64, error) {
	return s.repo.Count(ctx)
}
