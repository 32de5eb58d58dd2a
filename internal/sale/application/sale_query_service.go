package application

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	catalog "github.com/wyfcoding/posregister/internal/catalog/domain"
	"github.com/wyfcoding/posregister/internal/sale/domain"
)

const dateLayout = "2006-01-02"

// InventoryReader 看板所需的库存读取
type InventoryReader interface {
	Inventory(ctx context.Context) (catalog.InventorySummary, error)
	LowStock(ctx context.Context, threshold int) ([]*catalog.Product, error)
}

// ReportOptions 报表参数
type ReportOptions struct {
	LowStockThreshold int
	TopSellersLimit   int
	// 按此时区切分自然日
	Location *time.Location
}

// LedgerQueryService 只读的销售汇总与报表
type LedgerQueryService struct {
	tx        TxRunner
	sales     domain.SaleRepository
	inventory InventoryReader
	cache     domain.DashboardCache
	opts      ReportOptions
}

// NewLedgerQueryService 创建报表查询服务实例
func NewLedgerQueryService(
	tx TxRunner,
	sales domain.SaleRepository,
	inventory InventoryReader,
	cache domain.DashboardCache,
	opts ReportOptions,
) *LedgerQueryService {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.TopSellersLimit <= 0 {
		opts.TopSellersLimit = 10
	}
	return &LedgerQueryService{
		tx:        tx,
		sales:     sales,
		inventory: inventory,
		cache:     cache,
		opts:      opts,
	}
}

func (s *LedgerQueryService) Location() *time.Location { return s.opts.Location }

// DashboardMetrics 看板指标，所有查询在同一只读事务内完成
func (s *LedgerQueryService) DashboardMetrics(ctx context.Context) (*domain.DashboardMetrics, error) {
	cached, version, ok := s.cache.Get(ctx)
	if ok {
		return cached, nil
	}

	m := &domain.DashboardMetrics{LowStockThreshold: s.opts.LowStockThreshold}
	err := s.tx.WithReadTx(ctx, func(ctx context.Context) error {
		totals, err := s.sales.Totals(ctx)
		if err != nil {
			return err
		}
		inv, err := s.inventory.Inventory(ctx)
		if err != nil {
			return err
		}
		low, err := s.inventory.LowStock(ctx, s.opts.LowStockThreshold)
		if err != nil {
			return err
		}
		top, err := s.sales.TopSellers(ctx, s.opts.TopSellersLimit)
		if err != nil {
			return err
		}

		m.Invoices = totals.Invoices
		m.Revenue = totals.Revenue
		m.COGS = totals.COGS
		m.InventoryValue = inv.Value
		m.Products = inv.Products
		m.StockUnits = inv.Units
		m.TopSellers = top
		m.LowStock = make([]domain.LowStockItem, 0, len(low))
		for _, p := range low {
			m.LowStock = append(m.LowStock, domain.LowStockItem{Code: p.Code, Name: p.Name, Size: p.Size, Stock: p.Stock})
		}
		return nil
	})
	if err != nil {
		return nil, &domain.PersistenceError{Op: "dashboard metrics", Err: err}
	}

	m.Profit = m.Revenue.Sub(m.COGS)
	m.GeneratedAt = time.Now().UTC()
	s.cache.Set(ctx, version, m)
	return m, nil
}

// RangeReport from、to 只取日期部分，按配置时区的自然日闭区间筛选，按时间升序
func (s *LedgerQueryService) RangeReport(ctx context.Context, from, to time.Time) (*domain.RangeReport, error) {
	start := s.startOfDay(from)
	last := s.startOfDay(to)
	if start.After(last) {
		return nil, catalog.NewValidationError("from", "must not be after to")
	}

	sales, err := s.sales.ListBetween(ctx, start, last.AddDate(0, 0, 1))
	if err != nil {
		return nil, &domain.PersistenceError{Op: "range report", Err: err}
	}

	report := &domain.RangeReport{
		From:     start.Format(dateLayout),
		To:       last.Format(dateLayout),
		Sales:    sales,
		Invoices: len(sales),
		Revenue:  decimal.Zero,
		COGS:     decimal.Zero,
	}
	for _, sale := range sales {
		report.Revenue = report.Revenue.Add(sale.Total)
		report.COGS = report.COGS.Add(sale.TotalCost)
	}
	report.Profit = report.Revenue.Sub(report.COGS)
	return report, nil
}

// ParseDate 按配置时区解析 YYYY-MM-DD
func (s *LedgerQueryService) ParseDate(field, value string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, value, s.opts.Location)
	if err != nil {
		return time.Time{}, catalog.NewValidationError(field, "must be a YYYY-MM-DD date")
	}
	return t, nil
}

// SaleItems 发票不存在时返回空切片
func (s *LedgerQueryService) SaleItems(ctx context.Context, invoiceNo string) ([]*domain.SaleItem, error) {
	items, err := s.sales.ItemsByInvoice(ctx, invoiceNo)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "sale items", Err: err}
	}
	return items, nil
}

// ListSales 全部销售，最新在前
func (s *LedgerQueryService) ListSales(ctx context.Context) ([]*domain.Sale, error) {
	sales, err := s.sales.List(ctx)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "list sales", Err: err}
	}
	return sales, nil
}

// GetSale 销售头与明细，不存在返回 ErrSaleNotFound
func (s *LedgerQueryService) GetSale(ctx context.Context, invoiceNo string) (*Receipt, error) {
	receipt := &Receipt{}
	err := s.tx.WithReadTx(ctx, func(ctx context.Context) error {
		sale, err := s.sales.GetByInvoice(ctx, invoiceNo)
		if err != nil {
			return err
		}
		items, err := s.sales.ItemsByInvoice(ctx, invoiceNo)
		if err != nil {
			return err
		}
		receipt.Sale, receipt.Items = sale, items
		return nil
	})
	if errors.Is(err, domain.ErrSaleNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, &domain.PersistenceError{Op: "get sale", Err: err}
	}
	return receipt, nil
}

func (s *LedgerQueryService) startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, s.opts.Location)
}
