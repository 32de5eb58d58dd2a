package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/wyfcoding/pkg/contextx"
	cart "github.com/wyfcoding/posregister/internal/cart/domain"
	catalog "github.com/wyfcoding/posregister/internal/catalog/domain"
	"github.com/wyfcoding/posregister/internal/sale/domain"
	"github.com/wyfcoding/posregister/pkg/logger"
	"github.com/wyfcoding/posregister/pkg/metrics"
)

// 发票号冲突时最多尝试的次数，每次使用新号码与新事务
const maxInvoiceAttempts = 3

// TxRunner 事务执行器，由 *db.DB 实现
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	WithReadTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// StockStore 提交时读取实时库存并扣减
type StockStore interface {
	Get(ctx context.Context, code string) (*catalog.Product, error)
	AdjustStock(ctx context.Context, code string, delta int) (int, error)
}

// CustomerInput 可选顾客信息
type CustomerInput struct {
	Name   string
	Mobile string
}

// CommitCommand 提交一笔销售
type CommitCommand struct {
	Cart     *cart.Cart
	Operator string
	Discount decimal.Decimal
	Customer *CustomerInput
}

// Receipt 已提交的销售及明细
type Receipt struct {
	Sale  *domain.Sale       `json:"sale"`
	Items []*domain.SaleItem `json:"items"`
}

// SaleCommandService 销售提交引擎
type SaleCommandService struct {
	tx        TxRunner
	sales     domain.SaleRepository
	products  StockStore
	invoices  domain.InvoiceGenerator
	publisher domain.EventPublisher
	cache     domain.DashboardCache
	recorder  metrics.SaleRecorder
	loc       *time.Location
}

// NewSaleCommandService 创建销售命令服务实例，loc 决定发票号中的本地时间
func NewSaleCommandService(
	tx TxRunner,
	sales domain.SaleRepository,
	products StockStore,
	invoices domain.InvoiceGenerator,
	publisher domain.EventPublisher,
	cache domain.DashboardCache,
	recorder metrics.SaleRecorder,
	loc *time.Location,
) *SaleCommandService {
	if loc == nil {
		loc = time.Local
	}
	return &SaleCommandService{
		tx:        tx,
		sales:     sales,
		products:  products,
		invoices:  invoices,
		publisher: publisher,
		cache:     cache,
		recorder:  recorder,
		loc:       loc,
	}
}

type commitInput struct {
	operator string
	lines    []cart.Line
	subtotal decimal.Decimal
	discount decimal.Decimal
	total    decimal.Decimal
	customer *CustomerInput
}

// Commit 校验购物车并原子提交：顾客、销售头、明细、库存扣减要么全部生效要么全部回滚
// 购物车本身不会被清空
func (s *SaleCommandService) Commit(ctx context.Context, cmd CommitCommand) (*Receipt, error) {
	if cmd.Cart == nil || cmd.Cart.IsEmpty() {
		s.recorder.RecordSaleFailed(failureReason(cart.ErrEmptyCart))
		return nil, cart.ErrEmptyCart
	}

	in := commitInput{
		operator: strings.TrimSpace(cmd.Operator),
		lines:    cmd.Cart.Lines(),
		subtotal: cmd.Cart.Subtotal(),
		discount: cmd.Discount,
		customer: cmd.Customer,
	}
	total, err := cart.ApplyDiscount(in.subtotal, in.discount)
	if err != nil {
		s.recorder.RecordSaleFailed(failureReason(err))
		return nil, err
	}
	in.total = total
	if in.operator == "" {
		err := catalog.NewValidationError("operator", "must not be empty")
		s.recorder.RecordSaleFailed(failureReason(err))
		return nil, err
	}

	var receipt *Receipt
	for attempt := 1; ; attempt++ {
		invoiceNo := s.invoices.Next(time.Now().In(s.loc))
		receipt, err = s.commitOnce(ctx, invoiceNo, in)
		if !errors.Is(err, domain.ErrDuplicateInvoice) || attempt == maxInvoiceAttempts {
			break
		}
		s.recorder.RecordInvoiceRetry()
		logger.Warn(ctx, "Invoice number collided, retrying", "invoice_no", invoiceNo, "attempt", attempt)
	}
	if err != nil {
		err = classify(err)
		s.recorder.RecordSaleFailed(failureReason(err))
		if errors.Is(err, domain.ErrPersistence) || errors.Is(err, domain.ErrDuplicateInvoice) {
			logger.Error(ctx, "Sale commit failed", "operator", in.operator, "error", err)
		}
		return nil, err
	}

	s.afterCommit(ctx, receipt)
	return receipt, nil
}

func (s *SaleCommandService) commitOnce(ctx context.Context, invoiceNo string, in commitInput) (*Receipt, error) {
	var receipt *Receipt
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		// 任何写入之前先整单校验，遇到第一行不足即终止
		for _, line := range in.lines {
			product, err := s.products.Get(ctx, line.Code)
			if errors.Is(err, catalog.ErrProductNotFound) {
				return &catalog.InsufficientStockError{ProductCode: line.Code, Requested: line.Qty}
			}
			if err != nil {
				return err
			}
			if line.Qty > product.Stock {
				return &catalog.InsufficientStockError{
					ProductCode: line.Code,
					Requested:   line.Qty,
					Available:   product.Stock,
				}
			}
		}

		sale := &domain.Sale{
			InvoiceNo: invoiceNo,
			Operator:  in.operator,
			Subtotal:  in.subtotal,
			Discount:  in.discount,
			Total:     in.total,
			TotalCost: decimal.Zero,
			CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
		}

		if c := in.customer; c != nil {
			name, mobile := strings.TrimSpace(c.Name), strings.TrimSpace(c.Mobile)
			if name != "" || mobile != "" {
				customer := &domain.Customer{Name: name, Mobile: mobile, CreatedAt: sale.CreatedAt}
				if err := s.sales.CreateCustomer(ctx, customer); err != nil {
					return err
				}
				sale.CustomerID = &customer.ID
				sale.Customer = customer
			}
		}

		items := make([]*domain.SaleItem, 0, len(in.lines))
		for _, line := range in.lines {
			sale.TotalCost = sale.TotalCost.Add(line.Cost())
			items = append(items, &domain.SaleItem{
				ProductCode: line.Code,
				Name:        line.Name,
				Size:        line.Size,
				Price:       line.Price,
				CostPrice:   line.CostPrice,
				Qty:         line.Qty,
				Total:       line.Total(),
			})
		}

		if err := s.sales.CreateSale(ctx, sale); err != nil {
			return err
		}
		for _, item := range items {
			item.SaleID = sale.ID
		}
		if err := s.sales.CreateItems(ctx, items); err != nil {
			return err
		}

		// 扣减语句自身再校验一次非负，并发提交不会超卖
		for _, line := range in.lines {
			if _, err := s.products.AdjustStock(ctx, line.Code, -line.Qty); err != nil {
				if errors.Is(err, catalog.ErrProductNotFound) {
					return &catalog.InsufficientStockError{ProductCode: line.Code, Requested: line.Qty}
				}
				return err
			}
		}

		receipt = &Receipt{Sale: sale, Items: items}
		return s.publisher.PublishInTx(ctx, contextx.GetTx(ctx), domain.TopicSaleCommitted, sale.InvoiceNo, committedEvent(receipt))
	})
	if err != nil {
		return nil, err
	}
	return receipt, nil
}

func (s *SaleCommandService) afterCommit(ctx context.Context, receipt *Receipt) {
	sale := receipt.Sale
	units := 0
	for _, item := range receipt.Items {
		units += item.Qty
	}

	s.cache.Invalidate(ctx)
	s.recorder.RecordSaleCommitted(sale.Total.InexactFloat64(), units)

	logger.Info(ctx, "Sale committed",
		"invoice_no", sale.InvoiceNo,
		"operator", sale.Operator,
		"total", sale.Total.String(),
		"units", units,
	)
}

func committedEvent(receipt *Receipt) domain.SaleCommittedEvent {
	sale := receipt.Sale
	event := domain.SaleCommittedEvent{
		InvoiceNo: sale.InvoiceNo,
		Operator:  sale.Operator,
		Total:     sale.Total,
		TotalCost: sale.TotalCost,
		Lines:     make([]domain.SoldLine, 0, len(receipt.Items)),
		Timestamp: sale.CreatedAt,
	}
	for _, item := range receipt.Items {
		event.Units += item.Qty
		event.Lines = append(event.Lines, domain.SoldLine{Code: item.ProductCode, Qty: item.Qty})
	}
	return event
}

// classify 领域错误原样返回，其余视为存储层错误
func classify(err error) error {
	switch {
	case errors.Is(err, catalog.ErrInsufficientStock),
		errors.Is(err, catalog.ErrValidation),
		errors.Is(err, domain.ErrDuplicateInvoice),
		errors.Is(err, domain.ErrPersistence):
		return err
	default:
		return &domain.PersistenceError{Op: "commit sale", Err: err}
	}
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, cart.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, cart.ErrInvalidDiscount):
		return "invalid_discount"
	case errors.Is(err, catalog.ErrValidation):
		return "validation"
	case errors.Is(err, catalog.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrDuplicateInvoice):
		return "duplicate_invoice"
	default:
		return "persistence"
	}
}
