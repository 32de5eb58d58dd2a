package application

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	cartapp "github.com/wyfcoding/posregister/internal/cart/application"
	cart "github.com/wyfcoding/posregister/internal/cart/domain"
	"github.com/wyfcoding/posregister/internal/sale/domain"
	"github.com/wyfcoding/posregister/pkg/logger"
)

// ErrAlreadyCheckedOut 本会话购物车已提交过，需先开始新一笔销售
var ErrAlreadyCheckedOut = errors.New("cart already checked out, start a new sale first")

// SessionRunner 收银会话访问，由购物车服务实现
type SessionRunner interface {
	WithSession(ctx context.Context, sessionID string, fn func(*cart.Session) error) error
	ClearCart(ctx context.Context, sessionID string) (*cartapp.CartView, error)
}

// CheckoutCommand 收银结账
type CheckoutCommand struct {
	SessionID      string
	Discount       decimal.Decimal
	CustomerName   string
	CustomerMobile string
}

// CheckoutResult 结账结果，发票生成失败时 DocumentReady 为 false，销售仍然有效
type CheckoutResult struct {
	*Receipt
	DocumentReady bool `json:"document_ready"`
}

// SaleApplicationService 销售服务门面，整合提交引擎、报表查询与文件生成
type SaleApplicationService struct {
	commandService  *SaleCommandService
	queryService    *LedgerQueryService
	documentService *DocumentService
	sessions        SessionRunner
}

// NewSaleApplicationService 创建销售服务门面实例
func NewSaleApplicationService(
	commandService *SaleCommandService,
	queryService *LedgerQueryService,
	documentService *DocumentService,
	sessions SessionRunner,
) *SaleApplicationService {
	return &SaleApplicationService{
		commandService:  commandService,
		queryService:    queryService,
		documentService: documentService,
		sessions:        sessions,
	}
}

// Checkout 提交会话中的购物车，购物车保留到调用 NewSale
func (s *SaleApplicationService) Checkout(ctx context.Context, cmd CheckoutCommand) (*CheckoutResult, error) {
	ctx = logger.WithSessionID(ctx, cmd.SessionID)

	var receipt *Receipt
	err := s.sessions.WithSession(ctx, cmd.SessionID, func(session *cart.Session) error {
		if session.LastInvoice != "" {
			return ErrAlreadyCheckedOut
		}
		var customer *CustomerInput
		if cmd.CustomerName != "" || cmd.CustomerMobile != "" {
			customer = &CustomerInput{Name: cmd.CustomerName, Mobile: cmd.CustomerMobile}
		}

		r, err := s.commandService.Commit(ctx, CommitCommand{
			Cart:     session.Cart,
			Operator: session.Operator,
			Discount: cmd.Discount,
			Customer: customer,
		})
		if err != nil {
			return err
		}
		session.LastInvoice = r.Sale.InvoiceNo
		receipt = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	ready := s.documentService.RenderReceipt(ctx, receipt) != nil
	return &CheckoutResult{Receipt: receipt, DocumentReady: ready}, nil
}

// NewSale 清空购物车开始下一笔
func (s *SaleApplicationService) NewSale(ctx context.Context, sessionID string) (*cartapp.CartView, error) {
	return s.sessions.ClearCart(ctx, sessionID)
}

func (s *SaleApplicationService) Commit(ctx context.Context, cmd CommitCommand) (*Receipt, error) {
	return s.commandService.Commit(ctx, cmd)
}

func (s *SaleApplicationService) DashboardMetrics(ctx context.Context) (*domain.DashboardMetrics, error) {
	return s.queryService.DashboardMetrics(ctx)
}

func (s *SaleApplicationService) RangeReport(ctx context.Context, from, to time.Time) (*domain.RangeReport, error) {
	return s.queryService.RangeReport(ctx, from, to)
}

func (s *SaleApplicationService) ParseDate(field, value string) (time.Time, error) {
	return s.queryService.ParseDate(field, value)
}

func (s *SaleApplicationService) SaleItems(ctx context.Context, invoiceNo string) ([]*domain.SaleItem, error) {
	return s.queryService.SaleItems(ctx, invoiceNo)
}

func (s *SaleApplicationService) ListSales(ctx context.Context) ([]*domain.Sale, error) {
	return s.queryService.ListSales(ctx)
}

func (s *SaleApplicationService) GetSale(ctx context.Context, invoiceNo string) (*Receipt, error) {
	return s.queryService.GetSale(ctx, invoiceNo)
}

func (s *SaleApplicationService) InvoicePDF(ctx context.Context, invoiceNo string) ([]byte, error) {
	return s.documentService.InvoicePDF(ctx, invoiceNo)
}

func (s *SaleApplicationService) InvoiceSpreadsheet(ctx context.Context, invoiceNo string) ([]byte, error) {
	return s.documentService.InvoiceSpreadsheet(ctx, invoiceNo)
}

func (s *SaleApplicationService) ItemsSpreadsheet(ctx context.Context, invoiceNo string) ([]byte, error) {
	return s.documentService.ItemsSpreadsheet(ctx, invoiceNo)
}

func (s *SaleApplicationService) SalesSpreadsheet(ctx context.Context) ([]byte, error) {
	return s.documentService.SalesSpreadsheet(ctx)
}

func (s *SaleApplicationService) RangeSpreadsheet(ctx context.Context, from, to time.Time) ([]byte, error) {
	return s.documentService.RangeSpreadsheet(ctx, from, to)
}
