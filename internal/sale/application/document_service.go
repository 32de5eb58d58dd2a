package application

import (
	"context"
	"time"

	"github.com/wyfcoding/posregister/internal/document"
	"github.com/wyfcoding/posregister/internal/sale/domain"
)

const timeLayout = "2006-01-02 15:04:05"

// DocumentService 基于已定稿的销售数据生成文件
// 渲染失败返回 nil 数据，不影响已提交的销售；error 只表示查询失败
type DocumentService struct {
	ledger   *LedgerQueryService
	exporter *document.Exporter
}

func NewDocumentService(ledger *LedgerQueryService, exporter *document.Exporter) *DocumentService {
	return &DocumentService{ledger: ledger, exporter: exporter}
}

// InvoicePDF 按发票号生成 PDF
func (s *DocumentService) InvoicePDF(ctx context.Context, invoiceNo string) ([]byte, error) {
	receipt, err := s.ledger.GetSale(ctx, invoiceNo)
	if err != nil {
		return nil, err
	}
	return s.RenderReceipt(ctx, receipt), nil
}

// RenderReceipt 直接渲染刚提交的销售
func (s *DocumentService) RenderReceipt(ctx context.Context, receipt *Receipt) []byte {
	return s.exporter.Invoice(ctx, s.invoice(receipt))
}

// InvoiceSpreadsheet 明细与汇总两个工作表
func (s *DocumentService) InvoiceSpreadsheet(ctx context.Context, invoiceNo string) ([]byte, error) {
	receipt, err := s.ledger.GetSale(ctx, invoiceNo)
	if err != nil {
		return nil, err
	}
	sale := receipt.Sale
	customerName, customerMobile := customerFields(sale)

	summary := document.Sheet{
		Name:   "Summary",
		Header: []string{"Field", "Value"},
		Rows: [][]any{
			{"Invoice", sale.InvoiceNo},
			{"Date", s.localTime(sale.CreatedAt)},
			{"Cashier", sale.Operator},
			{"Customer", customerName},
			{"Mobile", customerMobile},
			{"Subtotal", sale.Subtotal},
			{"Discount", sale.Discount},
			{"Grand Total", sale.Total},
		},
	}
	return s.exporter.Spreadsheet(ctx, "invoice_xlsx", itemsSheet(receipt.Items), summary), nil
}

// ItemsSpreadsheet 单张发票的明细
func (s *DocumentService) ItemsSpreadsheet(ctx context.Context, invoiceNo string) ([]byte, error) {
	items, err := s.ledger.SaleItems(ctx, invoiceNo)
	if err != nil {
		return nil, err
	}
	return s.exporter.Spreadsheet(ctx, "items_xlsx", itemsSheet(items)), nil
}

// SalesSpreadsheet 全部销售
func (s *DocumentService) SalesSpreadsheet(ctx context.Context) ([]byte, error) {
	sales, err := s.ledger.ListSales(ctx)
	if err != nil {
		return nil, err
	}
	return s.exporter.Spreadsheet(ctx, "sales_xlsx", s.salesSheet("Sales", sales)), nil
}

// RangeSpreadsheet 区间报表
func (s *DocumentService) RangeSpreadsheet(ctx context.Context, from, to time.Time) ([]byte, error) {
	report, err := s.ledger.RangeReport(ctx, from, to)
	if err != nil {
		return nil, err
	}
	totals := document.Sheet{
		Name:   "Totals",
		Header: []string{"From", "To", "Invoices", "Revenue", "COGS", "Profit"},
		Rows:   [][]any{{report.From, report.To, report.Invoices, report.Revenue, report.COGS, report.Profit}},
	}
	return s.exporter.Spreadsheet(ctx, "range_xlsx", s.salesSheet("Report", report.Sales), totals), nil
}

func (s *DocumentService) invoice(receipt *Receipt) document.Invoice {
	sale := receipt.Sale
	name, mobile := customerFields(sale)
	inv := document.Invoice{
		InvoiceNo:      sale.InvoiceNo,
		CreatedAt:      sale.CreatedAt.In(s.ledger.Location()),
		Operator:       sale.Operator,
		CustomerName:   name,
		CustomerMobile: mobile,
		Subtotal:       sale.Subtotal,
		Discount:       sale.Discount,
		Total:          sale.Total,
	}
	for _, item := range receipt.Items {
		inv.Lines = append(inv.Lines, document.InvoiceLine{
			Code:  item.ProductCode,
			Name:  item.Name,
			Size:  item.Size,
			Price: item.Price,
			Qty:   item.Qty,
			Total: item.Total,
		})
	}
	return inv
}

func (s *DocumentService) salesSheet(name string, sales []*domain.Sale) document.Sheet {
	sheet := document.Sheet{
		Name:   name,
		Header: []string{"Invoice", "Date", "Cashier", "Customer", "Mobile", "Subtotal", "Discount", "Total", "Cost", "Profit"},
	}
	for _, sale := range sales {
		customerName, customerMobile := customerFields(sale)
		sheet.Rows = append(sheet.Rows, []any{
			sale.InvoiceNo, s.localTime(sale.CreatedAt), sale.Operator, customerName, customerMobile,
			sale.Subtotal, sale.Discount, sale.Total, sale.TotalCost, sale.Profit(),
		})
	}
	return sheet
}

func (s *DocumentService) localTime(t time.Time) string {
	return t.In(s.ledger.Location()).Format(timeLayout)
}

func itemsSheet(items []*domain.SaleItem) document.Sheet {
	sheet := document.Sheet{
		Name:   "Items",
		Header: []string{"Code", "Name", "Size", "Price", "Qty", "Total"},
	}
	for _, item := range items {
		sheet.Rows = append(sheet.Rows, []any{item.ProductCode, item.Name, item.Size, item.Price, item.Qty, item.Total})
	}
	return sheet
}

func customerFields(sale *domain.Sale) (string, string) {
	if sale.Customer == nil {
		return "", ""
	}
	return sale.Customer.Name, sale.Customer.Mobile
}
