// Package document 生成发票 PDF 与报表 xlsx，均为纯函数：输入定稿数据，输出文件字节
package document

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// ShopInfo 打印在发票抬头的门店信息
type ShopInfo struct {
	Name     string
	Address  string
	Phone    string
	Currency string
	LogoPath string
}

// InvoiceLine 发票明细行
type InvoiceLine struct {
	Code  string
	Name  string
	Size  string
	Price decimal.Decimal
	Qty   int
	Total decimal.Decimal
}

// Invoice 已提交销售的发票数据
type Invoice struct {
	InvoiceNo      string
	CreatedAt      time.Time
	Operator       string
	CustomerName   string
	CustomerMobile string
	Lines          []InvoiceLine
	Subtotal       decimal.Decimal
	Discount       decimal.Decimal
	Total          decimal.Decimal
}

var invoiceColumns = []struct {
	title string
	width float64
	align string
}{
	{"Code", 25, "L"},
	{"Item", 70, "L"},
	{"Size", 20, "C"},
	{"Price", 25, "R"},
	{"Qty", 15, "C"},
	{"Total", 35, "R"},
}

// RenderInvoice 渲染 A4 发票
func RenderInvoice(inv Invoice, shop ShopInfo) ([]byte, error) {
	if inv.InvoiceNo == "" {
		return nil, fmt.Errorf("invoice number is required")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+inv.InvoiceNo, false)
	pdf.AddPage()

	top := 10.0
	if shop.LogoPath != "" {
		if _, err := os.Stat(shop.LogoPath); err == nil {
			pdf.ImageOptions(shop.LogoPath, 10, 10, 25, 0, false, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
			if pdf.Ok() {
				top = 38
			} else {
				// 抬头图片损坏时照常出票
				pdf.ClearError()
			}
		}
	}

	pdf.SetY(top)
	pdf.SetFont("Arial", "B", 18)
	pdf.CellFormat(0, 9, shop.Name, "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	if shop.Address != "" {
		pdf.CellFormat(0, 5, shop.Address, "", 1, "C", false, 0, "")
	}
	if shop.Phone != "" {
		pdf.CellFormat(0, 5, "Phone: "+shop.Phone, "", 1, "C", false, 0, "")
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.CellFormat(0, 7, "Invoice: "+inv.InvoiceNo, "", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 5, "Date: "+inv.CreatedAt.Format("2006-01-02 15:04:05"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 5, "Cashier: "+inv.Operator, "", 1, "L", false, 0, "")
	if inv.CustomerName != "" || inv.CustomerMobile != "" {
		pdf.CellFormat(0, 5, fmt.Sprintf("Customer: %s %s", inv.CustomerName, inv.CustomerMobile), "", 1, "L", false, 0, "")
	}
	pdf.Ln(3)

	pdf.SetFont("Arial", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range invoiceColumns {
		pdf.CellFormat(col.width, 7, col.title, "1", 0, col.align, true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 10)
	for _, line := range inv.Lines {
		cells := []string{
			line.Code,
			line.Name,
			line.Size,
			line.Price.StringFixed(2),
			fmt.Sprintf("%d", line.Qty),
			line.Total.StringFixed(2),
		}
		for i, col := range invoiceColumns {
			pdf.CellFormat(col.width, 6, cells[i], "1", 0, col.align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	pdf.Ln(3)

	summary := []struct {
		label string
		value decimal.Decimal
	}{
		{"Subtotal", inv.Subtotal},
		{"Discount", inv.Discount},
		{"Grand Total", inv.Total},
	}
	for i, row := range summary {
		if i == len(summary)-1 {
			pdf.SetFont("Arial", "B", 11)
		}
		pdf.CellFormat(155, 6, row.label, "", 0, "R", false, 0, "")
		pdf.CellFormat(35, 6, fmt.Sprintf("%s %s", shop.Currency, row.value.StringFixed(2)), "", 1, "R", false, 0, "")
	}

	pdf.Ln(8)
	pdf.SetFont("Arial", "I", 9)
	pdf.CellFormat(0, 5, "Thank you for shopping with us!", "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice %s: %w", inv.InvoiceNo, err)
	}
	return buf.Bytes(), nil
}
