package document

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sampleInvoice() Invoice {
	return Invoice{
		InvoiceNo:    "INV20240115103000-abc",
		CreatedAt:    time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		Operator:     "admin",
		CustomerName: "Ayesha",
		Lines: []InvoiceLine{{
			Code:  "C001",
			Name:  "Baby Suit - Blue",
			Size:  "S",
			Price: decimal.NewFromInt(1200),
			Qty:   3,
			Total: decimal.NewFromInt(3600),
		}},
		Subtotal: decimal.NewFromInt(3600),
		Discount: decimal.NewFromInt(600),
		Total:    decimal.NewFromInt(3000),
	}
}

func TestRenderInvoice(t *testing.T) {
	data, err := RenderInvoice(sampleInvoice(), ShopInfo{Name: "Stellar Official", Currency: "PKR", LogoPath: "/nonexistent/logo.png"})
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("%PDF")))
}

func TestRenderInvoiceRequiresNumber(t *testing.T) {
	inv := sampleInvoice()
	inv.InvoiceNo = ""
	_, err := RenderInvoice(inv, ShopInfo{})
	require.Error(t, err)
}

func TestRenderSpreadsheet(t *testing.T) {
	data, err := RenderSpreadsheet(
		Sheet{Name: "Items", Header: []string{"Code", "Qty", "Total"}, Rows: [][]any{{"C001", 3, decimal.NewFromInt(3600)}}},
		Sheet{Name: "Summary", Header: []string{"Field", "Value"}, Rows: [][]any{{"Total", decimal.NewFromInt(3000)}}},
	)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(data, []byte("PK")))

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	require.Equal(t, []string{"Items", "Summary"}, f.GetSheetList())
	v, err := f.GetCellValue("Items", "A2")
	require.NoError(t, err)
	require.Equal(t, "C001", v)
	v, err = f.GetCellValue("Summary", "B2")
	require.NoError(t, err)
	require.Equal(t, "3000", v)
}

func TestRenderSpreadsheetRejectsEmpty(t *testing.T) {
	_, err := RenderSpreadsheet()
	require.Error(t, err)
}

type failureCounter map[string]int

func (f failureCounter) RecordDocumentFailure(kind string) { f[kind]++ }

func TestExporterSwallowsFailures(t *testing.T) {
	counter := failureCounter{}
	e := NewExporter(ShopInfo{Name: "Stellar Official"}, counter)

	require.Nil(t, e.Spreadsheet(context.Background(), "products_xlsx"))
	require.Nil(t, e.Invoice(context.Background(), Invoice{}))
	require.Equal(t, 1, counter["products_xlsx"])
	require.Equal(t, 1, counter["invoice_pdf"])

	require.NotNil(t, e.Invoice(context.Background(), sampleInvoice()))
}
