package document

import (
	"context"

	"github.com/wyfcoding/posregister/pkg/logger"
)

// FailureRecorder 记录渲染失败次数
type FailureRecorder interface {
	RecordDocumentFailure(kind string)
}

// Exporter 包装渲染函数：失败时记录日志与指标并返回 nil，不向上传播
type Exporter struct {
	shop     ShopInfo
	recorder FailureRecorder
}

func NewExporter(shop ShopInfo, recorder FailureRecorder) *Exporter {
	return &Exporter{shop: shop, recorder: recorder}
}

func (e *Exporter) Shop() ShopInfo { return e.shop }

// Invoice 渲染发票 PDF，失败返回 nil
func (e *Exporter) Invoice(ctx context.Context, inv Invoice) []byte {
	data, err := RenderInvoice(inv, e.shop)
	if err != nil {
		e.fail(ctx, "invoice_pdf", err)
		return nil
	}
	return data
}

// Spreadsheet 渲染 xlsx，失败返回 nil
func (e *Exporter) Spreadsheet(ctx context.Context, kind string, sheets ...Sheet) []byte {
	data, err := RenderSpreadsheet(sheets...)
	if err != nil {
		e.fail(ctx, kind, err)
		return nil
	}
	return data
}

func (e *Exporter) fail(ctx context.Context, kind string, err error) {
	logger.Error(ctx, "Document render failed", "kind", kind, "error", err)
	e.recorder.RecordDocumentFailure(kind)
}
