package http

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	carthttp "github.com/wyfcoding/posregister/internal/cart/interfaces/http"
	"github.com/wyfcoding/posregister/internal/sale/application"
	"github.com/wyfcoding/posregister/internal/sale/domain"
	"github.com/wyfcoding/posregister/pkg/logger"
)

const (
	pdfContentType  = "application/pdf"
	xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// SaleHandler 结账、销售查询、报表与单据下载
type SaleHandler struct {
	service *application.SaleApplicationService
}

// NewSaleHandler 创建 HTTP 处理器
func NewSaleHandler(service *application.SaleApplicationService) *SaleHandler {
	return &SaleHandler{service: service}
}

// RegisterRoutes 注册路由
func (h *SaleHandler) RegisterRoutes(api *gin.RouterGroup) {
	sessions := api.Group("/sessions")
	{
		sessions.POST("/:id/checkout", h.Checkout)
		sessions.POST("/:id/new-sale", h.NewSale)
	}

	sales := api.Group("/sales")
	{
		sales.GET("", h.ListSales)
		sales.GET("/export", h.ExportSales)
		sales.GET("/:invoice", h.GetSale)
		sales.GET("/:invoice/items", h.SaleItems)
		sales.GET("/:invoice/items/export", h.ExportSaleItems)
		sales.GET("/:invoice/invoice.pdf", h.InvoicePDF)
		sales.GET("/:invoice/invoice.xlsx", h.InvoiceSpreadsheet)
	}

	reports := api.Group("/reports")
	{
		reports.GET("/dashboard", h.Dashboard)
		reports.GET("/range", h.RangeReport)
		reports.GET("/range/export", h.ExportRangeReport)
	}
}

// CheckoutRequest 结账请求，所有字段可选
type CheckoutRequest struct {
	Discount       decimal.Decimal `json:"discount"`
	CustomerName   string          `json:"customer_name"`
	CustomerMobile string          `json:"customer_mobile"`
}

// Checkout 提交会话中的购物车
func (h *SaleHandler) Checkout(c *gin.Context) {
	var req CheckoutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	result, err := h.service.Checkout(c.Request.Context(), application.CheckoutCommand{
		SessionID:      c.Param("id"),
		Discount:       req.Discount,
		CustomerName:   req.CustomerName,
		CustomerMobile: req.CustomerMobile,
	})
	if err != nil {
		h.fail(c, "Failed to checkout", err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// NewSale 清空购物车开始下一笔
func (h *SaleHandler) NewSale(c *gin.Context) {
	view, err := h.service.NewSale(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to start new sale", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ListSales 全部销售，最新在前
func (h *SaleHandler) ListSales(c *gin.Context) {
	sales, err := h.service.ListSales(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to list sales", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sales": sales, "count": len(sales)})
}

// GetSale 销售头与明细
func (h *SaleHandler) GetSale(c *gin.Context) {
	receipt, err := h.service.GetSale(c.Request.Context(), c.Param("invoice"))
	if err != nil {
		h.fail(c, "Failed to get sale", err)
		return
	}
	c.JSON(http.StatusOK, receipt)
}

// SaleItems 发票明细，未知发票返回空列表
func (h *SaleHandler) SaleItems(c *gin.Context) {
	items, err := h.service.SaleItems(c.Request.Context(), c.Param("invoice"))
	if err != nil {
		h.fail(c, "Failed to get sale items", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"invoice_no": c.Param("invoice"), "items": items})
}

// Dashboard 看板指标
func (h *SaleHandler) Dashboard(c *gin.Context) {
	m, err := h.service.DashboardMetrics(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to compute dashboard", err)
		return
	}
	c.JSON(http.StatusOK, m)
}

// RangeReport 区间报表，from、to 为 YYYY-MM-DD
func (h *SaleHandler) RangeReport(c *gin.Context) {
	from, to, ok := h.dateRange(c)
	if !ok {
		return
	}
	report, err := h.service.RangeReport(c.Request.Context(), from, to)
	if err != nil {
		h.fail(c, "Failed to build range report", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (h *SaleHandler) ExportRangeReport(c *gin.Context) {
	from, to, ok := h.dateRange(c)
	if !ok {
		return
	}
	data, err := h.service.RangeSpreadsheet(c.Request.Context(), from, to)
	h.send(c, err, data, xlsxContentType, fmt.Sprintf("report_%s_%s.xlsx", c.Query("from"), c.Query("to")))
}

func (h *SaleHandler) ExportSales(c *gin.Context) {
	data, err := h.service.SalesSpreadsheet(c.Request.Context())
	h.send(c, err, data, xlsxContentType, "sales.xlsx")
}

func (h *SaleHandler) ExportSaleItems(c *gin.Context) {
	invoiceNo := c.Param("invoice")
	data, err := h.service.ItemsSpreadsheet(c.Request.Context(), invoiceNo)
	h.send(c, err, data, xlsxContentType, invoiceNo+"_items.xlsx")
}

func (h *SaleHandler) InvoicePDF(c *gin.Context) {
	invoiceNo := c.Param("invoice")
	data, err := h.service.InvoicePDF(c.Request.Context(), invoiceNo)
	h.send(c, err, data, pdfContentType, invoiceNo+".pdf")
}

func (h *SaleHandler) InvoiceSpreadsheet(c *gin.Context) {
	invoiceNo := c.Param("invoice")
	data, err := h.service.InvoiceSpreadsheet(c.Request.Context(), invoiceNo)
	h.send(c, err, data, xlsxContentType, invoiceNo+".xlsx")
}

func (h *SaleHandler) dateRange(c *gin.Context) (time.Time, time.Time, bool) {
	from, err := h.service.ParseDate("from", c.Query("from"))
	if err != nil {
		h.fail(c, "Invalid from date", err)
		return time.Time{}, time.Time{}, false
	}
	to, err := h.service.ParseDate("to", c.Query("to"))
	if err != nil {
		h.fail(c, "Invalid to date", err)
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// send 渲染失败时数据为 nil，销售本身不受影响
func (h *SaleHandler) send(c *gin.Context, err error, data []byte, contentType, filename string) {
	if err != nil {
		h.fail(c, "Failed to load document data", err)
		return
	}
	if data == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "document unavailable"})
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, data)
}

func (h *SaleHandler) fail(c *gin.Context, msg string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), msg, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// StatusFor 销售错误到 HTTP 状态码的映射，其余交给购物车模块
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSaleNotFound):
		return http.StatusNotFound
	case errors.Is(err, application.ErrAlreadyCheckedOut):
		return http.StatusConflict
	case errors.Is(err, domain.ErrDuplicateInvoice), errors.Is(err, domain.ErrPersistence):
		return http.StatusInternalServerError
	default:
		return carthttp.StatusFor(err)
	}
}
