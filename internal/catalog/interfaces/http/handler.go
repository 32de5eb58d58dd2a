package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wyfcoding/posregister/internal/catalog/application"
	"github.com/wyfcoding/posregister/internal/catalog/domain"
	"github.com/wyfcoding/posregister/internal/document"
	"github.com/wyfcoding/posregister/pkg/logger"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// CatalogHandler 商品 HTTP 处理器
type CatalogHandler struct {
	service  *application.CatalogApplicationService
	exporter *document.Exporter
}

// NewCatalogHandler 创建 HTTP 处理器
func NewCatalogHandler(service *application.CatalogApplicationService, exporter *document.Exporter) *CatalogHandler {
	return &CatalogHandler{service: service, exporter: exporter}
}

// RegisterRoutes 注册路由
func (h *CatalogHandler) RegisterRoutes(api *gin.RouterGroup) {
	products := api.Group("/products")
	{
		products.GET("", h.ListProducts)
		products.GET("/export", h.ExportProducts)
		products.GET("/:code", h.GetProduct)
		products.PUT("/:code", h.UpsertProduct)
		products.DELETE("/:code", h.DeleteProduct)
		products.POST("/:code/stock", h.AdjustStock)
	}
}

// UpsertProductRequest 新增或替换商品请求，编码取自路径
type UpsertProductRequest struct {
	Name        string          `json:"name"`
	Category    string          `json:"category"`
	Size        string          `json:"size"`
	CostPrice   decimal.Decimal `json:"cost_price"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Description string          `json:"description"`
}

// UpsertProduct 新增或替换商品
func (h *CatalogHandler) UpsertProduct(c *gin.Context) {
	var req UpsertProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product, err := h.service.UpsertProduct(c.Request.Context(), application.UpsertProductCommand{
		Code:        c.Param("code"),
		Name:        req.Name,
		Category:    req.Category,
		Size:        req.Size,
		CostPrice:   req.CostPrice,
		Price:       req.Price,
		Stock:       req.Stock,
		Description: req.Description,
	})
	if err != nil {
		h.fail(c, "Failed to upsert product", err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// GetProduct 获取商品
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	product, err := h.service.GetProduct(c.Request.Context(), c.Param("code"))
	if err != nil {
		h.fail(c, "Failed to get product", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

// ListProducts 按名称列出全部商品
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	products, err := h.service.ListProducts(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to list products", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "count": len(products)})
}

// DeleteProduct 删除商品，重复删除返回 removed=false
func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	code := c.Param("code")
	removed, err := h.service.DeleteProduct(c.Request.Context(), code)
	if err != nil {
		h.fail(c, "Failed to delete product", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": code, "removed": removed})
}

// AdjustStockRequest 库存调整请求
type AdjustStockRequest struct {
	Delta int `json:"delta"`
}

// AdjustStock 补货或盘点调整
func (h *CatalogHandler) AdjustStock(c *gin.Context) {
	var req AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	code := c.Param("code")
	stock, err := h.service.AdjustStock(c.Request.Context(), application.AdjustStockCommand{Code: code, Delta: req.Delta})
	if err != nil {
		h.fail(c, "Failed to adjust stock", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": code, "stock": stock})
}

// ExportProducts 导出商品表
func (h *CatalogHandler) ExportProducts(c *gin.Context) {
	ctx := c.Request.Context()
	sheet := document.Sheet{
		Name:   "Products",
		Header: []string{"Code", "Name", "Category", "Size", "Cost Price", "Price", "Stock", "Description"},
	}
	for p, err := range h.service.Products(ctx) {
		if err != nil {
			h.fail(c, "Failed to list products", err)
			return
		}
		sheet.Rows = append(sheet.Rows, []any{p.Code, p.Name, p.Category, p.Size, p.CostPrice, p.Price, p.Stock, p.Description})
	}

	data := h.exporter.Spreadsheet(ctx, "products_xlsx", sheet)
	if data == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "document unavailable"})
		return
	}
	c.Header("Content-Disposition", `attachment; filename="products.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (h *CatalogHandler) fail(c *gin.Context, msg string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), msg, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// StatusFor 商品领域错误到 HTTP 状态码的映射
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrProductNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInsufficientStock):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
