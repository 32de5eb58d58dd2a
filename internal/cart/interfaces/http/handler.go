package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/posregister/internal/cart/application"
	"github.com/wyfcoding/posregister/internal/cart/domain"
	cataloghttp "github.com/wyfcoding/posregister/internal/catalog/interfaces/http"
	"github.com/wyfcoding/posregister/pkg/logger"
)

// CartHandler 收银会话与购物车 HTTP 处理器
type CartHandler struct {
	service *application.CartApplicationService
}

// NewCartHandler 创建 HTTP 处理器
func NewCartHandler(service *application.CartApplicationService) *CartHandler {
	return &CartHandler{service: service}
}

// RegisterRoutes 注册路由，checkout 与 new-sale 由销售模块注册在同一分组下
func (h *CartHandler) RegisterRoutes(api *gin.RouterGroup) {
	sessions := api.Group("/sessions")
	{
		sessions.POST("", h.OpenSession)
		sessions.DELETE("/:id", h.CloseSession)
		sessions.GET("/:id/cart", h.GetCart)
		sessions.POST("/:id/cart/items", h.AddItem)
		sessions.DELETE("/:id/cart/items/:code", h.RemoveItem)
		sessions.DELETE("/:id/cart", h.ClearCart)
	}
}

// OpenSessionRequest 开启会话请求，收银员身份由上游认证后传入
type OpenSessionRequest struct {
	Operator string `json:"operator" binding:"required"`
}

// OpenSession 开启收银会话
func (h *CartHandler) OpenSession(c *gin.Context) {
	var req OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.service.OpenSession(c.Request.Context(), req.Operator)
	if err != nil {
		Fail(c, "Failed to open session", err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// CloseSession 关闭会话
func (h *CartHandler) CloseSession(c *gin.Context) {
	id := c.Param("id")
	removed, err := h.service.CloseSession(c.Request.Context(), id)
	if err != nil {
		Fail(c, "Failed to close session", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session_id": id, "removed": removed})
}

// GetCart 查看购物车
func (h *CartHandler) GetCart(c *gin.Context) {
	view, err := h.service.GetCart(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, "Failed to get cart", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// AddItemRequest 加购请求
type AddItemRequest struct {
	Code string `json:"code" binding:"required"`
	Qty  int    `json:"qty"`
}

// AddItem 加入购物车
func (h *CartHandler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id := c.Param("id")
	ctx := logger.WithSessionID(c.Request.Context(), id)
	view, err := h.service.AddItem(ctx, application.AddItemCommand{SessionID: id, Code: req.Code, Qty: req.Qty})
	if err != nil {
		Fail(c, "Failed to add item", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// RemoveItem 移除一行
func (h *CartHandler) RemoveItem(c *gin.Context) {
	view, err := h.service.RemoveItem(c.Request.Context(), c.Param("id"), c.Param("code"))
	if err != nil {
		Fail(c, "Failed to remove item", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ClearCart 清空购物车
func (h *CartHandler) ClearCart(c *gin.Context) {
	view, err := h.service.ClearCart(c.Request.Context(), c.Param("id"))
	if err != nil {
		Fail(c, "Failed to clear cart", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// Fail 写出错误响应，服务端错误记录日志
func Fail(c *gin.Context, msg string, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error(c.Request.Context(), msg, "error", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// StatusFor 购物车错误到 HTTP 状态码的映射，其余交给商品模块
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrSessionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrEmptyCart), errors.Is(err, domain.ErrInvalidDiscount):
		return http.StatusBadRequest
	default:
		return cataloghttp.StatusFor(err)
	}
}
