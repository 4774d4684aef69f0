package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trading-backend/internal/models"
	"trading-backend/internal/services"
)

// TradeHandler exposes order submission and the ledger read endpoints.
type TradeHandler struct {
	orderService *services.OrderService
}

func NewTradeHandler(orderService *services.OrderService) *TradeHandler {
	return &TradeHandler{orderService: orderService}
}

// PlaceOrder handles POST /trades/orders. A business rejection (non-market
// order type, market data unavailable) is a 200 with status "rejected"; only
// malformed input or infrastructure failure maps to an error status.
func (h *TradeHandler) PlaceOrder(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	var req services.OrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	order, err := h.orderService.Submit(c.Request.Context(), userID.(string), req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// GetOrders handles GET /ledger/orders.
func (h *TradeHandler) GetOrders(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	orders, err := h.orderService.Orders(c.Request.Context(), userID.(string))
	if err != nil {
		writeError(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// GetPositions handles GET /ledger/positions.
func (h *TradeHandler) GetPositions(c *gin.Context) {
	userID, exists := c.Get("userID")
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}

	positions, err := h.orderService.Positions(c.Request.Context(), userID.(string))
	if err != nil {
		writeError(c, err)
		return
	}
	if positions == nil {
		positions = []models.Position{}
	}
	c.JSON(http.StatusOK, gin.H{"positions": positions})
}
