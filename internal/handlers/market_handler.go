package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"trading-backend/internal/indicators"
	"trading-backend/internal/models"
	"trading-backend/internal/services"
)

// MarketHandler exposes quotes, indicator snapshots, and recommendations.
type MarketHandler struct {
	marketService *services.MarketDataService
}

func NewMarketHandler(marketService *services.MarketDataService) *MarketHandler {
	return &MarketHandler{marketService: marketService}
}

type symbolRequest struct {
	Symbol string `json:"symbol" binding:"required"`
}

func bindSymbol(c *gin.Context) (string, bool) {
	var req symbolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return "", false
	}
	if !services.ValidSymbol(req.Symbol) {
		writeError(c, &models.ValidationError{Field: "symbol", Detail: "must be an uppercase exchange-qualified ticker like NSE:SCOM"})
		return "", false
	}
	return req.Symbol, true
}

// GetQuote handles POST /markets/quote.
func (h *MarketHandler) GetQuote(c *gin.Context) {
	symbol, ok := bindSymbol(c)
	if !ok {
		return
	}

	quote, err := h.marketService.Quote(c.Request.Context(), symbol)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, quote)
}

// GetIndicators handles POST /markets/indicators. The response always
// carries all four indicator keys; each is null when the history is too
// short for it.
func (h *MarketHandler) GetIndicators(c *gin.Context) {
	symbol, ok := bindSymbol(c)
	if !ok {
		return
	}

	closes, err := h.marketService.History(c.Request.Context(), symbol)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, indicators.Compute(symbol, closes))
}

// GetRecommendation handles POST /markets/recommendation.
func (h *MarketHandler) GetRecommendation(c *gin.Context) {
	symbol, ok := bindSymbol(c)
	if !ok {
		return
	}

	closes, err := h.marketService.History(c.Request.Context(), symbol)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, indicators.Derive(indicators.Compute(symbol, closes)))
}
