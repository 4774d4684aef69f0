package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"trading-backend/internal/models"
)

// writeError maps the core error taxonomy onto HTTP responses. Business
// rejections never come through here — a rejected order is a 200 with
// status "rejected".
func writeError(c *gin.Context, err error) {
	var verr *models.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Error(), "field": verr.Field})
		return
	}

	var serr *models.UnknownSymbolError
	if errors.As(err, &serr) {
		c.JSON(http.StatusNotFound, gin.H{"error": serr.Error(), "symbol": serr.Symbol})
		return
	}

	var ferr *models.InsufficientFundsError
	if errors.As(err, &ferr) {
		c.JSON(http.StatusBadRequest, gin.H{"error": ferr.Error()})
		return
	}

	var merr *models.MarketDataUnavailableError
	if errors.As(err, &merr) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": merr.Error()})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
