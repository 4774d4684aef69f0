package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"trading-backend/internal/services"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // dev posture; tighten behind a gateway
	},
}

// Deps bundles everything the HTTP surface needs.
type Deps struct {
	Auth   *AuthHandler
	Trade  *TradeHandler
	Market *MarketHandler
	Hub    *services.QuoteHub
	Logger *slog.Logger
}

// NewRouter builds the gin engine with all routes and middleware wired.
func NewRouter(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "OK"})
	})

	authRequired := deps.Auth.AuthMiddleware()

	// Auth surface (the user resolver collaborator).
	router.POST("/auth/register", deps.Auth.Register)
	router.POST("/auth/login", deps.Auth.Login)
	router.GET("/auth/me", authRequired, deps.Auth.Me)

	// Order execution and ledger queries.
	router.POST("/trades/orders", authRequired, deps.Trade.PlaceOrder)
	router.GET("/ledger/orders", authRequired, deps.Trade.GetOrders)
	router.GET("/ledger/positions", authRequired, deps.Trade.GetPositions)

	// Market data and indicators.
	router.POST("/markets/quote", deps.Market.GetQuote)
	router.POST("/markets/indicators", deps.Market.GetIndicators)
	router.POST("/markets/recommendation", deps.Market.GetRecommendation)

	// Live quote stream.
	if deps.Hub != nil {
		router.GET("/ws", func(c *gin.Context) {
			conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
			if err != nil {
				deps.Logger.Warn("websocket upgrade failed", "err", err)
				return
			}
			client := deps.Hub.RegisterClient(conn)
			go client.WritePump()
			go client.ReadPump()
		})
	}

	return router
}
