package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"

	"trading-backend/config"
	"trading-backend/internal/handlers"
	"trading-backend/internal/ledger"
	"trading-backend/internal/services"
	"trading-backend/internal/store"
	"trading-backend/internal/util"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	logger := util.NewLogger(cfg.Logging.Level)
	ctx := context.Background()

	// Ledger and user stores.
	var (
		positions ledger.PositionStore
		orders    ledger.OrderLog
		users     services.UserStore
	)
	switch cfg.Storage.Backend {
	case "mongo":
		client, err := config.ConnectMongo(ctx, cfg.Storage.MongoURI)
		if err != nil {
			log.Fatalf("connect mongo: %v", err)
		}
		defer client.Disconnect(ctx)
		db := client.Database(cfg.Storage.Database)
		positions = ledger.NewMongoPositions(db.Collection("positions"))
		orders = ledger.NewMongoOrderLog(db.Collection("orders"))
		users = services.NewMongoUsers(db.Collection("users"))
		logger.Info("connected to mongodb", "database", cfg.Storage.Database)
	case "memory":
		positions = ledger.NewMemoryPositions()
		orders = ledger.NewMemoryOrderLog()
		users = services.NewMemoryUsers()
		logger.Info("using in-memory storage")
	default:
		log.Fatalf("unknown storage backend %q", cfg.Storage.Backend)
	}

	// Candle cache for the market-data fallback path.
	var cache *store.CandleStore
	if cfg.Storage.SQLitePath != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.Storage.SQLitePath), 0o755); err != nil {
			log.Fatalf("create data dir: %v", err)
		}
		cache, err = store.NewCandleStore(cfg.Storage.SQLitePath)
		if err != nil {
			log.Fatalf("open candle store: %v", err)
		}
		defer cache.Close()
	}

	// Market data provider.
	var provider services.Provider
	switch cfg.Market.Provider {
	case "http":
		provider = services.NewHTTPProvider(cfg.Market.BaseURL, cfg.Market.APIKey, cfg.Market.QuoteTimeout)
		logger.Info("using http market data provider", "base_url", cfg.Market.BaseURL)
	case "simulator":
		provider = services.NewSimulator(services.DefaultUniverse(), cfg.Market.HistoryLen)
		logger.Info("using simulated market data")
	default:
		log.Fatalf("unknown market provider %q", cfg.Market.Provider)
	}

	marketService := services.NewMarketDataService(provider, cache, cfg.Market.QuoteTimeout, logger)

	var funds services.FundsChecker = services.NewCashFunds(users)
	if cfg.Trading.PaperMode {
		funds = services.UnlimitedFunds{}
		logger.Info("paper mode: funds checks disabled")
	}
	orderService := services.NewOrderService(marketService, positions, orders, funds, logger)
	authService := services.NewAuthService(users, cfg.Auth.StartingBalance)

	warmSymbols := cfg.Market.WarmSymbols
	if len(warmSymbols) == 0 && cfg.Market.Provider == "simulator" {
		for symbol := range services.DefaultUniverse() {
			warmSymbols = append(warmSymbols, symbol)
		}
	}
	if len(warmSymbols) > 0 {
		if err := marketService.WarmUp(ctx, warmSymbols); err != nil {
			logger.Warn("history warm-up incomplete", "err", err)
		}
	}

	hub := services.NewQuoteHub(logger)
	go hub.Run()
	go streamQuotes(ctx, hub, marketService, warmSymbols, logger)

	router := handlers.NewRouter(handlers.Deps{
		Auth:   handlers.NewAuthHandler(authService, cfg.Auth.JWTSecret),
		Trade:  handlers.NewTradeHandler(orderService),
		Market: handlers.NewMarketHandler(marketService),
		Hub:    hub,
		Logger: logger,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("server starting", "addr", addr)
	if err := router.Run(addr); err != nil {
		log.Fatalf("server: %v", err)
	}
}

// streamQuotes pushes a quote tick for every tracked symbol to the websocket
// hub on a fixed interval. Per-symbol failures are logged and skipped.
func streamQuotes(ctx context.Context, hub *services.QuoteHub, market *services.MarketDataService, symbols []string, logger *slog.Logger) {
	ticker := time.NewTicker(3 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, symbol := range symbols {
				quote, err := market.Quote(ctx, symbol)
				if err != nil {
					logger.Debug("quote tick failed", "symbol", symbol, "err", err)
					continue
				}
				hub.BroadcastQuote(quote)
			}
		}
	}
}
