package services

import (
	"context"
	"errors"
	"log/slog"
	"regexp"
	"time"

	"github.com/google/uuid"

	"trading-backend/internal/ledger"
	"trading-backend/internal/models"
)

// symbolPattern matches exchange-qualified uppercase tickers, e.g. "NSE:SCOM".
var symbolPattern = regexp.MustCompile(`^[A-Z]{2,10}:[A-Z0-9]{1,12}$`)

// ValidSymbol reports whether the symbol has the exchange-qualified form the
// platform accepts.
func ValidSymbol(symbol string) bool {
	return symbolPattern.MatchString(symbol)
}

// OrderRequest is a validated order submission. Side and order type only
// admit the enumerated values; anything else fails validation before the
// acceptance policy runs.
type OrderRequest struct {
	Symbol    string `json:"symbol" binding:"required"`
	Side      string `json:"side" binding:"required"`
	Quantity  int64  `json:"quantity" binding:"required"`
	OrderType string `json:"order_type" binding:"required"`
}

var knownOrderTypes = map[string]bool{
	models.OrderTypeMarket:    true,
	models.OrderTypeLimit:     true,
	models.OrderTypeStop:      true,
	models.OrderTypeStopLimit: true,
}

// OrderService routes incoming orders: it validates the request, applies the
// acceptance policy, synthesizes a fill for accepted orders, forwards it to
// the position ledger, and records the terminal order in the order log.
type OrderService struct {
	market    *MarketDataService
	positions ledger.PositionStore
	orders    ledger.OrderLog
	funds     FundsChecker
	logger    *slog.Logger
}

// NewOrderService wires the router with its collaborators.
func NewOrderService(
	market *MarketDataService,
	positions ledger.PositionStore,
	orders ledger.OrderLog,
	funds FundsChecker,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		market:    market,
		positions: positions,
		orders:    orders,
		funds:     funds,
		logger:    logger,
	}
}

func validate(req OrderRequest) error {
	if !ValidSymbol(req.Symbol) {
		return &models.ValidationError{Field: "symbol", Detail: "must be an uppercase exchange-qualified ticker like NSE:SCOM"}
	}
	if req.Side != models.SideBuy && req.Side != models.SideSell {
		return &models.ValidationError{Field: "side", Detail: "must be buy or sell"}
	}
	if req.Quantity <= 0 {
		return &models.ValidationError{Field: "quantity", Detail: "must be a positive integer"}
	}
	if !knownOrderTypes[req.OrderType] {
		return &models.ValidationError{Field: "order_type", Detail: "must be one of market, limit, stop, stop_limit"}
	}
	return nil
}

// Submit runs an order through the lifecycle submitted → validating →
// accepted/rejected. A rejection is a normal terminal status returned with a
// nil error; only malformed input or infrastructure failure produces an
// error. By the time an accepted order is returned its fill has already been
// applied to the ledger — there is no settlement window.
func (s *OrderService) Submit(ctx context.Context, userID string, req OrderRequest) (models.Order, error) {
	if err := validate(req); err != nil {
		return models.Order{}, err
	}

	order := models.Order{
		ID:          uuid.NewString(),
		UserID:      userID,
		Symbol:      req.Symbol,
		Side:        req.Side,
		Quantity:    req.Quantity,
		OrderType:   req.OrderType,
		SubmittedAt: time.Now(),
	}

	// Acceptance policy: market orders only in this MVP.
	if req.OrderType != models.OrderTypeMarket {
		return s.reject(ctx, order, "only market orders are accepted")
	}

	price, err := s.market.ReferencePrice(ctx, req.Symbol)
	if err != nil {
		if errors.Is(err, models.ErrUnknownSymbol) {
			return models.Order{}, err
		}
		// Provider timeout or failure: the order rejects rather than
		// pending or surfacing a server error.
		s.logger.Warn("rejecting order, market data unavailable", "symbol", req.Symbol, "err", err)
		return s.reject(ctx, order, "market data unavailable")
	}

	if err := s.funds.Settle(ctx, userID, req.Side, price*float64(req.Quantity)); err != nil {
		return models.Order{}, err
	}

	fill := models.Fill{
		OrderID:    order.ID,
		Symbol:     req.Symbol,
		Side:       req.Side,
		Quantity:   req.Quantity,
		Price:      price,
		ExecutedAt: time.Now(),
	}
	if _, err := s.positions.ApplyFill(ctx, userID, fill); err != nil {
		return models.Order{}, err
	}

	order.Status = models.StatusAccepted
	order.Price = price
	if err := s.orders.Record(ctx, order); err != nil {
		return models.Order{}, err
	}

	s.logger.Info("order filled",
		"order", order.ID, "user", userID, "symbol", req.Symbol,
		"side", req.Side, "qty", req.Quantity, "price", price)
	return order, nil
}

func (s *OrderService) reject(ctx context.Context, order models.Order, reason string) (models.Order, error) {
	order.Status = models.StatusRejected
	order.Reason = reason
	if err := s.orders.Record(ctx, order); err != nil {
		return models.Order{}, err
	}
	return order, nil
}

// Orders returns the user's order history, oldest first.
func (s *OrderService) Orders(ctx context.Context, userID string) ([]models.Order, error) {
	return s.orders.List(ctx, userID)
}

// Positions returns the user's positions.
func (s *OrderService) Positions(ctx context.Context, userID string) ([]models.Position, error) {
	return s.positions.Positions(ctx, userID)
}
