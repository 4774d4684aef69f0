package models

import (
	"errors"
	"fmt"
)

// ErrUnknownSymbol is returned by market data providers for symbols outside
// their universe. Wrap it so callers can match with errors.Is.
var ErrUnknownSymbol = errors.New("unknown symbol")

// ValidationError reports a malformed order field. It is a client error: the
// request never reaches the acceptance policy and no order is recorded.
type ValidationError struct {
	Field  string
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Detail)
}

// UnknownSymbolError reports a symbol the market-data subsystem cannot quote.
type UnknownSymbolError struct {
	Symbol string
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("unknown symbol %q", e.Symbol)
}

func (e *UnknownSymbolError) Unwrap() error { return ErrUnknownSymbol }

// MarketDataUnavailableError reports a timeout or failure reaching the price
// provider. On the order path it turns into a rejected order, never a 5xx.
type MarketDataUnavailableError struct {
	Symbol string
	Err    error
}

func (e *MarketDataUnavailableError) Error() string {
	return fmt.Sprintf("market data unavailable for %s: %v", e.Symbol, e.Err)
}

func (e *MarketDataUnavailableError) Unwrap() error { return e.Err }

// InsufficientFundsError is raised by the funds-check collaborator before the
// router touches the ledger. The ledger itself never generates it.
type InsufficientFundsError struct {
	UserID string
	Need   float64
	Have   float64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: have %.2f, need %.2f", e.Have, e.Need)
}
