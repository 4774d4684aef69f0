package services

import (
	"context"
	"errors"

	"trading-backend/internal/models"
)

// FundsChecker is the external funds collaborator consulted by the order
// router before a fill reaches the ledger. The ledger itself never performs
// funds checks.
type FundsChecker interface {
	// Settle debits the user for a buy of the given notional amount, or
	// credits a sell. A debit that cannot be covered fails with an
	// InsufficientFundsError.
	Settle(ctx context.Context, userID, side string, amount float64) error
}

// UnlimitedFunds accepts every order. Used in paper mode and tests.
type UnlimitedFunds struct{}

func (UnlimitedFunds) Settle(context.Context, string, string, float64) error { return nil }

// CashFunds checks and moves the user's cash balance in the user store.
type CashFunds struct {
	users UserStore
}

// NewCashFunds creates a funds checker over the user store.
func NewCashFunds(users UserStore) *CashFunds {
	return &CashFunds{users: users}
}

func (f *CashFunds) Settle(ctx context.Context, userID, side string, amount float64) error {
	delta := amount
	if side == models.SideBuy {
		delta = -amount
	}
	err := f.users.AdjustBalance(ctx, userID, delta)
	if errors.Is(err, errInsufficientBalance) {
		have := 0.0
		if user, ferr := f.users.FindByID(ctx, userID); ferr == nil {
			have = user.CashBalance
		}
		return &models.InsufficientFundsError{UserID: userID, Need: amount, Have: have}
	}
	return err
}
