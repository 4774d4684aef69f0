// Package ledger holds the position ledger and order log: the only mutable
// state in the trading core. Implementations serialize mutations per logical
// key so that concurrent fills to the same (user, symbol) pair never lose an
// update, while fills to unrelated keys proceed in parallel.
package ledger

import (
	"context"
	"hash/fnv"
	"sync"

	"trading-backend/internal/models"
)

// PositionStore applies fills and answers position queries.
type PositionStore interface {
	// ApplyFill atomically applies a fill to the (userID, fill.Symbol)
	// position and returns the updated position.
	ApplyFill(ctx context.Context, userID string, fill models.Fill) (models.Position, error)

	// Positions returns every position held by the user, including ones
	// whose quantity has returned to zero.
	Positions(ctx context.Context, userID string) ([]models.Position, error)
}

// OrderLog is the append-only record of submitted orders with their terminal
// status. There is no update or delete.
type OrderLog interface {
	Record(ctx context.Context, order models.Order) error

	// List returns the user's orders in submission order, oldest first.
	List(ctx context.Context, userID string) ([]models.Order, error)

	Count(ctx context.Context) (int64, error)
}

const numShards = 64

func positionKey(userID, symbol string) string {
	return userID + "|" + symbol
}

func shardIndex(key string) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return int(h.Sum32() % numShards)
}

// keyLocks serializes writers per (user, symbol) key with a fixed set of
// shard mutexes, so unrelated users' trades never queue behind each other.
type keyLocks [numShards]sync.Mutex

func (kl *keyLocks) lock(key string) *sync.Mutex {
	mu := &kl[shardIndex(key)]
	mu.Lock()
	return mu
}

// advance applies one signed fill to a position per the ledger policy:
// same-direction fills recompute the volume-weighted average entry price,
// partial reductions leave it unchanged, a full close resets it to zero, and
// a sign flip resets it to the fill's price.
func advance(pos models.Position, fill models.Fill) models.Position {
	signed := fill.SignedQuantity()
	newQty := pos.Quantity + signed

	switch {
	case pos.Quantity == 0 || sameSign(pos.Quantity, signed):
		openQty := abs(pos.Quantity)
		addQty := abs(signed)
		pos.AveragePrice = (pos.AveragePrice*float64(openQty) + fill.Price*float64(addQty)) /
			float64(openQty+addQty)
	case newQty == 0:
		pos.AveragePrice = 0
	case !sameSign(pos.Quantity, newQty):
		pos.AveragePrice = fill.Price
	}
	// Partial reduction keeps the entry price of the remaining open quantity.

	pos.Quantity = newQty
	return pos
}

func sameSign(a, b int64) bool {
	return (a > 0 && b > 0) || (a < 0 && b < 0)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
