package ledger

import (
	"context"
	"sync"

	"trading-backend/internal/models"
)

// MemoryPositions is the in-memory position store. Positions live in shard
// maps guarded by RWMutexes keyed by a hash of (user, symbol), so reads never
// block behind unrelated keys' writes.
type MemoryPositions struct {
	shards [numShards]positionShard
}

type positionShard struct {
	mu        sync.RWMutex
	positions map[string]models.Position
}

// NewMemoryPositions creates an empty in-memory position store.
func NewMemoryPositions() *MemoryPositions {
	s := &MemoryPositions{}
	for i := range s.shards {
		s.shards[i].positions = make(map[string]models.Position)
	}
	return s
}

// ApplyFill applies the fill under the shard lock for the (user, symbol) key.
// A position row is created lazily on first fill and never deleted.
func (s *MemoryPositions) ApplyFill(_ context.Context, userID string, fill models.Fill) (models.Position, error) {
	key := positionKey(userID, fill.Symbol)
	shard := &s.shards[shardIndex(key)]

	shard.mu.Lock()
	defer shard.mu.Unlock()

	pos, ok := shard.positions[key]
	if !ok {
		pos = models.Position{UserID: userID, Symbol: fill.Symbol}
	}
	pos = advance(pos, fill)
	shard.positions[key] = pos
	return pos, nil
}

// Positions collects the user's positions across all shards. Each shard is
// read under its own RLock, so the result is a consistent per-key snapshot.
func (s *MemoryPositions) Positions(_ context.Context, userID string) ([]models.Position, error) {
	var out []models.Position
	for i := range s.shards {
		shard := &s.shards[i]
		shard.mu.RLock()
		for _, pos := range shard.positions {
			if pos.UserID == userID {
				out = append(out, pos)
			}
		}
		shard.mu.RUnlock()
	}
	return out, nil
}

// MemoryOrderLog is the in-memory append-only order log.
type MemoryOrderLog struct {
	mu     sync.RWMutex
	byUser map[string][]models.Order
	total  int64
}

// NewMemoryOrderLog creates an empty in-memory order log.
func NewMemoryOrderLog() *MemoryOrderLog {
	return &MemoryOrderLog{byUser: make(map[string][]models.Order)}
}

// Record appends the order to its user's history.
func (l *MemoryOrderLog) Record(_ context.Context, order models.Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.byUser[order.UserID] = append(l.byUser[order.UserID], order)
	l.total++
	return nil
}

// List returns a copy of the user's orders, oldest first.
func (l *MemoryOrderLog) List(_ context.Context, userID string) ([]models.Order, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	orders := l.byUser[userID]
	out := make([]models.Order, len(orders))
	copy(out, orders)
	return out, nil
}

// Count returns the total number of recorded orders.
func (l *MemoryOrderLog) Count(_ context.Context) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.total, nil
}
