package ledger

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"trading-backend/internal/models"
)

// Compile-time interface checks.
var _ PositionStore = (*MongoPositions)(nil)
var _ OrderLog = (*MongoOrderLog)(nil)

// MongoPositions is the MongoDB-backed position store. The read-modify-write
// per fill runs under the same per-key locks as the in-memory store, which
// serializes mutations within the process.
type MongoPositions struct {
	collection *mongo.Collection
	locks      keyLocks
}

// NewMongoPositions creates a position store over the given collection.
func NewMongoPositions(collection *mongo.Collection) *MongoPositions {
	return &MongoPositions{collection: collection}
}

// ApplyFill loads, advances, and upserts the (user, symbol) position.
func (s *MongoPositions) ApplyFill(ctx context.Context, userID string, fill models.Fill) (models.Position, error) {
	key := positionKey(userID, fill.Symbol)
	mu := s.locks.lock(key)
	defer mu.Unlock()

	filter := bson.M{"user_id": userID, "symbol": fill.Symbol}

	var pos models.Position
	err := s.collection.FindOne(ctx, filter).Decode(&pos)
	if err == mongo.ErrNoDocuments {
		pos = models.Position{UserID: userID, Symbol: fill.Symbol}
	} else if err != nil {
		return models.Position{}, err
	}

	pos = advance(pos, fill)

	_, err = s.collection.ReplaceOne(ctx, filter, pos, options.Replace().SetUpsert(true))
	if err != nil {
		return models.Position{}, err
	}
	return pos, nil
}

// Positions returns every position document for the user.
func (s *MongoPositions) Positions(ctx context.Context, userID string) ([]models.Position, error) {
	cur, err := s.collection.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Position
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MongoOrderLog is the MongoDB-backed append-only order log.
type MongoOrderLog struct {
	collection *mongo.Collection
}

// NewMongoOrderLog creates an order log over the given collection.
func NewMongoOrderLog(collection *mongo.Collection) *MongoOrderLog {
	return &MongoOrderLog{collection: collection}
}

// Record inserts the order. Orders are immutable once terminal, so there is
// no update path.
func (l *MongoOrderLog) Record(ctx context.Context, order models.Order) error {
	_, err := l.collection.InsertOne(ctx, order)
	return err
}

// List returns the user's orders sorted by submission time, oldest first.
func (l *MongoOrderLog) List(ctx context.Context, userID string) ([]models.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "submitted_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := l.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Order
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the total number of recorded orders.
func (l *MongoOrderLog) Count(ctx context.Context) (int64, error) {
	return l.collection.CountDocuments(ctx, bson.M{})
}
