package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"trading-backend/internal/models"
)

// ErrUserExists is returned when a username or email is already taken.
var ErrUserExists = errors.New("username or email already exists")

// ErrInvalidCredentials is returned on a failed login.
var ErrInvalidCredentials = errors.New("invalid username or password")

// errInsufficientBalance is the store-level signal that a debit would take a
// balance negative. The funds checker turns it into the typed error.
var errInsufficientBalance = errors.New("insufficient balance")

// UserStore persists user accounts.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)

	// AdjustBalance atomically applies delta to the user's cash balance,
	// failing with errInsufficientBalance if the result would be negative.
	AdjustBalance(ctx context.Context, id string, delta float64) error
}

// AuthService is the authentication collaborator. The core only consumes its
// output: a stable user id resolved by the JWT middleware.
type AuthService struct {
	users           UserStore
	startingBalance float64
}

// NewAuthService creates the service; new accounts start with the given cash
// balance.
func NewAuthService(users UserStore, startingBalance float64) *AuthService {
	return &AuthService{users: users, startingBalance: startingBalance}
}

// Register creates a new user with a hashed password.
func (s *AuthService) Register(ctx context.Context, user *models.User) error {
	if existing, err := s.users.FindByUsername(ctx, user.Username); err == nil && existing != nil {
		return ErrUserExists
	}
	if err := user.HashPassword(); err != nil {
		return err
	}
	user.ID = uuid.NewString()
	user.CashBalance = s.startingBalance
	user.CreatedAt = time.Now()
	return s.users.Create(ctx, user)
}

// Login authenticates a user by username and password.
func (s *AuthService) Login(ctx context.Context, username, password string) (*models.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil || user == nil {
		return nil, ErrInvalidCredentials
	}
	if !user.CheckPassword(password) {
		return nil, ErrInvalidCredentials
	}
	out := *user
	out.Password = ""
	return &out, nil
}

// GetUserByID returns a user without the password hash.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	out := *user
	out.Password = ""
	return &out, nil
}

// ---------------------------------------------------------------------------
// In-memory user store
// ---------------------------------------------------------------------------

// MemoryUsers is the in-memory UserStore.
type MemoryUsers struct {
	mu     sync.RWMutex
	byID   map[string]*models.User
	byName map[string]string
}

// NewMemoryUsers creates an empty in-memory user store.
func NewMemoryUsers() *MemoryUsers {
	return &MemoryUsers{
		byID:   make(map[string]*models.User),
		byName: make(map[string]string),
	}
}

func (s *MemoryUsers) Create(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byName[user.Username]; taken {
		return ErrUserExists
	}
	u := *user
	s.byID[u.ID] = &u
	s.byName[u.Username] = u.ID
	return nil
}

func (s *MemoryUsers) FindByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.byName[username]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	u := *s.byID[id]
	return &u, nil
}

func (s *MemoryUsers) FindByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.byID[id]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}
	u := *user
	return &u, nil
}

func (s *MemoryUsers) AdjustBalance(_ context.Context, id string, delta float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	user, ok := s.byID[id]
	if !ok {
		return mongo.ErrNoDocuments
	}
	if user.CashBalance+delta < 0 {
		return errInsufficientBalance
	}
	user.CashBalance += delta
	return nil
}

// ---------------------------------------------------------------------------
// Mongo user store
// ---------------------------------------------------------------------------

// MongoUsers is the MongoDB-backed UserStore.
type MongoUsers struct {
	collection *mongo.Collection
}

// NewMongoUsers creates a user store over the given collection.
func NewMongoUsers(collection *mongo.Collection) *MongoUsers {
	return &MongoUsers{collection: collection}
}

func (s *MongoUsers) Create(ctx context.Context, user *models.User) error {
	_, err := s.collection.InsertOne(ctx, user)
	return err
}

func (s *MongoUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.collection.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MongoUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *MongoUsers) AdjustBalance(ctx context.Context, id string, delta float64) error {
	filter := bson.M{"_id": id}
	if delta < 0 {
		// Guard in the filter so the debit is atomic server-side.
		filter["cash_balance"] = bson.M{"$gte": -delta}
	}
	res, err := s.collection.UpdateOne(ctx, filter,
		bson.M{"$inc": bson.M{"cash_balance": delta}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		if delta < 0 {
			return errInsufficientBalance
		}
		return mongo.ErrNoDocuments
	}
	return nil
}
