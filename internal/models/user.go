package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is an account in the authentication collaborator. The core only ever
// sees its ID.
type User struct {
	ID          string    `bson:"_id" json:"id"`
	Username    string    `bson:"username" json:"username"`
	Email       string    `bson:"email" json:"email"`
	Password    string    `bson:"password" json:"-"`
	CashBalance float64   `bson:"cash_balance" json:"cashBalance"`
	CreatedAt   time.Time `bson:"created_at" json:"createdAt"`
}

// HashPassword hashes the user's password in place.
func (u *User) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

// CheckPassword reports whether the provided password matches the stored hash.
func (u *User) CheckPassword(password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}
