package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is the minimal account record notifications are addressed to
type User struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	FullName    string    `json:"full_name" gorm:"not null"`
	Email       string    `json:"email" gorm:"uniqueIndex"`
	FirebaseUID string    `json:"-" gorm:"index"` // set when the account signs in through Firebase
	CreatedAt   time.Time `json:"created_at"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
