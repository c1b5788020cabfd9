package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Defaults applied to newly registered users
const (
	DefaultRating = 5.0
)

// User represents a campus user; the same account can post quests and act as a hero
type User struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	Name            string          `gorm:"size:255;not null" json:"name"`
	Username        string          `gorm:"size:100;uniqueIndex;not null" json:"username"`
	Email           string          `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash    string          `gorm:"size:255;not null" json:"-"`
	DOB             string          `gorm:"size:50" json:"dob"`
	Balance         decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"balance"`
	// StartingBalance is the grant at registration; the ledger is replayed on top of it.
	StartingBalance decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"-"`
	XP              int64           `gorm:"not null;default:0" json:"xp"`
	Rating          float64         `gorm:"type:decimal(3,1);not null;default:5" json:"rating"`
	RatingCount     int64           `gorm:"not null;default:0" json:"ratingCount"`
	JoinedAt        time.Time       `gorm:"autoCreateTime" json:"joinedAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// TableName specifies the table name for User model
func (User) TableName() string {
	return "users"
}

// RegisterRequest is the payload of POST /auth/register
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Username string `json:"username" binding:"required,min=3,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=4"`
	DOB      string `json:"dob" binding:"required"`
}

// LoginRequest is the payload of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}
