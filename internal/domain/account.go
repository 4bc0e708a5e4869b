package domain

import (
	"fmt" // Number formatting

	"github.com/shopspring/decimal" // Fixed-point money
)

// Account defaults
const (
	DefaultCurrency     = "KZT"          // Currency of every new account and card
	DefaultAccountLabel = "Main account" // Label of the account opened at registration
)

// Account Model
type Account struct {
	ID       uint            `gorm:"primaryKey" json:"id"`                                 // Primary key
	UserID   uint            `gorm:"index;not null" json:"-"`                              // Owner
	Balance  decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"balance"` // Current balance
	Currency string          `gorm:"size:3;not null;default:KZT" json:"currency"`          // ISO currency code
	Name     string          `gorm:"size:255;not null" json:"name"`                        // Human label
	Number   string          `gorm:"size:50;uniqueIndex;not null" json:"number"`           // Globally unique account number
}

// DefaultAccountNumber derives the number of the account opened at registration
func DefaultAccountNumber(userID uint) string {
	return fmt.Sprintf("KZ%09d", userID)
}

// ExtraAccountNumber derives the number of the n-th additional account of a user
func ExtraAccountNumber(userID uint, n int64) string {
	return fmt.Sprintf("KZ%09d%03d", userID, n)
}
