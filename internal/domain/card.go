package domain

import "github.com/shopspring/decimal" // Fixed-point money

// Card Model. Number only ever holds vault ciphertext (or a legacy plaintext value).
type Card struct {
	ID          uint            `gorm:"primaryKey" json:"id"`                                 // Primary key
	UserID      uint            `gorm:"index;not null" json:"-"`                              // Owner
	Number      string          `gorm:"size:255;not null" json:"-"`                           // Encrypted card number
	Fingerprint *string         `gorm:"size:64;uniqueIndex" json:"-"`                         // Keyed hash of the digits, nil for legacy rows
	Type        string          `gorm:"size:50;not null" json:"type"`                         // debit, credit or brand
	Balance     decimal.Decimal `gorm:"type:decimal(15,2);not null;default:0" json:"balance"` // Current balance
	Currency    string          `gorm:"size:3;not null;default:KZT" json:"currency"`          // ISO currency code
	Expiry      string          `gorm:"size:10" json:"expiry"`                                // MM/YY
}

// CardView is a card as returned to its owner, with the number decoded
type CardView struct {
	ID       uint            `json:"id"`       // Card ID
	Number   string          `json:"number"`   // Decoded, grouped card number
	Type     string          `json:"type"`     // Card type
	Balance  decimal.Decimal `json:"balance"`  // Current balance
	Currency string          `json:"currency"` // Currency
	Expiry   string          `json:"expiry"`   // Expiry MM/YY
}
