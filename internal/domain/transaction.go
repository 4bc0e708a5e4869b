package domain

import (
	"errors" // Sentinel errors
	"time"   // Timestamps

	"github.com/shopspring/decimal" // Fixed-point money
	"gorm.io/gorm"                  // Hook signatures
)

// TxType tags a ledger row
type TxType string

// Ledger row types
const (
	TxDeposit               TxType = "deposit"                // Money entering a card
	TxPayment               TxType = "payment"                // Payment to a service provider
	TxTransfer              TxType = "transfer"               // Internal or account transfer
	TxTransferOtherBank     TxType = "transfer_other_bank"    // Card transfer leaving the bank
	TxInternationalTransfer TxType = "international_transfer" // SWIFT / money transfer systems
)

// ErrLedgerImmutable is returned when something tries to rewrite ledger history
var ErrLedgerImmutable = errors.New("ledger rows are append-only")

// Transaction Model. Rows reference accounts and cards by number, not by foreign key.
type Transaction struct {
	ID          uint            `gorm:"primaryKey" json:"id"`                             // Primary key
	UserID      uint            `gorm:"index;not null" json:"user_id"`                    // Owning user
	Amount      decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"amount"`        // Signed amount: negative debit, positive credit
	Type        TxType          `gorm:"size:50;not null;index" json:"type"`               // Transaction type
	Description string          `gorm:"type:text" json:"description"`                     // Free text
	FromRef     string          `gorm:"column:from_account;size:128" json:"from_account"` // Source reference
	ToRef       string          `gorm:"column:to_account;size:128" json:"to_account"`     // Destination reference
	CreatedAt   time.Time       `gorm:"index" json:"date"`                                // Creation time
}

// BeforeUpdate blocks any update of a ledger row
func (t *Transaction) BeforeUpdate(tx *gorm.DB) error {
	return ErrLedgerImmutable
}

// BeforeDelete blocks any deletion of a ledger row
func (t *Transaction) BeforeDelete(tx *gorm.DB) error {
	return ErrLedgerImmutable
}
