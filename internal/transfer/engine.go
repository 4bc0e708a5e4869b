// Package transfer moves money between accounts and cards.
//
// Every flow runs through Engine.Execute: validation first, then one store
// transaction that debits the source with a conditional update, credits an
// internal destination and appends the ledger rows. A failure at any step
// rolls the whole transaction back.
package transfer

import (
	"context" // Request scoped cancellation
	"time"    // Latency logging

	"fbank/internal/domain" // Domain models and errors
	"fbank/internal/ledger" // Transaction trail
	"fbank/internal/utils"  // Request id lookup
	"fbank/internal/vault"  // Card number decoding

	"github.com/shopspring/decimal" // Fixed-point money
	"github.com/sirupsen/logrus"    // Logging library
	"gorm.io/gorm"                  // GORM ORM library
)

// Result is what a successful movement reports back
type Result struct {
	TransactionID uint            `json:"transactionId"` // Ledger row of the caller
	NewBalance    decimal.Decimal `json:"newBalance"`    // Source balance after the movement
	AffectedUsers []uint          `json:"-"`             // Users whose balances changed
}

// Engine executes transfer requests atomically
type Engine struct {
	db     *gorm.DB
	codec  vault.Codec
	ledger *ledger.Ledger
}

// NewEngine creates an Engine
func NewEngine(db *gorm.DB, codec vault.Codec, l *ledger.Ledger) *Engine {
	return &Engine{db: db, codec: codec, ledger: l}
}

// Execute validates req and applies it for userID in a single store transaction
func (e *Engine) Execute(ctx context.Context, userID uint, req Request) (*Result, error) {
	start := time.Now()
	fields := logrus.Fields{
		"kind":       req.Kind(),
		"user_id":    userID,
		"amount":     req.amount().String(),
		"request_id": utils.RequestID(ctx),
	}
	if err := req.Validate(); err != nil {
		logrus.WithFields(fields).WithError(err).Warn("Transfer rejected")
		return nil, err
	}

	var res *Result
	err := e.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		r, err := req.apply(tx, e, userID)
		if err != nil {
			return err // Rollback
		}
		res = r
		return nil
	})
	fields["duration_ms"] = time.Since(start).Milliseconds()
	if err != nil {
		err = domain.FromStore(err, "Not found")
		entry := logrus.WithFields(fields).WithError(err)
		switch domain.KindOf(err) {
		case domain.KindInternal, domain.KindStoreUnavailable:
			entry.Error("Transfer failed")
		default:
			entry.Warn("Transfer rejected")
		}
		return nil, err
	}
	fields["transaction_id"] = res.TransactionID
	logrus.WithFields(fields).Info("Transfer completed")
	return res, nil
}

// TransferAccountToAccount moves money between accounts by number
func (e *Engine) TransferAccountToAccount(ctx context.Context, userID uint, from, to string, amount decimal.Decimal, description string) (*Result, error) {
	return e.Execute(ctx, userID, &AccountTransfer{FromAccount: from, ToAccount: to, Amount: amount, Description: description})
}

// TransferCardToCard moves money between two cards of userID
func (e *Engine) TransferCardToCard(ctx context.Context, userID, fromCardID, toCardID uint, amount decimal.Decimal, description string) (*Result, error) {
	return e.Execute(ctx, userID, &CardTransfer{FromCardID: fromCardID, ToCardID: toCardID, Amount: amount, Description: description})
}

// TransferByPhone sends money to the user registered under phone
func (e *Engine) TransferByPhone(ctx context.Context, userID, fromCardID uint, phone string, amount decimal.Decimal, description string) (*Result, error) {
	return e.Execute(ctx, userID, &PhoneTransfer{FromCardID: fromCardID, Phone: phone, Amount: amount, Description: description})
}

// TransferCrossBank sends money to a card of another bank
func (e *Engine) TransferCrossBank(ctx context.Context, userID, fromCardID uint, toCardNumber string, amount decimal.Decimal, description string) (*Result, error) {
	return e.Execute(ctx, userID, &CrossBankTransfer{FromCardID: fromCardID, ToCardNumber: toCardNumber, Amount: amount, Description: description})
}

// TransferInternational sends money abroad
func (e *Engine) TransferInternational(ctx context.Context, userID uint, req InternationalTransfer) (*Result, error) {
	return e.Execute(ctx, userID, &req)
}

// DepositToCard tops up a card of userID
func (e *Engine) DepositToCard(ctx context.Context, userID, cardID uint, amount decimal.Decimal) (*Result, error) {
	return e.Execute(ctx, userID, &Deposit{CardID: cardID, Amount: amount})
}

// Pay pays service from an account of userID
func (e *Engine) Pay(ctx context.Context, userID uint, account, service string, amount decimal.Decimal) (*Result, error) {
	return e.Execute(ctx, userID, &Payment{FromAccount: account, Service: service, Amount: amount})
}

// ListTransactions returns the history of userID, newest first
func (e *Engine) ListTransactions(ctx context.Context, userID uint, page, pageSize int) (*ledger.Page, error) {
	return e.ledger.List(ctx, userID, page, pageSize)
}
