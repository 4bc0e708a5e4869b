// Package ledger appends and reads the transaction trail.
package ledger

import (
	"context" // Request scoped cancellation
	"fmt"     // Error wrapping
	"time"    // Filter bounds

	"fbank/internal/domain" // Domain models and errors

	"github.com/shopspring/decimal" // Fixed-point money
	"gorm.io/gorm"                  // GORM ORM library
)

// Page limits
const (
	DefaultPageSize = 20  // Used when the caller asks for no size
	MaxPageSize     = 100 // Upper bound on a single page
)

// Entry is one row to append
type Entry struct {
	UserID      uint            // Owning user
	Amount      decimal.Decimal // Signed amount
	Type        domain.TxType   // Row type
	Description string          // Free text
	FromRef     string          // Source reference
	ToRef       string          // Destination reference
}

// Page is a slice of history plus the total row count
type Page struct {
	Items    []domain.Transaction `json:"transactions"` // Rows on this page
	Total    int64                `json:"total"`        // Rows across all pages
	Page     int                  `json:"page"`         // 1-based page number
	PageSize int                  `json:"page_size"`    // Rows per page
}

// Filter narrows the admin listing
type Filter struct {
	UserID   uint          // Zero means every user
	Type     domain.TxType // Empty means every type
	From     *time.Time    // Inclusive lower bound
	To       *time.Time    // Inclusive upper bound
	Page     int           // 1-based page number
	PageSize int           // Rows per page
}

// Ledger reads and appends transaction rows
type Ledger struct {
	db *gorm.DB
}

// New creates a Ledger over db
func New(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Append writes one row inside the caller's transaction and returns its id.
// The ledger does not look at balances; the caller has already moved the money.
func (l *Ledger) Append(tx *gorm.DB, e Entry) (uint, error) {
	row := domain.Transaction{
		UserID:      e.UserID,
		Amount:      e.Amount.Round(2),
		Type:        e.Type,
		Description: e.Description,
		FromRef:     e.FromRef,
		ToRef:       e.ToRef,
	}
	if err := tx.Create(&row).Error; err != nil {
		return 0, fmt.Errorf("append %s row: %w", e.Type, err)
	}
	return row.ID, nil
}

// List returns the history of userID, newest first
func (l *Ledger) List(ctx context.Context, userID uint, page, pageSize int) (*Page, error) {
	return l.ListAll(ctx, Filter{UserID: userID, Page: page, PageSize: pageSize})
}

// ListAll returns rows matching f, newest first
func (l *Ledger) ListAll(ctx context.Context, f Filter) (*Page, error) {
	page, size := clampPage(f.Page, f.PageSize)

	var total int64
	if err := l.db.WithContext(ctx).Model(&domain.Transaction{}).Scopes(f.scope).Count(&total).Error; err != nil {
		return nil, domain.FromStore(err, "Transaction not found")
	}
	items := []domain.Transaction{}
	err := l.db.WithContext(ctx).Scopes(f.scope).
		Order("created_at DESC").Order("id DESC"). // Ties on the timestamp fall back to insertion order
		Offset((page - 1) * size).
		Limit(size).
		Find(&items).Error
	if err != nil {
		return nil, domain.FromStore(err, "Transaction not found")
	}
	return &Page{Items: items, Total: total, Page: page, PageSize: size}, nil
}

// scope applies the filter conditions to a query
func (f Filter) scope(q *gorm.DB) *gorm.DB {
	if f.UserID != 0 {
		q = q.Where("user_id = ?", f.UserID)
	}
	if f.Type != "" {
		q = q.Where("type = ?", f.Type)
	}
	if f.From != nil {
		q = q.Where("created_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("created_at <= ?", *f.To)
	}
	return q
}

func clampPage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size
}
