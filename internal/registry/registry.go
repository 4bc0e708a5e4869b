// Package registry creates and reads accounts and cards.
//
// Balances are never mutated here outside of creation; money movement
// belongs to the transfer engine.
package registry

import (
	"context"     // Request scoped cancellation
	"crypto/rand" // Card number digits
	"fmt"         // Error wrapping
	"math/big"    // Uniform digit range
	"strings"     // Input normalization
	"time"        // Card expiry

	"fbank/internal/domain" // Domain models and errors
	"fbank/internal/vault"  // Card number encryption

	"github.com/shopspring/decimal" // Fixed-point money
	"gorm.io/gorm"                  // GORM ORM library
)

const (
	maxCardAttempts    = 5 // Fingerprint collisions tolerated before giving up
	maxAccountAttempts = 5 // Account number collisions tolerated before giving up
	cardValidity       = 3 // Years
)

// CardTypes is the allow-list of card types, the first one is the default
var CardTypes = []string{"debit", "credit", "visa", "mastercard", "unionpay"}

// NumberGenerator yields candidate card numbers as 16 plain digits
type NumberGenerator func() (string, error)

// Registry owns account and card records
type Registry struct {
	db      *gorm.DB
	codec   vault.Codec
	numbers NumberGenerator
	now     func() time.Time
}

// New creates a Registry over db that encrypts card numbers with codec
func New(db *gorm.DB, codec vault.Codec) *Registry {
	return &Registry{db: db, codec: codec, numbers: RandomCardNumber, now: time.Now}
}

// WithNumberGenerator replaces the card number source
func (r *Registry) WithNumberGenerator(gen NumberGenerator) *Registry {
	r.numbers = gen
	return r
}

// RandomCardNumber draws 16 uniformly random digits
func RandomCardNumber() (string, error) {
	var b strings.Builder
	ten := big.NewInt(10)
	for i := 0; i < 16; i++ {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}
	return b.String(), nil
}

// OpenDefaultAccount opens the registration account of userID inside tx
func (r *Registry) OpenDefaultAccount(tx *gorm.DB, userID uint) (*domain.Account, error) {
	acc := &domain.Account{
		UserID:   userID,
		Balance:  decimal.Zero,
		Currency: domain.DefaultCurrency,
		Name:     domain.DefaultAccountLabel,
		Number:   domain.DefaultAccountNumber(userID),
	}
	if err := tx.Create(acc).Error; err != nil {
		return nil, fmt.Errorf("open default account: %w", err)
	}
	return acc, nil
}

// CreateAccount opens an additional account with an optional starting balance
func (r *Registry) CreateAccount(ctx context.Context, userID uint, initial decimal.Decimal, currency, label string) (*domain.Account, error) {
	if initial.IsNegative() || !initial.Round(2).Equal(initial) {
		return nil, domain.InvalidInput("Initial balance must be a non-negative amount with at most 2 decimal places")
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}
	if len(currency) != 3 {
		return nil, domain.InvalidInput("Currency must be a 3-letter code")
	}
	label = strings.TrimSpace(label)
	if label == "" {
		label = "Account"
	}

	var acc *domain.Account
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var n int64
		if err := tx.Model(&domain.Account{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
			return err
		}
		for attempt := 0; attempt < maxAccountAttempts; attempt++ {
			number := domain.ExtraAccountNumber(userID, n+int64(attempt))
			var taken int64
			if err := tx.Model(&domain.Account{}).Where("number = ?", number).Count(&taken).Error; err != nil {
				return err
			}
			if taken > 0 {
				continue // Suffix already used, try the next one
			}
			acc = &domain.Account{UserID: userID, Balance: initial, Currency: currency, Name: label, Number: number}
			return tx.Create(acc).Error
		}
		return domain.Conflict("Could not allocate an account number")
	})
	if err != nil {
		return nil, domain.FromStore(err, "User not found")
	}
	return acc, nil
}

// CreateCard issues a new card with a random number and returns it decoded
func (r *Registry) CreateCard(ctx context.Context, userID uint, cardType string) (*domain.CardView, error) {
	cardType, err := normalizeCardType(cardType)
	if err != nil {
		return nil, err
	}

	var card *domain.Card
	var plain string
	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var fp string
		found := false
		for attempt := 0; attempt < maxCardAttempts; attempt++ {
			candidate, err := r.numbers()
			if err != nil {
				return fmt.Errorf("generate card number: %w", err)
			}
			fp = r.codec.Fingerprint(candidate)
			var taken int64
			if err := tx.Model(&domain.Card{}).Where("fingerprint = ?", fp).Count(&taken).Error; err != nil {
				return err
			}
			if taken == 0 {
				plain, found = candidate, true
				break
			}
		}
		if !found {
			return domain.Conflict("Could not allocate a unique card number")
		}
		enc, err := r.codec.Encode(plain)
		if err != nil {
			return fmt.Errorf("encrypt card number: %w", err)
		}

		balance := decimal.Zero
		var first domain.Account
		res := tx.Where("user_id = ?", userID).Order("id ASC").Limit(1).Find(&first)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			balance = first.Balance // New cards mirror the main account balance
		}

		card = &domain.Card{
			UserID:      userID,
			Number:      enc,
			Fingerprint: &fp,
			Type:        cardType,
			Balance:     balance,
			Currency:    domain.DefaultCurrency,
			Expiry:      r.now().AddDate(cardValidity, 0, 0).Format("01/06"),
		}
		return tx.Create(card).Error
	})
	if err != nil {
		return nil, domain.FromStore(err, "User not found")
	}
	view := r.view(card)
	return &view, nil
}

// ListAccounts returns the accounts of userID in creation order
func (r *Registry) ListAccounts(ctx context.Context, userID uint) ([]domain.Account, error) {
	accounts := []domain.Account{}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&accounts).Error; err != nil {
		return nil, domain.FromStore(err, "Account not found")
	}
	return accounts, nil
}

// ListCards returns the cards of userID with decoded numbers
func (r *Registry) ListCards(ctx context.Context, userID uint) ([]domain.CardView, error) {
	var cards []domain.Card
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id ASC").Find(&cards).Error; err != nil {
		return nil, domain.FromStore(err, "Card not found")
	}
	views := make([]domain.CardView, 0, len(cards))
	for i := range cards {
		views = append(views, r.view(&cards[i]))
	}
	return views, nil
}

// GetCard loads a card owned by userID
func (r *Registry) GetCard(ctx context.Context, userID, cardID uint) (*domain.Card, error) {
	var card domain.Card
	if err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", cardID, userID).First(&card).Error; err != nil {
		return nil, domain.FromStore(err, "Card not found")
	}
	return &card, nil
}

// GetAccount loads an account owned by userID by its number
func (r *Registry) GetAccount(ctx context.Context, userID uint, number string) (*domain.Account, error) {
	var acc domain.Account
	if err := r.db.WithContext(ctx).Where("number = ? AND user_id = ?", strings.TrimSpace(number), userID).First(&acc).Error; err != nil {
		return nil, domain.FromStore(err, "Account not found")
	}
	return &acc, nil
}

// TotalBalance sums the balances of all accounts of userID
func (r *Registry) TotalBalance(ctx context.Context, userID uint) (decimal.Decimal, error) {
	var total decimal.Decimal
	err := r.db.WithContext(ctx).Model(&domain.Account{}).
		Select("COALESCE(SUM(balance), 0)"). // Zero when the user has no accounts
		Where("user_id = ?", userID).
		Row().Scan(&total)
	if err != nil {
		return decimal.Zero, domain.FromStore(err, "Account not found")
	}
	return total.Round(2), nil
}

// CountCards reports how many cards userID holds
func (r *Registry) CountCards(ctx context.Context, userID uint) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&domain.Card{}).Where("user_id = ?", userID).Count(&n).Error; err != nil {
		return 0, domain.FromStore(err, "Card not found")
	}
	return n, nil
}

// View decodes a stored card for its owner
func (r *Registry) View(card *domain.Card) domain.CardView {
	return r.view(card)
}

func (r *Registry) view(card *domain.Card) domain.CardView {
	return domain.CardView{
		ID:       card.ID,
		Number:   r.codec.Decode(card.Number),
		Type:     card.Type,
		Balance:  card.Balance,
		Currency: card.Currency,
		Expiry:   card.Expiry,
	}
}

func normalizeCardType(t string) (string, error) {
	t = strings.ToLower(strings.TrimSpace(t))
	if t == "" {
		return CardTypes[0], nil
	}
	for _, allowed := range CardTypes {
		if t == allowed {
			return t, nil
		}
	}
	return "", domain.InvalidInput("Unknown card type: allowed types are " + strings.Join(CardTypes, ", "))
}
