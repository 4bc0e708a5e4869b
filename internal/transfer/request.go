package transfer

import (
	"slices"  // Allow-list lookups
	"strings" // Input normalization

	"fbank/internal/domain"   // Error taxonomy
	"fbank/internal/identity" // Phone normalization
	"fbank/internal/vault"    // Card number helpers

	"github.com/shopspring/decimal" // Fixed-point money
	"gorm.io/gorm"                  // GORM ORM library
)

// Kind names a money movement flow
type Kind string

// Supported flows
const (
	KindAccount       Kind = "account_transfer"
	KindCard          Kind = "card_transfer"
	KindPhone         Kind = "phone_transfer"
	KindCrossBank     Kind = "cross_bank_transfer"
	KindInternational Kind = "international_transfer"
	KindDeposit       Kind = "deposit"
	KindPayment       Kind = "payment"
)

// International transfer systems
const (
	SystemSWIFT        = "SWIFT"
	SystemWesternUnion = "Western Union"
	SystemKoronaPay    = "Korona Pay"
)

// Currencies accepted for international transfers
var InternationalCurrencies = []string{"USD", "EUR", "GBP", "RUB", "CNY", "JPY", "KZT"}

// Request is one money movement. The set of implementations is closed:
// every request type lives in this package and is executed by Engine.
type Request interface {
	Kind() Kind
	// Validate checks and normalizes the request without touching the store
	Validate() error
	amount() decimal.Decimal
	apply(tx *gorm.DB, e *Engine, userID uint) (*Result, error)
}

// AccountTransfer moves money from an owned account to any account number.
// Numbers unknown to the bank are treated as external and only debited.
type AccountTransfer struct {
	FromAccount string
	ToAccount   string
	Amount      decimal.Decimal
	Description string
}

// CardTransfer moves money between two cards of the same user
type CardTransfer struct {
	FromCardID  uint
	ToCardID    uint
	Amount      decimal.Decimal
	Description string
}

// PhoneTransfer sends money to the first card of the user owning Phone
type PhoneTransfer struct {
	FromCardID  uint
	Phone       string
	Amount      decimal.Decimal
	Description string
}

// CrossBankTransfer sends money to a card of another bank
type CrossBankTransfer struct {
	FromCardID   uint
	ToCardNumber string
	Amount       decimal.Decimal
	Description  string
}

// InternationalTransfer sends money abroad through a transfer system
type InternationalTransfer struct {
	FromCardID    uint
	System        string
	RecipientName string
	SwiftCode     string
	IBAN          string
	ReceiverPhone string
	Country       string
	Currency      string
	Amount        decimal.Decimal
	Description   string
}

// Deposit tops up an owned card
type Deposit struct {
	CardID uint
	Amount decimal.Decimal
}

// Payment pays a service provider from an owned account
type Payment struct {
	FromAccount string
	Service     string
	Amount      decimal.Decimal
}

func (*AccountTransfer) Kind() Kind       { return KindAccount }
func (*CardTransfer) Kind() Kind          { return KindCard }
func (*PhoneTransfer) Kind() Kind         { return KindPhone }
func (*CrossBankTransfer) Kind() Kind     { return KindCrossBank }
func (*InternationalTransfer) Kind() Kind { return KindInternational }
func (*Deposit) Kind() Kind               { return KindDeposit }
func (*Payment) Kind() Kind               { return KindPayment }

func (r *AccountTransfer) amount() decimal.Decimal       { return r.Amount }
func (r *CardTransfer) amount() decimal.Decimal          { return r.Amount }
func (r *PhoneTransfer) amount() decimal.Decimal         { return r.Amount }
func (r *CrossBankTransfer) amount() decimal.Decimal     { return r.Amount }
func (r *InternationalTransfer) amount() decimal.Decimal { return r.Amount }
func (r *Deposit) amount() decimal.Decimal               { return r.Amount }
func (r *Payment) amount() decimal.Decimal               { return r.Amount }

// ValidateAmount accepts strictly positive amounts with at most two decimal places
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.InvalidInput("Amount must be greater than zero")
	}
	if !amount.Round(2).Equal(amount) {
		return domain.InvalidInput("Amount must have at most 2 decimal places")
	}
	return nil
}

func (r *AccountTransfer) Validate() error {
	r.FromAccount = strings.TrimSpace(r.FromAccount)
	r.ToAccount = strings.TrimSpace(r.ToAccount)
	r.Description = strings.TrimSpace(r.Description)
	if r.FromAccount == "" {
		return domain.InvalidInput("Source account is required")
	}
	if r.ToAccount == "" {
		return domain.InvalidInput("Destination account is required")
	}
	if err := ValidateAmount(r.Amount); err != nil {
		return err
	}
	if r.FromAccount == r.ToAccount {
		return domain.InvalidInput("Cannot transfer to the same account")
	}
	return nil
}

func (r *CardTransfer) Validate() error {
	r.Description = strings.TrimSpace(r.Description)
	if r.FromCardID == 0 {
		return domain.InvalidInput("Source card is required")
	}
	if r.ToCardID == 0 {
		return domain.InvalidInput("Destination card is required")
	}
	if err := ValidateAmount(r.Amount); err != nil {
		return err
	}
	if r.FromCardID == r.ToCardID {
		return domain.InvalidInput("Cannot transfer to the same card")
	}
	return nil
}

func (r *PhoneTransfer) Validate() error {
	r.Description = strings.TrimSpace(r.Description)
	if r.FromCardID == 0 {
		return domain.InvalidInput("Source card is required")
	}
	if strings.TrimSpace(r.Phone) == "" {
		return domain.InvalidInput("Recipient phone is required")
	}
	if err := ValidateAmount(r.Amount); err != nil {
		return err
	}
	phone, err := identity.NormalizePhone(r.Phone)
	if err != nil {
		return domain.InvalidInput("Invalid recipient phone number format")
	}
	r.Phone = phone
	return nil
}

func (r *CrossBankTransfer) Validate() error {
	r.Description = strings.TrimSpace(r.Description)
	if r.FromCardID == 0 {
		return domain.InvalidInput("Source card is required")
	}
	number := vault.Clean(r.ToCardNumber)
	if number == "" {
		return domain.InvalidInput("Recipient card number is required")
	}
	if !vault.IsCardNumber(number) {
		return domain.InvalidInput("Card number must be 16 digits")
	}
	if err := ValidateAmount(r.Amount); err != nil {
		return err
	}
	r.ToCardNumber = number
	return nil
}

func (r *InternationalTransfer) Validate() error {
	r.Description = strings.TrimSpace(r.Description)
	r.RecipientName = strings.TrimSpace(r.RecipientName)
	r.Country = strings.TrimSpace(r.Country)
	r.SwiftCode = strings.ToUpper(strings.TrimSpace(r.SwiftCode))
	r.IBAN = strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(r.IBAN), " ", ""))
	r.ReceiverPhone = strings.TrimSpace(r.ReceiverPhone)
	r.Currency = strings.ToUpper(strings.TrimSpace(r.Currency))
	if r.Currency == "" {
		r.Currency = "USD"
	}

	if r.FromCardID == 0 {
		return domain.InvalidInput("Source card is required")
	}
	system, ok := canonicalSystem(r.System)
	if !ok {
		return domain.InvalidInput("Unsupported transfer system")
	}
	r.System = system
	if r.RecipientName == "" {
		return domain.InvalidInput("Recipient name is required")
	}
	if r.System == SystemSWIFT {
		if n := len(r.SwiftCode); n < 8 || n > 11 {
			return domain.InvalidInput("Invalid SWIFT code format (8-11 characters)")
		}
		if n := len(r.IBAN); n < 15 || n > 34 {
			return domain.InvalidInput("Invalid IBAN format (15-34 characters)")
		}
	} else {
		if r.ReceiverPhone == "" {
			return domain.InvalidInput("Recipient phone is required")
		}
		if countDigits(r.ReceiverPhone) < 10 {
			return domain.InvalidInput("Invalid recipient phone number format")
		}
	}
	if r.Country == "" {
		return domain.InvalidInput("Recipient country is required")
	}
	if len(r.Country) > 64 {
		return domain.InvalidInput("Recipient country is too long")
	}
	if err := ValidateAmount(r.Amount); err != nil {
		return err
	}
	if !slices.Contains(InternationalCurrencies, r.Currency) {
		return domain.InvalidInput("Unsupported currency")
	}
	return nil
}

func (r *Deposit) Validate() error {
	if r.CardID == 0 {
		return domain.InvalidInput("Card is required")
	}
	return ValidateAmount(r.Amount)
}

func (r *Payment) Validate() error {
	r.FromAccount = strings.TrimSpace(r.FromAccount)
	r.Service = strings.TrimSpace(r.Service)
	if r.FromAccount == "" {
		return domain.InvalidInput("Account is required")
	}
	if r.Service == "" {
		return domain.InvalidInput("Service is required")
	}
	if len(r.Service) > 128 {
		return domain.InvalidInput("Service name is too long")
	}
	return ValidateAmount(r.Amount)
}

// canonicalSystem maps user input to a supported system name, SWIFT when empty
func canonicalSystem(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return SystemSWIFT, true
	}
	for _, known := range []string{SystemSWIFT, SystemWesternUnion, SystemKoronaPay} {
		if strings.EqualFold(s, known) {
			return known, true
		}
	}
	return "", false
}

func countDigits(s string) int {
	n := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			n++
		}
	}
	return n
}
