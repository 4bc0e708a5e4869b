package transfer

import (
	"fbank/internal/domain" // Domain models and errors

	"github.com/shopspring/decimal" // Fixed-point money
	"gorm.io/gorm"                  // GORM ORM library
)

// Balance arithmetic happens in the store so concurrent requests never
// overwrite each other with a stale value read in Go.
const (
	debitExpr   = "balance - CAST(? AS DECIMAL(15,2))"
	creditExpr  = "balance + CAST(? AS DECIMAL(15,2))"
	coversWhere = "balance >= CAST(? AS DECIMAL(15,2))"
)

func ownedCard(tx *gorm.DB, userID, cardID uint, notFound string) (*domain.Card, error) {
	var card domain.Card
	if err := tx.Where("id = ? AND user_id = ?", cardID, userID).First(&card).Error; err != nil {
		return nil, domain.FromStore(err, notFound)
	}
	return &card, nil
}

func ownedAccount(tx *gorm.DB, userID uint, number, notFound string) (*domain.Account, error) {
	var acc domain.Account
	if err := tx.Where("number = ? AND user_id = ?", number, userID).First(&acc).Error; err != nil {
		return nil, domain.FromStore(err, notFound)
	}
	return &acc, nil
}

// debit takes amount from the row id of model owned by userID. The row only
// changes when it still covers amount at write time.
func debit(tx *gorm.DB, model any, id, userID uint, amount decimal.Decimal) error {
	res := tx.Model(model).
		Where("id = ? AND user_id = ?", id, userID).
		Where(coversWhere, amount).
		Update("balance", gorm.Expr(debitExpr, amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.InsufficientFunds() // Balance dropped below amount since it was read
	}
	return nil
}

func credit(tx *gorm.DB, model any, id uint, amount decimal.Decimal) error {
	res := tx.Model(model).Where("id = ?", id).Update("balance", gorm.Expr(creditExpr, amount))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.NotFound("Destination not found")
	}
	return nil
}

func debitCard(tx *gorm.DB, card *domain.Card, amount decimal.Decimal) error {
	if card.Balance.LessThan(amount) {
		return domain.InsufficientFunds()
	}
	return debit(tx, &domain.Card{}, card.ID, card.UserID, amount)
}

func debitAccount(tx *gorm.DB, acc *domain.Account, amount decimal.Decimal) error {
	if acc.Balance.LessThan(amount) {
		return domain.InsufficientFunds()
	}
	return debit(tx, &domain.Account{}, acc.ID, acc.UserID, amount)
}

func cardBalance(tx *gorm.DB, id uint) (decimal.Decimal, error) {
	var card domain.Card
	if err := tx.Select("id", "balance").First(&card, id).Error; err != nil {
		return decimal.Zero, err
	}
	return card.Balance.Round(2), nil
}

func accountBalance(tx *gorm.DB, id uint) (decimal.Decimal, error) {
	var acc domain.Account
	if err := tx.Select("id", "balance").First(&acc, id).Error; err != nil {
		return decimal.Zero, err
	}
	return acc.Balance.Round(2), nil
}
