package transfer

import (
	"fmt" // Default descriptions

	"fbank/internal/domain" // Domain models and errors
	"fbank/internal/ledger" // Ledger entries
	"fbank/internal/vault"  // Card number helpers

	"gorm.io/gorm" // GORM ORM library
)

func (r *AccountTransfer) apply(tx *gorm.DB, e *Engine, userID uint) (*Result, error) {
	src, err := ownedAccount(tx, userID, r.FromAccount, "Source account not found")
	if err != nil {
		return nil, err
	}
	if err := debitAccount(tx, src, r.Amount); err != nil {
		return nil, err
	}

	desc := r.Description
	if desc == "" {
		desc = "Transfer to " + r.ToAccount
	}
	id, err := e.ledger.Append(tx, ledger.Entry{
		UserID:      userID,
		Amount:      r.Amount.Neg(),
		Type:        domain.TxTransfer,
		Description: desc,
		FromRef:     r.FromAccount,
		ToRef:       r.ToAccount,
	})
	if err != nil {
		return nil, err
	}

	affected := []uint{userID}
	var dst domain.Account
	found := tx.Where("number = ?", r.ToAccount).Limit(1).Find(&dst)
	if found.Error != nil {
		return nil, found.Error
	}
	if found.RowsAffected > 0 { // Internal account, otherwise the money leaves the bank
		if err := credit(tx, &domain.Account{}, dst.ID, r.Amount); err != nil {
			return nil, err
		}
		inDesc := r.Description
		if inDesc == "" {
			inDesc = "Transfer from " + r.FromAccount
		}
		if _, err := e.ledger.Append(tx, ledger.Entry{
			UserID:      dst.UserID,
			Amount:      r.Amount,
			Type:        domain.TxTransfer,
			Description: inDesc,
			FromRef:     r.FromAccount,
			ToRef:       r.ToAccount,
		}); err != nil {
			return nil, err
		}
		if dst.UserID != userID {
			affected = append(affected, dst.UserID)
		}
	}
	balance, err := accountBalance(tx, src.ID)
	if err != nil {
		return nil, err
	}
	return &Result{TransactionID: id, NewBalance: balance, AffectedUsers: affected}, nil
}

func (r *CardTransfer) apply(tx *gorm.DB, e *Engine, userID uint) (*Result, error) {
	src, err := ownedCard(tx, userID, r.FromCardID, "Source card not found")
	if err != nil {
		return nil, err
	}
	dst, err := ownedCard(tx, userID, r.ToCardID, "Destination card not found")
	if err != nil {
		return nil, err
	}
	if err := debitCard(tx, src, r.Amount); err != nil {
		return nil, err
	}
	if err := credit(tx, &domain.Card{}, dst.ID, r.Amount); err != nil {
		return nil, err
	}

	desc := r.Description
	if desc == "" {
		desc = "Transfer between cards"
	}
	id, err := e.ledger.Append(tx, ledger.Entry{
		UserID:      userID,
		Amount:      r.Amount.Neg(),
		Type:        domain.TxTransfer,
		Description: desc,
		FromRef:     e.codec.Decode(src.Number),
		ToRef:       e.codec.Decode(dst.Number),
	})
	if err != nil {
		return nil, err
	}
	balance, err := cardBalance(tx, src.ID)
	if err != nil {
		return nil, err
	}
	return &Result{TransactionID: id, NewBalance: balance, AffectedUsers: []uint{userID}}, nil
}

func (r *PhoneTransfer) apply(tx *gorm.DB, e *Engine, userID uint) (*Result, error) {
	src, err := ownedCard(tx, userID, r.FromCardID, "Source card not found")
	if err != nil {
		return nil, err
	}
	if src.Balance.LessThan(r.Amount) {
		return nil, domain.InsufficientFunds()
	}

	var recipient domain.User
	if err := tx.Where("phone = ?", r.Phone).First(&recipient).Error; err != nil {
		return nil, domain.FromStore(err, "No user with this phone number")
	}
	if recipient.ID == userID {
		return nil, domain.InvalidInput("Cannot transfer to yourself")
	}
	var dst domain.Card
	if err := tx.Where("user_id = ?", recipient.ID).Order("id ASC").First(&dst).Error; err != nil {
		return nil, domain.FromStore(err, "Recipient has no cards")
	}
	var sender domain.User
	if err := tx.Select("id", "phone").First(&sender, userID).Error; err != nil {
		return nil, domain.FromStore(err, "User not found")
	}

	if err := debitCard(tx, src, r.Amount); err != nil {
		return nil, err
	}
	if err := credit(tx, &domain.Card{}, dst.ID, r.Amount); err != nil {
		return nil, err
	}

	// Both rows carry the same masked pair, so neither side sees the other's full number.
	fromRef, toRef := vault.Mask(e.codec.Decode(src.Number)), vault.Mask(e.codec.Decode(dst.Number))
	outDesc, inDesc := r.Description, r.Description
	if outDesc == "" {
		outDesc = "Transfer by phone " + r.Phone
		inDesc = "Transfer by phone from " + sender.Phone
	}
	id, err := e.ledger.Append(tx, ledger.Entry{
		UserID:      userID,
		Amount:      r.Amount.Neg(),
		Type:        domain.TxTransfer,
		Description: outDesc,
		FromRef:     fromRef,
		ToRef:       toRef,
	})
	if err != nil {
		return nil, err
	}
	if _, err := e.ledger.Append(tx, ledger.Entry{
		UserID:      recipient.ID,
		Amount:      r.Amount,
		Type:        domain.TxTransfer,
		Description: inDesc,
		FromRef:     fromRef,
		ToRef:       toRef,
	}); err != nil {
		return nil, err
	}
	balance, err := cardBalance(tx, src.ID)
	if err != nil {
		return nil, err
	}
	return &Result{TransactionID: id, NewBalance: balance, AffectedUsers: []uint{userID, recipient.ID}}, nil
}

func (r *CrossBankTransfer) apply(tx *gorm.DB, e *Engine, userID uint) (*Result, error) {
	src, err := ownedCard(tx, userID, r.FromCardID, "Source card not found")
	if err != nil {
		return nil, err
	}

	var own []domain.Card
	if err := tx.Select("id", "number").Where("user_id = ?", userID).Find(&own).Error; err != nil {
		return nil, err
	}
	for _, c := range own {
		if vault.Clean(e.codec.Decode(c.Number)) == r.ToCardNumber {
			return nil, domain.InvalidInput("This card belongs to you, use a transfer between your cards")
		}
	}

	if err := debitCard(tx, src, r.Amount); err != nil {
		return nil, err
	}
	masked := vault.Mask(r.ToCardNumber)
	desc := r.Description
	if desc == "" {
		desc = "Transfer to another bank card " + masked
	}
	id, err := e.ledger.Append(tx, ledger.Entry{
		UserID:      userID,
		Amount:      r.Amount.Neg(),
		Type:        domain.TxTransferOtherBank,
		Description: desc,
		FromRef:     e.codec.Decode(src.Number),
		ToRef:       masked,
	})
	if err != nil {
		return nil, err
	}
	balance, err := cardBalance(tx, src.ID)
	if err != nil {
		return nil, err
	}
	return &Result{TransactionID: id, NewBalance: balance, AffectedUsers: []uint{userID}}, nil
}

func (r *InternationalTransfer) apply(tx *gorm.DB, e *Engine, userID uint) (*Result, error) {
	src, err := ownedCard(tx, userID, r.FromCardID, "Source card not found")
	if err != nil {
		return nil, err
	}
	if err := debitCard(tx, src, r.Amount); err != nil {
		return nil, err
	}

	to := fmt.Sprintf("%s (%s)", r.ReceiverPhone, r.Country)
	if r.System == SystemSWIFT {
		to = fmt.Sprintf("%s (%s)", r.IBAN, r.Country)
	}
	desc := r.Description
	if desc == "" {
		desc = fmt.Sprintf("International transfer %s via %s to %s", r.Currency, r.System, r.Country)
	}
	id, err := e.ledger.Append(tx, ledger.Entry{
		UserID:      userID,
		Amount:      r.Amount.Neg(),
		Type:        domain.TxInternationalTransfer,
		Description: desc,
		FromRef:     e.codec.Decode(src.Number),
		ToRef:       to,
	})
	if err != nil {
		return nil, err
	}
	balance, err := cardBalance(tx, src.ID)
	if err != nil {
		return nil, err
	}
	return &Result{TransactionID: id, NewBalance: balance, AffectedUsers: []uint{userID}}, nil
}

func (r *Deposit) apply(tx *gorm.DB, e *Engine, userID uint) (*Result, error) {
	card, err := ownedCard(tx, userID, r.CardID, "Card not found")
	if err != nil {
		return nil, err
	}
	if err := credit(tx, &domain.Card{}, card.ID, r.Amount); err != nil {
		return nil, err
	}
	number := e.codec.Decode(card.Number)
	id, err := e.ledger.Append(tx, ledger.Entry{
		UserID:      userID,
		Amount:      r.Amount,
		Type:        domain.TxDeposit,
		Description: "Account top-up",
		FromRef:     number,
		ToRef:       number,
	})
	if err != nil {
		return nil, err
	}
	balance, err := cardBalance(tx, card.ID)
	if err != nil {
		return nil, err
	}
	return &Result{TransactionID: id, NewBalance: balance, AffectedUsers: []uint{userID}}, nil
}

func (r *Payment) apply(tx *gorm.DB, e *Engine, userID uint) (*Result, error) {
	acc, err := ownedAccount(tx, userID, r.FromAccount, "Account not found")
	if err != nil {
		return nil, err
	}
	if err := debitAccount(tx, acc, r.Amount); err != nil {
		return nil, err
	}
	id, err := e.ledger.Append(tx, ledger.Entry{
		UserID:      userID,
		Amount:      r.Amount.Neg(),
		Type:        domain.TxPayment,
		Description: "Payment: " + r.Service,
		FromRef:     r.FromAccount,
		ToRef:       r.Service,
	})
	if err != nil {
		return nil, err
	}
	balance, err := accountBalance(tx, acc.ID)
	if err != nil {
		return nil, err
	}
	return &Result{TransactionID: id, NewBalance: balance, AffectedUsers: []uint{userID}}, nil
}
