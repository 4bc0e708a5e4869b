package api

import (
	"errors"   // Empty body check
	"io"       // Empty body check
	"net/http" // HTTP status codes

	"fbank/internal/domain"     // Importing domain models
	"fbank/internal/identity"   // Recipient lookup
	"fbank/internal/middleware" // Request id lookup
	"fbank/internal/registry"   // Accounts and cards
	"fbank/internal/transfer"   // Money movement
	"fbank/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Fixed-point money
	"github.com/sirupsen/logrus"    // Logging library
)

// CreateCardRequest issues a card
type CreateCardRequest struct {
	Type string `json:"type"` // debit, credit, visa, mastercard or unionpay
}

// DepositRequest tops up a card
type DepositRequest struct {
	CardID uint            `json:"cardId" binding:"required"` // Card to credit
	Amount decimal.Decimal `json:"amount"`                    // Deposit amount
}

// CardTransferRequest moves money between the caller's cards
type CardTransferRequest struct {
	FromCardID  uint            `json:"fromCardId" binding:"required"` // Source card
	ToCardID    uint            `json:"toCardId" binding:"required"`   // Destination card
	Amount      decimal.Decimal `json:"amount"`                        // Transfer amount
	Description string          `json:"description"`                   // Optional description
}

// PhoneTransferRequest sends money to a phone number
type PhoneTransferRequest struct {
	FromCardID  uint            `json:"fromCardId" binding:"required"` // Source card
	Phone       string          `json:"phone" binding:"required"`      // Recipient phone
	Amount      decimal.Decimal `json:"amount"`                        // Transfer amount
	Description string          `json:"description"`                   // Optional description
}

// OtherBankTransferRequest sends money to a card of another bank
type OtherBankTransferRequest struct {
	FromCardID   uint            `json:"fromCardId" binding:"required"`   // Source card
	ToCardNumber string          `json:"toCardNumber" binding:"required"` // Recipient card number
	Amount       decimal.Decimal `json:"amount"`                          // Transfer amount
	Description  string          `json:"description"`                     // Optional description
}

// InternationalTransferRequest sends money abroad
type InternationalTransferRequest struct {
	FromCardID     uint            `json:"fromCardId" binding:"required"` // Source card
	TransferSystem string          `json:"transferSystem"`                // SWIFT, Western Union or Korona Pay
	RecipientName  string          `json:"recipientName"`                 // Recipient full name
	SwiftCode      string          `json:"swiftCode"`                     // SWIFT/BIC, SWIFT only
	IBAN           string          `json:"iban"`                          // IBAN, SWIFT only
	ReceiverPhone  string          `json:"receiverPhone"`                 // Phone, money transfer systems only
	Country        string          `json:"country"`                       // Destination country
	Amount         decimal.Decimal `json:"amount"`                        // Transfer amount
	Currency       string          `json:"currency"`                      // Currency code
	Description    string          `json:"description"`                   // Optional description
}

// PhoneLookupRequest asks who owns a phone number
type PhoneLookupRequest struct {
	Phone string `json:"phone" binding:"required"` // Phone to look up
}

// responseStyle picks the key casing of a money movement response
type responseStyle int

const (
	snakeCase responseStyle = iota // new_balance, transaction_id
	camelCase                      // newBalance, transactionId
)

// execute runs a transfer request for the caller and writes the outcome
func execute(c *gin.Context, engine *transfer.Engine, rdb *redis.Client, req transfer.Request, style responseStyle) {
	res, err := engine.Execute(c.Request.Context(), callerID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.InvalidateUser(c.Request.Context(), rdb, res.AffectedUsers...) // Balances and history changed
	message := "Transfer completed successfully"
	switch req.Kind() {
	case transfer.KindDeposit:
		message = "Card topped up successfully"
	case transfer.KindPayment:
		message = "Payment completed successfully"
	}
	if style == camelCase {
		c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "newBalance": res.NewBalance, "transactionId": res.TransactionID})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "message": message, "new_balance": res.NewBalance, "transaction_id": res.TransactionID})
}

// ListCardsHandler returns the caller's cards with decoded numbers
func ListCardsHandler(reg *registry.Registry, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()              // Request context for Redis and DB
		cacheKey := utils.CardsKey(callerID(c)) // Cache key for cards
		var cards []domain.CardView
		// If found in cache, return it
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cards); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"success": true, "cards": cards, "cached": true})
			return
		}
		cards, err := reg.ListCards(ctx, callerID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, cards, utils.UserDataTTL)
		c.JSON(http.StatusOK, gin.H{"success": true, "cards": cards, "cached": false})
	}
}

// CreateCardHandler issues a new card to the caller
func CreateCardHandler(reg *registry.Registry, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateCardRequest // Body is optional
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			badRequest(c)
			return
		}
		card, err := reg.CreateCard(c.Request.Context(), callerID(c), req.Type)
		if err != nil {
			respondError(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":    callerID(c),                // Card owner
			"card_id":    card.ID,                    // New card
			"request_id": middleware.GetRequestID(c), // Correlation id
		}).Info("Card issued")
		utils.InvalidateUser(c.Request.Context(), rdb, callerID(c)) // Invalidate card cache
		c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Card created", "card": card})
	}
}

// CheckCardsHandler reports whether the caller holds any card
func CheckCardsHandler(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		n, err := reg.CountCards(c.Request.Context(), callerID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "hasCards": n > 0, "count": n})
	}
}

// DepositHandler tops up one of the caller's cards
func DepositHandler(engine *transfer.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req DepositRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		execute(c, engine, rdb, &transfer.Deposit{CardID: req.CardID, Amount: req.Amount}, camelCase)
	}
}

// CardTransferHandler moves money between the caller's cards
func CardTransferHandler(engine *transfer.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CardTransferRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		execute(c, engine, rdb, &transfer.CardTransfer{
			FromCardID:  req.FromCardID,
			ToCardID:    req.ToCardID,
			Amount:      req.Amount,
			Description: req.Description,
		}, camelCase)
	}
}

// PhoneTransferHandler sends money to the owner of a phone number
func PhoneTransferHandler(engine *transfer.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PhoneTransferRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		execute(c, engine, rdb, &transfer.PhoneTransfer{
			FromCardID:  req.FromCardID,
			Phone:       req.Phone,
			Amount:      req.Amount,
			Description: req.Description,
		}, camelCase)
	}
}

// OtherBankTransferHandler sends money to a card outside the bank
func OtherBankTransferHandler(engine *transfer.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req OtherBankTransferRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		execute(c, engine, rdb, &transfer.CrossBankTransfer{
			FromCardID:   req.FromCardID,
			ToCardNumber: req.ToCardNumber,
			Amount:       req.Amount,
			Description:  req.Description,
		}, camelCase)
	}
}

// InternationalTransferHandler sends money abroad
func InternationalTransferHandler(engine *transfer.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req InternationalTransferRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		execute(c, engine, rdb, &transfer.InternationalTransfer{
			FromCardID:    req.FromCardID,
			System:        req.TransferSystem,
			RecipientName: req.RecipientName,
			SwiftCode:     req.SwiftCode,
			IBAN:          req.IBAN,
			ReceiverPhone: req.ReceiverPhone,
			Country:       req.Country,
			Currency:      req.Currency,
			Amount:        req.Amount,
			Description:   req.Description,
		}, camelCase)
	}
}

// UserByPhoneHandler shows who owns a phone number before a transfer
func UserByPhoneHandler(users *identity.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PhoneLookupRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		user, err := users.FindByPhone(c.Request.Context(), req.Phone)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "user": userResponse(user)})
	}
}
