package api

import (
	"net/http" // HTTP status codes

	"fbank/internal/domain"   // Importing domain models
	"fbank/internal/ledger"   // Transaction history
	"fbank/internal/registry" // Accounts and cards
	"fbank/internal/transfer" // Money movement
	"fbank/internal/utils"    // Utility functions

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Fixed-point money
)

// CreateAccountRequest opens an additional account
type CreateAccountRequest struct {
	Name           string          `json:"name"`            // Label, defaults to "Account"
	Currency       string          `json:"currency"`        // ISO code, defaults to KZT
	InitialBalance decimal.Decimal `json:"initial_balance"` // Starting balance, defaults to zero
}

// TransferRequest moves money between accounts by number
type TransferRequest struct {
	FromAccount string          `json:"from_account" binding:"required"` // Source account number
	ToAccount   string          `json:"to_account" binding:"required"`   // Destination account number
	Amount      decimal.Decimal `json:"amount"`                          // Transfer amount
	Description string          `json:"description"`                     // Optional description
}

// PaymentRequest pays a service from an account
type PaymentRequest struct {
	Account string          `json:"account" binding:"required"` // Source account number
	Service string          `json:"service" binding:"required"` // Service provider name
	Amount  decimal.Decimal `json:"amount"`                     // Payment amount
}

// Service is an entry of the payment catalogue
type Service struct {
	ID       int    `json:"id"`       // Service ID
	Name     string `json:"name"`     // Provider name
	Category string `json:"category"` // Category
}

// Services is the static payment catalogue
var Services = []Service{
	{ID: 1, Name: "Kazakhtelecom", Category: "Internet"},
	{ID: 2, Name: "KEGOC", Category: "Electricity"},
	{ID: 3, Name: "AO SK", Category: "Utilities"},
	{ID: 4, Name: "Beeline", Category: "Mobile"},
}

// ListAccountsHandler returns the caller's accounts
func ListAccountsHandler(reg *registry.Registry, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()                 // Request context for Redis and DB
		cacheKey := utils.AccountsKey(callerID(c)) // Cache key for accounts
		var accounts []domain.Account              // Accounts to return
		// If found in cache, return it
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &accounts); err == nil && found {
			c.JSON(http.StatusOK, gin.H{"success": true, "accounts": accounts, "cached": true})
			return
		}
		accounts, err := reg.ListAccounts(ctx, callerID(c)) // If not in cache, fetch from DB
		if err != nil {
			respondError(c, err)
			return
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, accounts, utils.UserDataTTL) // Cache the accounts
		c.JSON(http.StatusOK, gin.H{"success": true, "accounts": accounts, "cached": false})
	}
}

// CreateAccountHandler opens an additional account for the caller
func CreateAccountHandler(reg *registry.Registry, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req CreateAccountRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		acc, err := reg.CreateAccount(c.Request.Context(), callerID(c), req.InitialBalance, req.Currency, req.Name)
		if err != nil {
			respondError(c, err)
			return
		}
		utils.InvalidateUser(c.Request.Context(), rdb, callerID(c)) // Invalidate account cache
		c.JSON(http.StatusCreated, gin.H{"success": true, "account": acc})
	}
}

// BalanceHandler returns the sum of the caller's account balances
func BalanceHandler(reg *registry.Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		total, err := reg.TotalBalance(c.Request.Context(), callerID(c))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "total_balance": total, "currency": domain.DefaultCurrency})
	}
}

// TransferHandler moves money from one of the caller's accounts
func TransferHandler(engine *transfer.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TransferRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		execute(c, engine, rdb, &transfer.AccountTransfer{
			FromAccount: req.FromAccount,
			ToAccount:   req.ToAccount,
			Amount:      req.Amount,
			Description: req.Description,
		}, snakeCase)
	}
}

// PaymentHandler pays a service from one of the caller's accounts
func PaymentHandler(engine *transfer.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PaymentRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		execute(c, engine, rdb, &transfer.Payment{FromAccount: req.Account, Service: req.Service, Amount: req.Amount}, snakeCase)
	}
}

// ServicesHandler returns the payment catalogue
func ServicesHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true, "services": Services})
	}
}

// historyResponse is one cached page of history
type historyResponse struct {
	Transactions []domain.Transaction `json:"transactions"` // List of transactions
	Page         int                  `json:"page"`         // Current page
	PageSize     int                  `json:"page_size"`    // Page size
	Total        int64                `json:"total"`        // Total transactions
	TotalPages   int                  `json:"total_pages"`  // Total pages
}

// TransactionsHandler returns the caller's history, newest first
func TransactionsHandler(engine *transfer.Engine, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()                                // Request context for Redis and DB
		page, pageSize := pageParams(c)                           // Pagination
		cacheKey := utils.HistoryKey(callerID(c), page, pageSize) // Redis cache key
		var cached historyResponse
		// Try to get from cache
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, historyBody(cached, true))
			return
		}
		result, err := engine.ListTransactions(ctx, callerID(c), page, pageSize)
		if err != nil {
			respondError(c, err)
			return
		}
		resp := pageToHistory(result)
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, utils.HistoryTTL) // Cache the page
		c.JSON(http.StatusOK, historyBody(resp, false))
	}
}

func pageToHistory(p *ledger.Page) historyResponse {
	return historyResponse{
		Transactions: p.Items,
		Page:         p.Page,
		PageSize:     p.PageSize,
		Total:        p.Total,
		TotalPages:   totalPages(p.Total, p.PageSize),
	}
}

func historyBody(h historyResponse, cached bool) gin.H {
	return gin.H{
		"success":      true,
		"transactions": h.Transactions, // List of transactions
		"page":         h.Page,         // Current page
		"page_size":    h.PageSize,     // Page size
		"total":        h.Total,        // Total transactions
		"total_pages":  h.TotalPages,   // Total pages
		"cached":       cached,         // Whether the page came from Redis
	}
}
