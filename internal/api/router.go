package api

import (
	"time" // Token lifetime

	"fbank/internal/identity"   // Users, PINs and codes
	"fbank/internal/ledger"     // Transaction history
	"fbank/internal/middleware" // Custom package for middleware
	"fbank/internal/registry"   // Accounts and cards
	"fbank/internal/transfer"   // Money movement

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// Deps are the collaborators the HTTP layer is built from
type Deps struct {
	DB                *gorm.DB            // Primary store
	Redis             *redis.Client       // Cache, rate limiter and 2FA codes
	Users             *identity.Store     // Registration and credentials
	Codes             *identity.CodeStore // Second-factor codes
	Registry          *registry.Registry  // Accounts and cards
	Ledger            *ledger.Ledger      // Transaction trail
	Engine            *transfer.Engine    // Money movement
	JWTSecret         string              // HMAC key for access tokens
	JWTTTL            time.Duration       // Access token lifetime
	TransferRateLimit int                 // Money-moving requests per user per minute, zero disables
	ExposeCodes       bool                // Echo 2FA codes in the response outside production
}

// NewRouter registers every route on a fresh Gin engine
func NewRouter(d Deps) *gin.Engine {
	r := gin.Default()            // Gin router instance with logger and recovery
	r.Use(middleware.RequestID()) // Every request carries an id

	r.GET("/health", HealthHandler(d.DB, d.Redis)) // Liveness of DB and Redis

	// Auth routes
	auth := r.Group("/api/auth")
	auth.POST("/register", RegisterHandler(d.Users, d.JWTSecret, d.JWTTTL))        // Registration endpoint
	auth.POST("/login", LoginHandler(d.Users, d.JWTSecret, d.JWTTTL))              // Login endpoint
	auth.POST("/2fa/request", RequestCodeHandler(d.Users, d.Codes, d.ExposeCodes)) // Issue a confirmation code
	auth.POST("/verify-2fa", Verify2FAHandler(d.Users, d.Codes, d.JWTSecret, d.JWTTTL))

	jwt := middleware.JWTAuthMiddleware(d.JWTSecret, d.Users)
	auth.POST("/save-pin", jwt, SavePINHandler(d.Users))     // Store the caller's PIN
	auth.POST("/verify-pin", jwt, VerifyPINHandler(d.Users)) // Check the caller's PIN

	limit := middleware.RateLimit(d.Redis, "transfer", d.TransferRateLimit, time.Minute)

	// Banking routes (protected by JWT)
	api := r.Group("/api")
	api.GET("/services", ServicesHandler()) // Public catalogue
	api.Use(jwt)
	api.GET("/accounts", ListAccountsHandler(d.Registry, d.Redis))
	api.POST("/accounts", CreateAccountHandler(d.Registry, d.Redis))
	api.GET("/balance", BalanceHandler(d.Registry))
	api.POST("/transfer", limit, TransferHandler(d.Engine, d.Redis))
	api.GET("/transactions", TransactionsHandler(d.Engine, d.Redis))
	api.POST("/payment", limit, PaymentHandler(d.Engine, d.Redis))
	api.POST("/users/by-phone", UserByPhoneHandler(d.Users))

	// Card routes
	cards := api.Group("/cards")
	cards.GET("", ListCardsHandler(d.Registry, d.Redis))
	cards.POST("/create", CreateCardHandler(d.Registry, d.Redis))
	cards.POST("/deposit", DepositHandler(d.Engine, d.Redis))
	cards.GET("/check", CheckCardsHandler(d.Registry))
	cards.POST("/transfer", limit, CardTransferHandler(d.Engine, d.Redis))
	cards.POST("/transfer-by-phone", limit, PhoneTransferHandler(d.Engine, d.Redis))
	cards.POST("/transfer-to-other-bank", limit, OtherBankTransferHandler(d.Engine, d.Redis))
	cards.POST("/international-transfer", limit, InternationalTransferHandler(d.Engine, d.Redis))

	// Admin routes (protected, admin only)
	admin := r.Group("/admin")
	admin.Use(jwt, middleware.AdminOnlyMiddleware(d.DB))
	admin.GET("/users", ListUsersHandler(d.DB, d.Redis))                   // List users endpoint
	admin.GET("/transactions", ListTransactionsHandler(d.Ledger, d.Redis)) // List transactions endpoint

	return r
}
