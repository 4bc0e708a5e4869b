package main

import (
	"context"   // context package is needed for Redis operations
	"errors"    // Server shutdown check
	"net/http"  // HTTP server
	"os/signal" // Shutdown signals
	"syscall"   // SIGTERM
	"time"      // Shutdown deadline

	"fbank/internal/api"      // Custom package for API handlers
	"fbank/internal/config"   // Custom package for configuration
	"fbank/internal/db"       // Custom package for the database connection
	"fbank/internal/identity" // Users, PINs and 2FA codes
	"fbank/internal/ledger"   // Transaction trail
	"fbank/internal/registry" // Accounts and cards
	"fbank/internal/transfer" // Money movement
	"fbank/internal/vault"    // Card number encryption

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/redis/go-redis/v9"  // Redis client
	"github.com/shopspring/decimal" // Fixed-point money
	"github.com/sirupsen/logrus"    // Logrus for structured logging
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration
	if err := cfg.Validate(); err != nil {
		logrus.Fatalf("invalid configuration: %v", err)
	}

	// Setup logger
	if cfg.IsProd {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logrus.SetLevel(level)
	}

	decimal.MarshalJSONWithoutQuotes = true // Amounts go out as JSON numbers

	// Connect to the database
	gdb, err := db.Open(cfg.DSN())
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	cardVault, err := vault.New(cfg.CardEncryptionKey)
	if err != nil {
		logrus.Fatalf("failed to set up card vault: %v", err)
	}
	reg := registry.New(gdb, cardVault)
	trail := ledger.New(gdb)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	r := api.NewRouter(api.Deps{
		DB:                gdb,
		Redis:             redisClient,
		Users:             identity.NewStore(gdb, reg),
		Codes:             identity.NewCodeStore(redisClient, cfg.TwoFACodeTTL),
		Registry:          reg,
		Ledger:            trail,
		Engine:            transfer.NewEngine(gdb, cardVault, trail),
		JWTSecret:         cfg.JWTSecret,
		JWTTTL:            cfg.JWTTTL,
		TransferRateLimit: cfg.TransferRateLimit,
		ExposeCodes:       !cfg.IsProd, // No SMS gateway outside production
	})

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logrus.Info("Server running on " + cfg.AppPort) // Log server start
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.Fatalf("server failed: %v", err)
		}
	}()

	<-ctx.Done()
	logrus.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logrus.Errorf("graceful shutdown failed: %v", err)
	}
	_ = redisClient.Close()
	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
