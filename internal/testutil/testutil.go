// Package testutil provides store fixtures for package tests.
package testutil

import (
	"fmt"           // Failure messages
	"path/filepath" // Temp database path
	"testing"       // Test helpers

	"fbank/internal/db"     // Schema migration
	"fbank/internal/domain" // Domain models
	"fbank/internal/vault"  // Card number encryption

	"github.com/alicebob/miniredis/v2"    // In-process Redis
	"github.com/glebarez/sqlite"          // Pure Go SQLite driver for GORM
	"github.com/redis/go-redis/v9"        // Redis client
	"github.com/shopspring/decimal"       // Fixed-point money
	"github.com/stretchr/testify/require" // Assertions
	"gorm.io/gorm"                        // GORM ORM library
	"gorm.io/gorm/logger"                 // GORM logger
)

// VaultSecret is the card vault secret used by every fixture.
const VaultSecret = "test-card-secret"

// NewDB opens a migrated SQLite database in a temp dir. The pool holds a
// single connection, so concurrent store transactions queue behind each other.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()
	dsn := "file:" + filepath.Join(t.TempDir(), "bank.db") + "?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(gdb))
	return gdb
}

// NewRedis starts an in-process Redis and returns a client for it.
func NewRedis(t testing.TB) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return rdb, mr
}

// NewVault returns the fixture vault.
func NewVault(t testing.TB) *vault.Vault {
	t.Helper()
	v, err := vault.New(VaultSecret)
	require.NoError(t, err)
	return v
}

// Money parses a decimal literal.
func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// CreateUser inserts a user with a throwaway password hash.
func CreateUser(t testing.TB, gdb *gorm.DB, phone string) *domain.User {
	t.Helper()
	u := &domain.User{Phone: phone, Password: "x", Name: "User " + phone, Role: domain.RoleUser}
	require.NoError(t, gdb.Create(u).Error)
	return u
}

// CreateAccount inserts an account with the given number and balance.
func CreateAccount(t testing.TB, gdb *gorm.DB, userID uint, number, balance string) *domain.Account {
	t.Helper()
	a := &domain.Account{UserID: userID, Number: number, Balance: Money(balance), Currency: domain.DefaultCurrency, Name: domain.DefaultAccountLabel}
	require.NoError(t, gdb.Create(a).Error)
	return a
}

// CreateCard inserts an encrypted card with the given plaintext number and balance.
func CreateCard(t testing.TB, gdb *gorm.DB, v *vault.Vault, userID uint, number, balance string) *domain.Card {
	t.Helper()
	enc, err := v.Encode(number)
	require.NoError(t, err)
	fp := v.Fingerprint(number)
	c := &domain.Card{UserID: userID, Number: enc, Fingerprint: &fp, Type: "debit", Balance: Money(balance), Currency: domain.DefaultCurrency, Expiry: "01/30"}
	require.NoError(t, gdb.Create(c).Error)
	return c
}

// CardBalance reloads a card balance.
func CardBalance(t testing.TB, gdb *gorm.DB, id uint) decimal.Decimal {
	t.Helper()
	var c domain.Card
	require.NoError(t, gdb.First(&c, id).Error)
	return c.Balance
}

// AccountBalance reloads an account balance by number.
func AccountBalance(t testing.TB, gdb *gorm.DB, number string) decimal.Decimal {
	t.Helper()
	var a domain.Account
	require.NoError(t, gdb.Where("number = ?", number).First(&a).Error)
	return a.Balance
}

// CountTransactions counts ledger rows, optionally for one user.
func CountTransactions(t testing.TB, gdb *gorm.DB, userID ...uint) int64 {
	t.Helper()
	q := gdb.Model(&domain.Transaction{})
	if len(userID) > 0 {
		q = q.Where("user_id = ?", userID[0])
	}
	var n int64
	require.NoError(t, q.Count(&n).Error)
	return n
}

// RequireMoney asserts decimal equality with a readable failure.
func RequireMoney(t testing.TB, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, Money(want).Equal(got), fmt.Sprintf("want %s, got %s", want, got))
}
