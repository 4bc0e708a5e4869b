package utils

import (
	"context"       // Context for Redis operations
	"encoding/json" // JSON encoding/decoding
	"fmt"           // Key formatting
	"time"          // Time durations

	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// Cache lifetimes
const (
	UserDataTTL    = 5 * time.Minute  // Accounts and cards of one user
	HistoryTTL     = 2 * time.Minute  // One page of transaction history
	AdminListTTL   = 30 * time.Second // Admin listings
	invalidateScan = 100              // SCAN batch size
)

// AccountsKey is the cache key of a user's accounts
func AccountsKey(userID uint) string { return fmt.Sprintf("accounts:user:%d", userID) }

// CardsKey is the cache key of a user's cards
func CardsKey(userID uint) string { return fmt.Sprintf("cards:user:%d", userID) }

// HistoryKey is the cache key of one page of a user's history
func HistoryKey(userID uint, page, size int) string {
	return fmt.Sprintf("txhistory:user:%d:page:%d:size:%d", userID, page, size)
}

// GetCache retrieves a value from Redis and unmarshals it into dest
func GetCache(ctx context.Context, rdb *redis.Client, key string, dest any) (bool, error) {
	val, err := rdb.Get(ctx, key).Result() // Get value from Redis
	if err == redis.Nil {
		return false, nil // Key does not exist
	} else if err != nil {
		return false, err // Other Redis error
	}
	return true, json.Unmarshal([]byte(val), dest) // Unmarshal JSON into dest
}

// SetCache sets a value in Redis with a specified TTL
func SetCache(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value) // Marshal value to JSON
	if err != nil {
		return err // Return error if marshaling fails
	}
	return rdb.Set(ctx, key, b, ttl).Err() // Set value in Redis with TTL
}

// DeleteCache deletes keys from Redis
func DeleteCache(ctx context.Context, rdb *redis.Client, keys ...string) error {
	if len(keys) == 0 {
		return nil // Nothing to delete
	}
	return rdb.Del(ctx, keys...).Err() // Delete keys from Redis
}

// DeletePrefix deletes every key starting with prefix
func DeletePrefix(ctx context.Context, rdb *redis.Client, prefix string) error {
	iter := rdb.Scan(ctx, 0, prefix+"*", invalidateScan).Iterator() // Walk matching keys
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) >= invalidateScan {
			if err := DeleteCache(ctx, rdb, batch...); err != nil {
				return err
			}
			batch = batch[:0] // Reuse the buffer
		}
	}
	if err := iter.Err(); err != nil {
		return err // Scan failed
	}
	return DeleteCache(ctx, rdb, batch...)
}

// InvalidateUser drops every cached read of the given users after their balances changed.
// Failures are logged and swallowed: the cached data expires on its own.
func InvalidateUser(ctx context.Context, rdb *redis.Client, userIDs ...uint) {
	if rdb == nil {
		return // Caching disabled
	}
	for _, id := range userIDs {
		err := DeleteCache(ctx, rdb, AccountsKey(id), CardsKey(id))
		if err == nil {
			err = DeletePrefix(ctx, rdb, fmt.Sprintf("txhistory:user:%d:", id))
		}
		if err != nil {
			logrus.WithError(err).WithField("user_id", id).Warn("Cache invalidation failed")
		}
	}
}
