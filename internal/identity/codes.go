package identity

import (
	"context"     // Context for Redis operations
	"crypto/rand" // Code generation
	"errors"      // redis.Nil detection
	"fmt"         // Zero padded formatting
	"math/big"    // Uniform random range
	"time"        // Code lifetime

	"fbank/internal/domain" // Error taxonomy

	"github.com/redis/go-redis/v9" // Redis client
)

// CodeStore keeps short-lived second-factor codes in Redis so that every
// server instance sees the same codes and they expire on their own.
type CodeStore struct {
	rdb    *redis.Client
	ttl    time.Duration
	prefix string
}

// NewCodeStore builds a CodeStore with the given code lifetime.
func NewCodeStore(rdb *redis.Client, ttl time.Duration) *CodeStore {
	return &CodeStore{rdb: rdb, ttl: ttl, prefix: "2fa:"}
}

// Issue generates and stores a 6-digit code for login, replacing any previous one.
func (c *CodeStore) Issue(ctx context.Context, login string) (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", domain.Internal(err)
	}
	code := fmt.Sprintf("%06d", n.Int64())
	if err := c.rdb.Set(ctx, c.prefix+login, code, c.ttl).Err(); err != nil {
		return "", &domain.Error{Kind: domain.KindStoreUnavailable, Message: "Service temporarily unavailable", Err: err}
	}
	return code, nil
}

// Verify consumes the code for login. A code can be used once.
func (c *CodeStore) Verify(ctx context.Context, login, code string) error {
	stored, err := c.rdb.GetDel(ctx, c.prefix+login).Result() // Read and burn in one round trip
	if errors.Is(err, redis.Nil) {
		return domain.Unauthorized("Invalid confirmation code")
	}
	if err != nil {
		return &domain.Error{Kind: domain.KindStoreUnavailable, Message: "Service temporarily unavailable", Err: err}
	}
	if stored != code {
		return domain.Unauthorized("Invalid confirmation code")
	}
	return nil
}
