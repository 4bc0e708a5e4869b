package middleware

import (
	"fmt"      // Key formatting
	"net/http" // HTTP status codes
	"strconv"  // Header values
	"time"     // Window length

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logging library
)

// fixedWindow counts hits in the current window and starts the window on the first hit.
// Returns the count and the remaining window in milliseconds.
var fixedWindow = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
if ttl < 0 then
  ttl = tonumber(ARGV[1])
end
return {current, ttl}
`)

// RateLimit allows limit requests per window for each authenticated user on the routes it guards.
// When Redis is unreachable requests are let through.
func RateLimit(rdb *redis.Client, name string, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || limit <= 0 {
			c.Next() // Limiting disabled
			return
		}
		subject := c.ClientIP() // Fall back to the client address
		if id, ok := c.Get("userID"); ok {
			subject = fmt.Sprintf("user:%v", id)
		}
		key := fmt.Sprintf("ratelimit:%s:%s", name, subject)
		res, err := fixedWindow.Run(c.Request.Context(), rdb, []string{key}, window.Milliseconds()).Int64Slice()
		if err != nil || len(res) != 2 {
			logrus.WithError(err).WithField("request_id", GetRequestID(c)).Warn("Rate limiter unavailable")
			c.Next() // Fail open
			return
		}
		count, ttl := res[0], res[1]
		remaining := int64(limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))
		if count > int64(limit) {
			retry := (ttl + 999) / 1000 // Round up to whole seconds
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retry, 10))
			abort(c, http.StatusTooManyRequests, "Too many requests, try again later")
			return
		}
		c.Next()
	}
}
