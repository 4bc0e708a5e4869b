package api

import (
	"context"  // Probe deadline
	"net/http" // HTTP status codes
	"time"     // Probe timeout

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

const healthTimeout = 2 * time.Second // Upper bound on each dependency probe

// HealthHandler reports whether the database and Redis answer
func HealthHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
		defer cancel()

		checks := gin.H{"database": "ok", "redis": "ok"}
		healthy := true
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(ctx) != nil {
			checks["database"] = "unavailable"
			healthy = false
		}
		if rdb == nil || rdb.Ping(ctx).Err() != nil {
			checks["redis"] = "unavailable"
			healthy = false
		}
		if !healthy {
			c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "status": "degraded", "checks": checks})
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "status": "ok", "checks": checks})
	}
}
