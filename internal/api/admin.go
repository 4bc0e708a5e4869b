package api

import (
	"net/http" // HTTP status codes
	"strconv"  // String conversion
	"strings"  // String manipulation
	"time"     // Date filters

	"fbank/internal/domain" // Importing domain models
	"fbank/internal/ledger" // Transaction history
	"fbank/internal/utils"  // Utility functions

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"gorm.io/gorm"                 // GORM ORM library
)

// UserAdminResponse represents the user data returned to admin
type UserAdminResponse struct {
	ID        uint             `json:"id"`         // User ID
	Phone     string           `json:"phone"`      // Login
	Name      string           `json:"name"`       // Display name
	Role      string           `json:"role"`       // User role
	CreatedAt time.Time        `json:"created_at"` // Registration time
	Accounts  []domain.Account `json:"accounts"`   // Owned accounts
}

// adminUsersPage is one cached page of the user listing
type adminUsersPage struct {
	Users      []UserAdminResponse `json:"users"`       // List of users
	Page       int                 `json:"page"`        // Current page
	PageSize   int                 `json:"page_size"`   // Page size
	Total      int64               `json:"total"`       // Total number of users
	TotalPages int                 `json:"total_pages"` // Total pages
}

// ListUsersHandler returns all users with their accounts
func ListUsersHandler(db *gorm.DB, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()      // Request context for Redis and DB
		page, pageSize := pageParams(c) // Pagination
		cacheKey := "admin:users:page=" + strconv.Itoa(page) + ":size=" + strconv.Itoa(pageSize)
		var cached adminUsersPage
		// If cached data found, return it
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, adminUsersBody(cached, true))
			return
		}
		var total int64 // Total user count
		if err := db.WithContext(ctx).Model(&domain.User{}).Count(&total).Error; err != nil {
			respondError(c, domain.FromStore(err, "Users not found"))
			return
		}
		var users []domain.User // Slice to hold users
		// Preload Accounts relation, apply offset and limit for pagination
		err := db.WithContext(ctx).Preload("Accounts", func(q *gorm.DB) *gorm.DB {
			return q.Order("id ASC")
		}).Order("id ASC").Offset((page - 1) * pageSize).Limit(pageSize).Find(&users).Error
		if err != nil {
			respondError(c, domain.FromStore(err, "Users not found"))
			return
		}
		resp := adminUsersPage{
			Users:      make([]UserAdminResponse, len(users)),
			Page:       page,
			PageSize:   pageSize,
			Total:      total,
			TotalPages: totalPages(total, pageSize),
		}
		// Map users to response format
		for i, u := range users {
			resp.Users[i] = UserAdminResponse{
				ID:        u.ID,
				Phone:     u.Phone,
				Name:      u.Name,
				Role:      u.Role,
				CreatedAt: u.CreatedAt,
				Accounts:  u.Accounts,
			}
		}
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, utils.AdminListTTL) // Cache the response for future requests
		c.JSON(http.StatusOK, adminUsersBody(resp, false))
	}
}

func adminUsersBody(p adminUsersPage, cached bool) gin.H {
	return gin.H{
		"success":     true,
		"users":       p.Users,      // List of users
		"page":        p.Page,       // Current page
		"page_size":   p.PageSize,   // Page size
		"total":       p.Total,      // Total number of users
		"total_pages": p.TotalPages, // Total pages
		"cached":      cached,       // Indicate whether the response is from cache
	}
}

// parseDate accepts RFC3339 or a bare date
func parseDate(s string, endOfDay bool) (*time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return nil, err
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond) // Bare "to" dates include the whole day
	}
	return &t, nil
}

// ListTransactionsHandler returns all transactions, with optional filtering by user, type, or date
func ListTransactionsHandler(l *ledger.Ledger, rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		page, pageSize := pageParams(c)
		filter := ledger.Filter{Page: page, PageSize: pageSize}
		if userID := c.Query("user_id"); userID != "" {
			v, err := strconv.ParseUint(userID, 10, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid user_id"})
				return
			}
			filter.UserID = uint(v) // Filter by user ID
		}
		filter.Type = domain.TxType(c.Query("type")) // Filter by transaction type
		if from := c.Query("from"); from != "" {
			t, err := parseDate(from, false)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid from date"})
				return
			}
			filter.From = t // Filter by start date
		}
		if to := c.Query("to"); to != "" {
			t, err := parseDate(to, true)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid to date"})
				return
			}
			filter.To = t // Filter by end date
		}
		// Build cache key from all query params
		var keyParts []string // Parts of the cache key
		for _, k := range []string{"user_id", "type", "from", "to"} {
			keyParts = append(keyParts, k+"="+c.Query(k)) // Append key-value pair
		}
		keyParts = append(keyParts, "page="+strconv.Itoa(page), "page_size="+strconv.Itoa(pageSize))
		cacheKey := "admin:txs:" + strings.Join(keyParts, ":")
		var cached historyResponse
		// If cached data found, return it
		if found, err := utils.GetCache(ctx, rdb, cacheKey, &cached); err == nil && found {
			c.JSON(http.StatusOK, historyBody(cached, true))
			return
		}
		result, err := l.ListAll(ctx, filter)
		if err != nil {
			respondError(c, err)
			return
		}
		resp := pageToHistory(result)
		_ = utils.SetCache(ctx, rdb, cacheKey, resp, utils.AdminListTTL) // Cache the response for future requests
		c.JSON(http.StatusOK, historyBody(resp, false))
	}
}
