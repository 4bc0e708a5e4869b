package api

import (
	"errors"   // Error inspection
	"net/http" // HTTP status codes
	"strconv"  // Query parsing

	"fbank/internal/domain"     // Error taxonomy
	"fbank/internal/middleware" // Request id lookup

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// statusFor maps an error kind to its HTTP status
func statusFor(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindUnauthorized:
		return http.StatusUnauthorized
	case domain.KindInvalidInput, domain.KindInsufficientFunds:
		return http.StatusBadRequest
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindStoreUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the failure body for err. Causes are logged, never returned.
func respondError(c *gin.Context, err error) {
	var de *domain.Error
	if !errors.As(err, &de) {
		de = &domain.Error{Kind: domain.KindInternal, Message: "Internal error", Err: err} // Untyped means unexpected
	}
	status := statusFor(de.Kind)
	if status >= http.StatusInternalServerError {
		logrus.WithFields(logrus.Fields{
			"request_id": middleware.GetRequestID(c), // Correlation id
			"path":       c.FullPath(),               // Route
			"kind":       de.Kind,                    // Failure class
		}).WithError(err).Error("Request failed")
	}
	c.JSON(status, gin.H{"success": false, "message": de.Message})
}

// badRequest rejects a malformed body
func badRequest(c *gin.Context) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request"})
}

// callerID returns the user id stored by the JWT middleware
func callerID(c *gin.Context) uint {
	return c.GetUint("userID")
}

// pageParams reads page and page_size, falling back to 1 and 20
func pageParams(c *gin.Context) (int, int) {
	page := 1      // Default page number
	pageSize := 20 // Default page size
	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v // Set page if valid
		}
	}
	// Check and set page size within limits
	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v // Set page size
		}
	}
	return page, pageSize
}

// totalPages is the number of pages needed for total rows
func totalPages(total int64, pageSize int) int {
	return (int(total) + pageSize - 1) / pageSize
}
