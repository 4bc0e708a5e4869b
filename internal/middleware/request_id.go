package middleware

import (
	"fbank/internal/utils" // Request id context helpers

	"github.com/gin-gonic/gin" // Gin web framework
	"github.com/google/uuid"   // Request ids
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

const requestIDKey = "requestID"

// RequestID tags every request with an id, reusing the caller's when it sent a sane one
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" || len(id) > 64 {
			id = uuid.NewString() // Generate a fresh id
		}
		c.Set(requestIDKey, id)
		c.Request = c.Request.WithContext(utils.WithRequestID(c.Request.Context(), id)) // Visible to services via ctx
		c.Writer.Header().Set(RequestIDHeader, id)
		c.Next()
	}
}

// GetRequestID returns the id assigned by RequestID
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
