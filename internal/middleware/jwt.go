package middleware

import (
	"context"  // Caller resolution
	"net/http" // HTTP status codes
	"strings"  // String manipulation

	"fbank/internal/domain" // Error taxonomy
	"fbank/internal/utils"  // JWT utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// CallerResolver maps the login carried by a token to a live user id
type CallerResolver interface {
	ResolveCallerID(ctx context.Context, login string) (uint, error)
}

// JWTAuthMiddleware validates JWT tokens and resolves the caller
func JWTAuthMiddleware(secret string, users CallerResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization") // Get Authorization header
		// Check if the Authorization header is present and properly formatted
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			// If not, abort with unauthorized status
			abort(c, http.StatusUnauthorized, "Missing or invalid Authorization header")
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ") // Extract the token string and parse it
		claims, err := utils.ParseJWT(tokenStr, secret)       // Parse the JWT token
		if err != nil {
			// If parsing fails, abort with unauthorized status
			abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		userID, err := users.ResolveCallerID(c.Request.Context(), claims.Login) // The user may have been removed since issue
		if err != nil {
			switch domain.KindOf(err) {
			case domain.KindNotFound, domain.KindInvalidInput:
				abort(c, http.StatusUnauthorized, "Invalid or expired token")
			case domain.KindStoreUnavailable:
				abort(c, http.StatusServiceUnavailable, "Service temporarily unavailable")
			default:
				logrus.WithError(err).WithField("request_id", GetRequestID(c)).Error("Caller resolution failed")
				abort(c, http.StatusInternalServerError, "Internal error")
			}
			return
		}
		c.Set("userID", userID)      // Store userID in context
		c.Set("login", claims.Login) // Store login in context
		c.Next()                     // Proceed to the next handler
	}
}

// abort stops the chain with the standard failure body
func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}
