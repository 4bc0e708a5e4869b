package utils

import (
	"errors" // Token errors
	"time"   // Time for token expiration

	"github.com/golang-jwt/jwt/v5" // JWT library
)

// JWT Claims
type Claims struct {
	UserID               uint   `json:"user_id"` // User ID at issue time
	Login                string `json:"login"`   // Normalized phone or email, resolved again on every request
	jwt.RegisteredClaims        // Standard JWT claims
}

// ErrEmptySecret is returned when tokens are requested without a signing key
var ErrEmptySecret = errors.New("jwt secret is empty")

// GenerateJWT creates a JWT token for a given user
func GenerateJWT(userID uint, login, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", ErrEmptySecret // Refuse to sign with an empty key
	}
	now := time.Now()
	// Set token claims
	claims := Claims{
		UserID: userID, // Custom claim for user ID
		Login:  login,  // Custom claim for login
		// Standard claims
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   login,                            // Who the token is for
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)), // Token expires after ttl
			IssuedAt:  jwt.NewNumericDate(now),          // Issued at current time
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims) // Create token with claims
	return token.SignedString([]byte(secret))                  // Sign the token with the secret
}

// ParseJWT parses and validates a JWT token string
func ParseJWT(tokenStr, secret string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (any, error) {
		return []byte(secret), nil // Return the secret key for validation
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})) // Reject alg switching
	// Check for parsing errors
	if err != nil {
		return nil, err // Return error if parsing fails
	}
	// Validate token and extract claims
	if claims, ok := token.Claims.(*Claims); ok && token.Valid && claims.Login != "" {
		return claims, nil // Return claims if valid
	}
	// Return error if token is invalid
	return nil, jwt.ErrTokenInvalidClaims
}
