package api

import (
	"net/http" // HTTP status codes
	"time"     // Token lifetime

	"fbank/internal/domain"     // Importing domain models
	"fbank/internal/identity"   // Credential store
	"fbank/internal/middleware" // Request id lookup
	"fbank/internal/utils"      // Utility functions

	"github.com/gin-gonic/gin"   // Gin web framework
	"github.com/sirupsen/logrus" // Logging library
)

// RegisterRequest is the registration body. Either phone or email identifies the user.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`     // Display name
	Phone    string `json:"phone"`                       // Phone number, any common format
	Email    string `json:"email"`                       // Email, used when phone is empty
	Password string `json:"password" binding:"required"` // Password must be provided
}

// LoginRequest is the login body
type LoginRequest struct {
	Phone    string `json:"phone"`                       // Phone number
	Email    string `json:"email"`                       // Email or phone, kept for older clients
	Password string `json:"password" binding:"required"` // Password must be provided
}

// VerifyCodeRequest confirms a second-factor code
type VerifyCodeRequest struct {
	Phone string `json:"phone"`                   // Phone number
	Email string `json:"email"`                   // Email
	Code  string `json:"code" binding:"required"` // Code received by the user
}

// PINRequest carries a 4-digit PIN
type PINRequest struct {
	PIN string `json:"pin" binding:"required"` // PIN digits
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID    uint   `json:"id"`    // User ID
	Name  string `json:"name"`  // Display name
	Phone string `json:"phone"` // Normalized phone or email
}

// AuthResponse is returned on successful sign-in
type AuthResponse struct {
	Success bool         `json:"success"` // Always true
	Token   string       `json:"token"`   // JWT token
	User    UserResponse `json:"user"`    // Signed-in user
	Message string       `json:"message"` // Human-readable status
}

func loginOf(phone, email string) string {
	if phone != "" {
		return phone
	}
	return email
}

func userResponse(u *domain.User) UserResponse {
	return UserResponse{ID: u.ID, Name: u.Name, Phone: u.Phone}
}

// issueToken signs a token for user and writes the sign-in response with status
func issueToken(c *gin.Context, status int, user *domain.User, secret string, ttl time.Duration, message string) {
	token, err := utils.GenerateJWT(user.ID, user.Phone, secret, ttl) // Generate JWT token
	if err != nil {
		respondError(c, domain.Internal(err))
		return
	}
	logrus.WithFields(logrus.Fields{
		"user_id":    user.ID,                    // Signed-in user
		"request_id": middleware.GetRequestID(c), // Correlation id
	}).Info("User signed in")
	c.JSON(status, AuthResponse{Success: true, Token: token, User: userResponse(user), Message: message})
}

// RegisterHandler creates a user together with their main account and signs them in
func RegisterHandler(users *identity.Store, secret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req RegisterRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c) // If binding fails, return bad request
			return
		}
		user, err := users.Register(c.Request.Context(), req.Name, loginOf(req.Phone, req.Email), req.Password)
		if err != nil {
			respondError(c, err) // Validation, duplicate login or store failure
			return
		}
		issueToken(c, http.StatusCreated, user, secret, ttl, "User registered successfully")
	}
}

// LoginHandler authenticates a user and returns a JWT token
func LoginHandler(users *identity.Store, secret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil || loginOf(req.Phone, req.Email) == "" {
			badRequest(c) // If binding fails, return bad request
			return
		}
		user, err := users.Authenticate(c.Request.Context(), loginOf(req.Phone, req.Email), req.Password)
		if err != nil {
			respondError(c, err) // Same answer for unknown login and wrong password
			return
		}
		issueToken(c, http.StatusOK, user, secret, ttl, "Signed in")
	}
}

// RequestCodeHandler checks the password and issues a second-factor code.
// With expose set the code is echoed back, for environments without an SMS gateway.
func RequestCodeHandler(users *identity.Store, codes *identity.CodeStore, expose bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req LoginRequest // Same body as login
		if err := c.ShouldBindJSON(&req); err != nil || loginOf(req.Phone, req.Email) == "" {
			badRequest(c)
			return
		}
		user, err := users.Authenticate(c.Request.Context(), loginOf(req.Phone, req.Email), req.Password)
		if err != nil {
			respondError(c, err)
			return
		}
		code, err := codes.Issue(c.Request.Context(), user.Phone)
		if err != nil {
			respondError(c, err)
			return
		}
		logrus.WithFields(logrus.Fields{
			"user_id":    user.ID,                    // Code owner
			"request_id": middleware.GetRequestID(c), // Correlation id
		}).Info("Confirmation code issued")
		resp := gin.H{"success": true, "message": "Confirmation code sent"}
		if expose {
			resp["code"] = code
		}
		c.JSON(http.StatusOK, resp)
	}
}

// Verify2FAHandler exchanges a valid second-factor code for a token
func Verify2FAHandler(users *identity.Store, codes *identity.CodeStore, secret string, ttl time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req VerifyCodeRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		login, err := identity.NormalizeLogin(loginOf(req.Phone, req.Email))
		if err != nil {
			respondError(c, domain.Unauthorized("Invalid confirmation code"))
			return
		}
		if err := codes.Verify(c.Request.Context(), login, req.Code); err != nil {
			respondError(c, err) // Wrong, used or expired code
			return
		}
		id, err := users.ResolveCallerID(c.Request.Context(), login)
		if err != nil {
			respondError(c, domain.Unauthorized("User not found"))
			return
		}
		user, err := users.FindByID(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		issueToken(c, http.StatusOK, user, secret, ttl, "Signed in")
	}
}

// SavePINHandler stores the caller's PIN
func SavePINHandler(users *identity.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PINRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		if err := users.SavePIN(c.Request.Context(), callerID(c), req.PIN); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "PIN saved"})
	}
}

// VerifyPINHandler checks the caller's PIN
func VerifyPINHandler(users *identity.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req PINRequest // Bind JSON request to struct
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c)
			return
		}
		if err := users.VerifyPIN(c.Request.Context(), callerID(c), req.PIN); err != nil {
			respondError(c, err) // Not set, or wrong
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "PIN is correct"})
	}
}
