package domain

import "time" // Timestamps

// User roles
const (
	RoleUser  = "user"  // Regular customer
	RoleAdmin = "admin" // Back-office operator
)

// User Model
type User struct {
	ID        uint      `gorm:"primaryKey" json:"id"`                                   // Primary key
	Phone     string    `gorm:"size:255;uniqueIndex;not null" json:"phone"`             // Normalized phone (7XXXXXXXXXX) or lower-cased email
	Password  string    `gorm:"not null" json:"-"`                                      // Hashed password
	PinHash   *string   `json:"-"`                                                      // Hashed PIN, nil until the user sets one
	Name      string    `gorm:"size:255;not null" json:"name"`                          // Display name
	Role      string    `gorm:"size:20;default:user" json:"role"`                       // Role: user or admin
	CreatedAt time.Time `json:"created_at"`                                             // Registration time
	Accounts  []Account `gorm:"constraint:OnDelete:CASCADE;" json:"accounts,omitempty"` // Owned accounts
	Cards     []Card    `gorm:"constraint:OnDelete:CASCADE;" json:"-"`                  // Owned cards
}

// HasPIN reports whether a PIN has been stored for the user
func (u *User) HasPIN() bool {
	return u.PinHash != nil && *u.PinHash != ""
}
