package models

import "time"

// User is an account holder. Transactions and budgets are scoped to a user.
type User struct {
	Base
	Email               string        `gorm:"uniqueIndex;not null" json:"email"`
	Password            string        `gorm:"not null" json:"-"`
	FirstName           string        `json:"first_name"`
	LastName            string        `json:"last_name"`
	IsActive            bool          `gorm:"default:true" json:"is_active"`
	RefreshTokenHash    string        `gorm:"size:64" json:"-"`
	LastLoginAt         *time.Time    `json:"last_login_at,omitempty"`
	FailedLoginAttempts int           `gorm:"not null;default:0" json:"-"`
	LockedUntil         *time.Time    `json:"-"`
	Budgets             []Budget      `gorm:"foreignKey:UserID" json:"budgets,omitempty"`
	Transactions        []Transaction `gorm:"foreignKey:UserID" json:"transactions,omitempty"`
}
