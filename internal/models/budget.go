package models

import (
	"github.com/shopspring/decimal"
)

// Budget is a monthly spending limit for one category. A user has at most one
// budget per (category, month, year); writes go through an upsert on that key.
type Budget struct {
	Base
	UserID     string          `gorm:"type:uuid;not null;uniqueIndex:idx_budgets_key,priority:1" json:"user_id"`
	CategoryID string          `gorm:"type:uuid;not null;uniqueIndex:idx_budgets_key,priority:2" json:"category_id"`
	Month      int             `gorm:"not null;uniqueIndex:idx_budgets_key,priority:3" json:"month"`
	Year       int             `gorm:"not null;uniqueIndex:idx_budgets_key,priority:4" json:"year"`
	Amount     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}
