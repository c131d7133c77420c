package models

import (
	"time"

	"github.com/shopspring/decimal"

	"jizhang/internal/analytics"
)

// TransactionType represents the direction of a transaction
type TransactionType string

const (
	TransactionTypeExpense TransactionType = "EXPENSE"
	TransactionTypeIncome  TransactionType = "INCOME"
)

// Transaction is a single income or expense entry. Rows are never edited,
// only created and deleted by their owner.
type Transaction struct {
	Base
	UserID     string          `gorm:"type:uuid;not null;index:idx_transactions_user_date,priority:1" json:"user_id"`
	CategoryID string          `gorm:"type:uuid;not null;index" json:"category_id"`
	Type       TransactionType `gorm:"not null" json:"type"`
	Amount     decimal.Decimal `gorm:"type:numeric(14,2);not null" json:"amount"`
	Date       time.Time       `gorm:"not null;index:idx_transactions_user_date,priority:2" json:"date"`
	Note       *string         `json:"note"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// Record converts the row into the aggregation engine's representation.
func (t Transaction) Record() analytics.Record {
	return analytics.Record{
		ID:         t.ID,
		UserID:     t.UserID,
		Type:       analytics.Type(t.Type),
		Amount:     t.Amount,
		Date:       t.Date,
		CategoryID: t.CategoryID,
		Note:       t.Note,
	}
}
