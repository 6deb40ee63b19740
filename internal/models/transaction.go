package models

import "time"

// TransactionType represents the type of transaction
type TransactionType string

const (
	TransactionTypeIncome   TransactionType = "income"
	TransactionTypeExpense  TransactionType = "expense"
	TransactionTypeTransfer TransactionType = "transfer"
)

// Transaction represents a ledger movement. It only affects account
// balances once Approved is true. Amounts are integer minor units (cents).
type Transaction struct {
	ID        string          `gorm:"type:uuid;primaryKey" json:"id"`
	Type      TransactionType `gorm:"not null" json:"type"`
	Amount    int64           `gorm:"type:bigint;not null" json:"amount"`
	AccountID string          `gorm:"type:uuid;not null" json:"account_id"`
	Date      time.Time       `gorm:"not null" json:"date"`
	Category  string          `json:"category,omitempty"`
	Approved  bool            `gorm:"not null;default:false" json:"approved"`
	CreatedAt time.Time       `json:"created_at"`

	// For transfers
	ToAccountID *string `gorm:"type:uuid" json:"to_account_id,omitempty"`

	// Link back to the originating recurring definition when materialized
	// from a schedule. Manually created transactions have IsRecurring=false.
	IsRecurring bool    `gorm:"not null;default:false" json:"is_recurring"`
	RecurringID *string `gorm:"type:uuid" json:"recurring_id,omitempty"`

	// Virtual marks a transaction synthesized by the expected-view
	// projection from a pending instance. Virtual transactions are never
	// stored and never touch persisted balances.
	Virtual bool `gorm:"-" json:"virtual,omitempty"`
}
