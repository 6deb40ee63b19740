package models

import "time"

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeOther      AccountType = "other"
)

// Account represents a financial account in the system.
//
// StartingBalance is the baseline before any transaction is applied.
// Balance is maintained incrementally and always reflects the "actual"
// view: StartingBalance plus the deltas of approved transactions.
type Account struct {
	ID              string      `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string      `gorm:"not null" json:"name"`
	Type            AccountType `gorm:"not null" json:"type"`
	StartingBalance int64       `gorm:"type:bigint;not null;default:0" json:"starting_balance"`
	Balance         int64       `gorm:"type:bigint;not null;default:0" json:"balance"`
	CreatedAt       time.Time   `json:"created_at"`
}
