package models

import "time"

// Frequency represents how often a recurring definition fires.
type Frequency string

const (
	FrequencyWeekly  Frequency = "weekly"
	FrequencyMonthly Frequency = "monthly"
)

// RecurringDefinition is a template describing a repeating cash movement.
// It is not itself a ledger entry: reconciliation expands it into
// GeneratedInstance rows, which materialize Transactions on approval.
//
// DayOfWeek (0=Sunday .. 6=Saturday) applies to weekly definitions only;
// DayOfMonth (1-31) to monthly ones. A DayOfMonth beyond the length of a
// given month clamps to that month's last day.
type RecurringDefinition struct {
	ID          string          `gorm:"type:uuid;primaryKey" json:"id"`
	Type        TransactionType `gorm:"not null" json:"type"`
	Amount      int64           `gorm:"type:bigint;not null" json:"amount"`
	AccountID   string          `gorm:"type:uuid;not null" json:"account_id"`
	ToAccountID *string         `gorm:"type:uuid" json:"to_account_id,omitempty"`
	Frequency   Frequency       `gorm:"not null" json:"frequency"`
	StartDate   time.Time       `gorm:"not null" json:"start_date"`
	EndDate     *time.Time      `json:"end_date,omitempty"`
	DayOfWeek   *int            `json:"day_of_week,omitempty"`
	DayOfMonth  *int            `json:"day_of_month,omitempty"`
	Category    string          `json:"category,omitempty"`
	AutoApprove bool            `gorm:"not null;default:false" json:"auto_approve"`
	CreatedAt   time.Time       `json:"created_at"`
}
