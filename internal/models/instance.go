package models

import "time"

// GeneratedInstance tracks one due-date occurrence of a recurring
// definition. Exactly one instance exists per (RecurringID, DueDate) pair.
//
// Lifecycle: pending (approved=false, skipped=false) -> approved or
// skipped; both are terminal. TransactionID is pre-allocated at creation
// so approval can materialize a Transaction with a stable id without a
// second generation step.
type GeneratedInstance struct {
	ID            string    `gorm:"type:uuid;primaryKey" json:"id"`
	RecurringID   string    `gorm:"type:uuid;not null;index:idx_instance_recurring" json:"recurring_id"`
	TransactionID string    `gorm:"type:uuid;not null" json:"transaction_id"`
	DueDate       time.Time `gorm:"not null" json:"due_date"`
	Approved      bool      `gorm:"not null;default:false" json:"approved"`
	Skipped       bool      `gorm:"not null;default:false" json:"skipped"`
}

// Pending reports whether the instance still awaits a user decision.
func (i *GeneratedInstance) Pending() bool {
	return !i.Approved && !i.Skipped
}
