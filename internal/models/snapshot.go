package models

// Snapshot is the full engine state as one persistable unit. The in-memory
// store is the source of truth; a Snapshot is what the persistence
// collaborator loads at startup and saves (fire-and-forget) after mutations.
type Snapshot struct {
	Accounts     []Account             `json:"accounts"`
	Transactions []Transaction         `json:"transactions"`
	Recurring    []RecurringDefinition `json:"recurring"`
	Instances    []GeneratedInstance   `json:"instances"`
}
