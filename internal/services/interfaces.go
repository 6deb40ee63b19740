package services

import (
	"time"

	"moneta/internal/models"
	"moneta/internal/pagination"
)

// AccountUpdateFields holds the optional fields accepted by UpdateAccount.
// Nil pointers leave the current value untouched.
type AccountUpdateFields struct {
	Name            *string
	Type            *models.AccountType
	StartingBalance *int64
}

// AccountServicer defines the contract for account-related business logic.
type AccountServicer interface {
	CreateAccount(name string, accountType models.AccountType, startingBalance int64) (*models.Account, error)
	GetAccounts(page pagination.PageRequest) (*pagination.PageResponse[models.Account], error)
	GetAccountByID(accountID string) (*models.Account, error)
	UpdateAccount(accountID string, fields AccountUpdateFields) (*models.Account, error)
	DeleteAccount(accountID string) error
}

// TransactionInput carries the caller-supplied fields of a transaction.
type TransactionInput struct {
	Type        models.TransactionType
	Amount      int64
	AccountID   string
	ToAccountID *string
	Date        time.Time
	Category    string
	Approved    bool
}

// TransactionFilter holds optional filter parameters for listing transactions.
type TransactionFilter struct {
	FromDate *time.Time
	ToDate   *time.Time
	Type     *models.TransactionType
}

// TransactionServicer defines the contract for transaction-related business logic.
type TransactionServicer interface {
	CreateTransaction(input TransactionInput) (*models.Transaction, error)
	GetTransactions(page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetAccountTransactions(accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error)
	GetTransactionByID(transactionID string) (*models.Transaction, error)
	UpdateTransaction(transactionID string, input TransactionInput) (*models.Transaction, error)
	ApproveTransaction(transactionID string) (*models.Transaction, error)
	UnapproveTransaction(transactionID string) (*models.Transaction, error)
	DeleteTransaction(transactionID string) error
}

// RecurringInput carries the caller-supplied fields of a recurring definition.
type RecurringInput struct {
	Type        models.TransactionType
	Amount      int64
	AccountID   string
	ToAccountID *string
	Frequency   models.Frequency
	StartDate   time.Time
	EndDate     *time.Time
	DayOfWeek   *int
	DayOfMonth  *int
	Category    string
	AutoApprove bool
}

// BulkApproveResult reports the outcome of approving one instance within a
// bulk operation. A failure on one id never blocks the others.
type BulkApproveResult struct {
	InstanceID string `json:"instance_id"`
	OK         bool   `json:"ok"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message,omitempty"`
}

// RecurringServicer defines the contract for recurring definitions, the
// reconciliation engine, and the generated-instance tracker.
type RecurringServicer interface {
	CreateDefinition(input RecurringInput) (*models.RecurringDefinition, error)
	GetDefinitions(page pagination.PageRequest) (*pagination.PageResponse[models.RecurringDefinition], error)
	GetDefinitionByID(recurringID string) (*models.RecurringDefinition, error)
	UpdateDefinition(recurringID string, input RecurringInput) (*models.RecurringDefinition, error)
	DeleteDefinition(recurringID string) error

	// Reconcile regenerates instances for every definition up to
	// now + the configured horizon. Safe to re-run arbitrarily often.
	Reconcile(now time.Time) error
	// ReconcileWindow is Reconcile with an explicit horizon.
	ReconcileWindow(now, horizon time.Time) error

	GetInstances(pendingOnly bool, page pagination.PageRequest) (*pagination.PageResponse[models.GeneratedInstance], error)
	ApproveInstance(instanceID string) (*models.GeneratedInstance, error)
	SkipInstance(instanceID string) (*models.GeneratedInstance, error)
	BulkApprove(instanceIDs []string) []BulkApproveResult
}

// ViewMode selects between the forward-looking and confirmed projections.
type ViewMode string

const (
	ViewModeExpected ViewMode = "expected"
	ViewModeActual   ViewMode = "actual"
)

// ProjectionServicer defines the contract for the view projector.
type ProjectionServicer interface {
	Project(mode ViewMode) ([]models.Transaction, error)
	AccountBalances(mode ViewMode) (map[string]int64, error)
}
