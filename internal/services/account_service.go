package services

import (
	"time"

	apperrors "moneta/internal/errors"
	"moneta/internal/logger"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/store"
	"moneta/internal/uuid"
)

// accountService handles account-related business logic.
type accountService struct {
	store *store.Store
}

// NewAccountService creates a new AccountServicer.
func NewAccountService(st *store.Store) AccountServicer {
	return &accountService{store: st}
}

// CreateAccount creates a new account. The starting balance is the baseline
// before any transaction; the incremental balance begins equal to it.
func (s *accountService) CreateAccount(name string, accountType models.AccountType, startingBalance int64) (*models.Account, error) {
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
	}

	switch accountType {
	case models.AccountTypeChecking, models.AccountTypeSavings, models.AccountTypeInvestment, models.AccountTypeOther:
	case "":
		accountType = models.AccountTypeOther
	default:
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown account type")
	}

	account := models.Account{
		ID:              uuid.New(),
		Name:            name,
		Type:            accountType,
		StartingBalance: startingBalance,
		Balance:         startingBalance,
		CreatedAt:       time.Now().UTC(),
	}

	err := s.store.Update(func(tx *store.Tx) error {
		tx.PutAccount(account)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetAccounts retrieves a paginated list of accounts.
func (s *accountService) GetAccounts(page pagination.PageRequest) (*pagination.PageResponse[models.Account], error) {
	page.Defaults()

	var accounts []models.Account
	_ = s.store.View(func(tx *store.Tx) error {
		accounts = tx.Accounts()
		return nil
	})

	result := pagination.Slice(accounts, page)
	return &result, nil
}

// GetAccountByID retrieves an account by id.
func (s *accountService) GetAccountByID(accountID string) (*models.Account, error) {
	var account models.Account
	err := s.store.View(func(tx *store.Tx) error {
		a, ok := tx.Account(accountID)
		if !ok {
			return apperrors.ErrAccountNotFound
		}
		account = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateAccount updates an existing account. Changing the starting balance
// shifts the incremental balance by the same difference, so the approved
// transaction history stays consistent.
func (s *accountService) UpdateAccount(accountID string, fields AccountUpdateFields) (*models.Account, error) {
	var account models.Account
	err := s.store.Update(func(tx *store.Tx) error {
		a, ok := tx.Account(accountID)
		if !ok {
			return apperrors.ErrAccountNotFound
		}

		if fields.Name != nil {
			if *fields.Name == "" {
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "account name is required")
			}
			a.Name = *fields.Name
		}
		if fields.Type != nil {
			switch *fields.Type {
			case models.AccountTypeChecking, models.AccountTypeSavings, models.AccountTypeInvestment, models.AccountTypeOther:
				a.Type = *fields.Type
			default:
				return apperrors.WithMessage(apperrors.ErrInvalidInput, "unknown account type")
			}
		}
		if fields.StartingBalance != nil {
			a.Balance += *fields.StartingBalance - a.StartingBalance
			a.StartingBalance = *fields.StartingBalance
		}

		tx.PutAccount(a)
		account = a
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// DeleteAccount removes an account and cascades to every transaction that
// references it as source or destination. An approved transfer losing one
// leg is a forced ledger adjustment: the surviving account's effect is
// reversed rather than left double-counted.
func (s *accountService) DeleteAccount(accountID string) error {
	return s.store.Update(func(tx *store.Tx) error {
		if _, ok := tx.Account(accountID); !ok {
			return apperrors.ErrAccountNotFound
		}

		// Remove the account first; reversal deltas then only land on
		// surviving accounts.
		tx.DeleteAccount(accountID)

		removed := 0
		for _, t := range tx.TransactionsByAccount(accountID) {
			if t.Approved {
				tx.ReverseBalanceDelta(t)
			}
			tx.DeleteTransaction(t.ID)
			removed++
		}

		if removed > 0 {
			logger.Get().Infow("account deletion cascaded",
				"account_id", accountID,
				"transactions_removed", removed,
			)
		}
		return nil
	})
}
