package services

import (
	"time"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/pagination"
	"moneta/internal/store"
	"moneta/internal/uuid"
)

// transactionService handles transaction-related business logic.
type transactionService struct {
	store *store.Store
}

// NewTransactionService creates a new TransactionServicer.
func NewTransactionService(st *store.Store) TransactionServicer {
	return &transactionService{store: st}
}

// validateTransactionInput checks an input against the referenced accounts.
// Runs before any state change: a rejected mutation is never partially
// applied.
func validateTransactionInput(tx *store.Tx, input *TransactionInput) error {
	if input.Amount <= 0 {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, "amount must be greater than zero")
	}

	switch input.Type {
	case models.TransactionTypeIncome, models.TransactionTypeExpense:
		input.ToAccountID = nil
	case models.TransactionTypeTransfer:
		if input.ToAccountID == nil {
			return apperrors.ErrMissingTransferAccount
		}
		if *input.ToAccountID == input.AccountID {
			return apperrors.ErrSameAccountTransfer
		}
		if _, ok := tx.Account(*input.ToAccountID); !ok {
			return apperrors.WithMessage(apperrors.ErrAccountNotFound, "Destination account not found")
		}
	default:
		return apperrors.ErrInvalidTransactionType
	}

	if _, ok := tx.Account(input.AccountID); !ok {
		return apperrors.ErrAccountNotFound
	}
	return nil
}

// CreateTransaction creates a one-off transaction. If it arrives approved,
// its balance delta is applied in the same call.
func (s *transactionService) CreateTransaction(input TransactionInput) (*models.Transaction, error) {
	if input.Date.IsZero() {
		input.Date = time.Now().UTC()
	}

	var transaction models.Transaction
	err := s.store.Update(func(tx *store.Tx) error {
		if err := validateTransactionInput(tx, &input); err != nil {
			return err
		}

		transaction = models.Transaction{
			ID:          uuid.New(),
			Type:        input.Type,
			Amount:      input.Amount,
			AccountID:   input.AccountID,
			ToAccountID: input.ToAccountID,
			Date:        input.Date,
			Category:    input.Category,
			Approved:    input.Approved,
			CreatedAt:   time.Now().UTC(),
		}
		tx.PutTransaction(transaction)

		if transaction.Approved {
			tx.ApplyBalanceDelta(transaction)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// GetTransactions retrieves a paginated, filtered list of stored
// transactions ordered by date.
func (s *transactionService) GetTransactions(page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	var transactions []models.Transaction
	_ = s.store.View(func(tx *store.Tx) error {
		transactions = applyTransactionFilters(tx.Transactions(), filter)
		return nil
	})

	result := pagination.Slice(transactions, page)
	return &result, nil
}

// GetAccountTransactions retrieves transactions touching one account.
func (s *transactionService) GetAccountTransactions(accountID string, page pagination.PageRequest, filter TransactionFilter) (*pagination.PageResponse[models.Transaction], error) {
	page.Defaults()

	var transactions []models.Transaction
	err := s.store.View(func(tx *store.Tx) error {
		if _, ok := tx.Account(accountID); !ok {
			return apperrors.ErrAccountNotFound
		}
		transactions = applyTransactionFilters(tx.TransactionsByAccount(accountID), filter)
		return nil
	})
	if err != nil {
		return nil, err
	}

	result := pagination.Slice(transactions, page)
	return &result, nil
}

func applyTransactionFilters(ts []models.Transaction, f TransactionFilter) []models.Transaction {
	if f.FromDate == nil && f.ToDate == nil && f.Type == nil {
		return ts
	}
	out := make([]models.Transaction, 0, len(ts))
	for _, t := range ts {
		if f.FromDate != nil && t.Date.Before(*f.FromDate) {
			continue
		}
		if f.ToDate != nil && t.Date.After(*f.ToDate) {
			continue
		}
		if f.Type != nil && t.Type != *f.Type {
			continue
		}
		out = append(out, t)
	}
	return out
}

// GetTransactionByID retrieves a transaction by id.
func (s *transactionService) GetTransactionByID(transactionID string) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.store.View(func(tx *store.Tx) error {
		t, ok := tx.Transaction(transactionID)
		if !ok {
			return apperrors.ErrTransactionNotFound
		}
		transaction = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// UpdateTransaction replaces the caller-editable fields of a transaction.
// If the transaction was approved, its old effect is reversed and the new
// one applied within the same call, so balances never see a half-edit.
func (s *transactionService) UpdateTransaction(transactionID string, input TransactionInput) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.store.Update(func(tx *store.Tx) error {
		existing, ok := tx.Transaction(transactionID)
		if !ok {
			return apperrors.ErrTransactionNotFound
		}
		if err := validateTransactionInput(tx, &input); err != nil {
			return err
		}

		if existing.Approved {
			tx.ReverseBalanceDelta(existing)
		}

		transaction = existing
		transaction.Type = input.Type
		transaction.Amount = input.Amount
		transaction.AccountID = input.AccountID
		transaction.ToAccountID = input.ToAccountID
		transaction.Category = input.Category
		transaction.Approved = input.Approved
		if !input.Date.IsZero() {
			transaction.Date = input.Date
		}
		tx.PutTransaction(transaction)

		if transaction.Approved {
			tx.ApplyBalanceDelta(transaction)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// ApproveTransaction flips a transaction to approved and applies its
// balance delta. Approving an already-approved transaction is a no-op.
func (s *transactionService) ApproveTransaction(transactionID string) (*models.Transaction, error) {
	return s.setApproved(transactionID, true)
}

// UnapproveTransaction reverts a transaction to unapproved, reversing its
// balance delta. A no-op when already unapproved.
func (s *transactionService) UnapproveTransaction(transactionID string) (*models.Transaction, error) {
	return s.setApproved(transactionID, false)
}

func (s *transactionService) setApproved(transactionID string, approved bool) (*models.Transaction, error) {
	var transaction models.Transaction
	err := s.store.Update(func(tx *store.Tx) error {
		t, ok := tx.Transaction(transactionID)
		if !ok {
			return apperrors.ErrTransactionNotFound
		}
		if t.Approved == approved {
			transaction = t
			return nil
		}

		t.Approved = approved
		tx.PutTransaction(t)
		if approved {
			tx.ApplyBalanceDelta(t)
		} else {
			tx.ReverseBalanceDelta(t)
		}
		transaction = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &transaction, nil
}

// DeleteTransaction removes a transaction, reversing its balance effect
// when it was approved.
func (s *transactionService) DeleteTransaction(transactionID string) error {
	return s.store.Update(func(tx *store.Tx) error {
		t, ok := tx.Transaction(transactionID)
		if !ok {
			return apperrors.ErrTransactionNotFound
		}

		if t.Approved {
			tx.ReverseBalanceDelta(t)
		}
		tx.DeleteTransaction(t.ID)
		return nil
	})
}
