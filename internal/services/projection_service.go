package services

import (
	"sort"

	apperrors "moneta/internal/errors"
	"moneta/internal/models"
	"moneta/internal/store"
)

// projectionService computes the expected and actual views over the
// canonical entity collections. Everything here is recomputed on read;
// nothing is cached, so the views can never go stale.
type projectionService struct {
	store *store.Store
}

// NewProjectionService creates a new ProjectionServicer.
func NewProjectionService(st *store.Store) ProjectionServicer {
	return &projectionService{store: st}
}

// ParseViewMode validates a view mode string.
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(s) {
	case ViewModeExpected, ViewModeActual:
		return ViewMode(s), nil
	case "":
		return ViewModeActual, nil
	}
	return "", apperrors.ErrInvalidViewMode
}

// Project returns the transaction sequence for a view mode, sorted by date
// ascending.
//
// actual: approved transactions only. expected: approved transactions plus
// a virtual transaction for every pending instance, synthesized from its
// recurring definition with the instance's due date. Virtual transactions
// exist only in the returned slice; they are never stored.
func (s *projectionService) Project(mode ViewMode) ([]models.Transaction, error) {
	switch mode {
	case ViewModeExpected, ViewModeActual:
	default:
		return nil, apperrors.ErrInvalidViewMode
	}

	var projected []models.Transaction
	_ = s.store.View(func(tx *store.Tx) error {
		projected = projectLocked(tx, mode)
		return nil
	})
	return projected, nil
}

func projectLocked(tx *store.Tx, mode ViewMode) []models.Transaction {
	var projected []models.Transaction
	for _, t := range tx.Transactions() {
		if t.Approved {
			projected = append(projected, t)
		}
	}

	if mode == ViewModeActual {
		return projected
	}

	for _, inst := range tx.Instances() {
		if !inst.Pending() {
			continue
		}
		def, ok := tx.RecurringDefinition(inst.RecurringID)
		if !ok {
			continue
		}
		recurringID := def.ID
		projected = append(projected, models.Transaction{
			ID:          inst.TransactionID,
			Type:        def.Type,
			Amount:      def.Amount,
			AccountID:   def.AccountID,
			ToAccountID: def.ToAccountID,
			Date:        inst.DueDate,
			Category:    def.Category,
			IsRecurring: true,
			RecurringID: &recurringID,
			Virtual:     true,
		})
	}

	sortByDate(projected)
	return projected
}

// AccountBalances folds the projected transaction sequence over each
// account's starting balance. This is a pure recomputation over the
// projected set, not a read of the incrementally-maintained ledger: the
// expected view includes virtual entries that must never mutate persisted
// balances.
func (s *projectionService) AccountBalances(mode ViewMode) (map[string]int64, error) {
	switch mode {
	case ViewModeExpected, ViewModeActual:
	default:
		return nil, apperrors.ErrInvalidViewMode
	}

	balances := make(map[string]int64)
	_ = s.store.View(func(tx *store.Tx) error {
		for _, a := range tx.Accounts() {
			balances[a.ID] = a.StartingBalance
		}
		for _, t := range projectLocked(tx, mode) {
			foldBalance(balances, t)
		}
		return nil
	})
	return balances, nil
}

// foldBalance applies one transaction's delta to the balances map.
// Accounts absent from the map (deleted) are ignored.
func foldBalance(balances map[string]int64, t models.Transaction) {
	adjust := func(accountID string, amount int64) {
		if _, ok := balances[accountID]; ok {
			balances[accountID] += amount
		}
	}

	switch t.Type {
	case models.TransactionTypeIncome:
		adjust(t.AccountID, t.Amount)
	case models.TransactionTypeExpense:
		adjust(t.AccountID, -t.Amount)
	case models.TransactionTypeTransfer:
		adjust(t.AccountID, -t.Amount)
		if t.ToAccountID != nil {
			adjust(*t.ToAccountID, t.Amount)
		}
	}
}

func sortByDate(ts []models.Transaction) {
	sort.SliceStable(ts, func(i, j int) bool {
		return ts[i].Date.Before(ts[j].Date)
	})
}
