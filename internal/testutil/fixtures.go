package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"moneta/internal/models"
	"moneta/internal/store"
	"moneta/internal/uuid"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// Date builds a UTC midnight timestamp, the granularity the engine works at.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// CreateTestAccount creates a checking account with the given starting balance.
func CreateTestAccount(t *testing.T, st *store.Store, startingBalance int64) *models.Account {
	t.Helper()

	account := models.Account{
		ID:              uuid.New(),
		Name:            fmt.Sprintf("Test Account %d", nextID()),
		Type:            models.AccountTypeChecking,
		StartingBalance: startingBalance,
		Balance:         startingBalance,
		CreatedAt:       time.Now().UTC(),
	}
	err := st.Update(func(tx *store.Tx) error {
		tx.PutAccount(account)
		return nil
	})
	if err != nil {
		t.Fatalf("failed to create test account: %v", err)
	}
	return &account
}

// CreateTestTransaction creates an approved transaction of the given type
// and amount, applying its balance delta like the transaction service would.
func CreateTestTransaction(t *testing.T, st *store.Store, accountID string, txType models.TransactionType, amount int64, date time.Time) *models.Transaction {
	t.Helper()

	transaction := models.Transaction{
		ID:        uuid.New(),
		Type:      txType,
		Amount:    amount,
		AccountID: accountID,
		Date:      date,
		Approved:  true,
		CreatedAt: time.Now().UTC(),
	}
	err := st.Update(func(tx *store.Tx) error {
		tx.PutTransaction(transaction)
		tx.ApplyBalanceDelta(transaction)
		return nil
	})
	if err != nil {
		t.Fatalf("failed to create test transaction: %v", err)
	}
	return &transaction
}

// IntPtr returns a pointer to the given int, for optional schedule fields.
func IntPtr(v int) *int { return &v }

// StrPtr returns a pointer to the given string.
func StrPtr(v string) *string { return &v }
