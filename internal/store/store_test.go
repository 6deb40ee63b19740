package store_test

import (
	"testing"
	"time"

	"moneta/internal/models"
	"moneta/internal/store"
	"moneta/internal/testutil"
	"moneta/internal/uuid"
)

func TestUpdateErrorSkipsSink(t *testing.T) {
	sink := &recordingSink{}
	st := store.New(sink)

	wantErr := errSentinel("rejected")
	err := st.Update(func(tx *store.Tx) error {
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("expected error propagated, got %v", err)
	}
	if sink.calls != 0 {
		t.Errorf("failed update must not enqueue a snapshot, got %d calls", sink.calls)
	}

	err = st.Update(func(tx *store.Tx) error {
		tx.PutAccount(models.Account{ID: uuid.New(), Name: "A"})
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if sink.calls != 1 {
		t.Errorf("successful update must enqueue exactly once, got %d calls", sink.calls)
	}
}

func TestRestoreRebuildsBalances(t *testing.T) {
	st := store.New(nil)
	accountID := uuid.New()

	// Persisted balance is deliberately stale; the rebuild must win.
	st.Restore(&models.Snapshot{
		Accounts: []models.Account{{
			ID:              accountID,
			Name:            "Checking",
			Type:            models.AccountTypeChecking,
			StartingBalance: 1000,
			Balance:         999999,
		}},
		Transactions: []models.Transaction{
			{
				ID:        uuid.New(),
				Type:      models.TransactionTypeExpense,
				Amount:    100,
				AccountID: accountID,
				Date:      testutil.Date(2024, time.January, 5),
				Approved:  true,
			},
			{
				ID:        uuid.New(),
				Type:      models.TransactionTypeIncome,
				Amount:    30,
				AccountID: accountID,
				Date:      testutil.Date(2024, time.January, 6),
				Approved:  false, // pending, must not count
			},
		},
	})

	snap := st.Snapshot()
	if len(snap.Accounts) != 1 {
		t.Fatalf("expected 1 account, got %d", len(snap.Accounts))
	}
	if balance := snap.Accounts[0].Balance; balance != 900 {
		t.Errorf("expected rebuilt balance 900, got %d", balance)
	}
}

func TestSnapshotOrdering(t *testing.T) {
	st := store.New(nil)

	base := time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC)
	err := st.Update(func(tx *store.Tx) error {
		tx.PutAccount(models.Account{ID: uuid.New(), Name: "second", CreatedAt: base.Add(time.Hour)})
		tx.PutAccount(models.Account{ID: uuid.New(), Name: "first", CreatedAt: base})

		accountID := uuid.New()
		tx.PutTransaction(models.Transaction{ID: uuid.New(), Type: models.TransactionTypeExpense, Amount: 1, AccountID: accountID, Date: testutil.Date(2024, time.March, 1)})
		tx.PutTransaction(models.Transaction{ID: uuid.New(), Type: models.TransactionTypeExpense, Amount: 1, AccountID: accountID, Date: testutil.Date(2024, time.January, 1)})

		recurringID := uuid.New()
		tx.PutInstance(models.GeneratedInstance{ID: uuid.New(), RecurringID: recurringID, TransactionID: uuid.New(), DueDate: testutil.Date(2024, time.May, 1)})
		tx.PutInstance(models.GeneratedInstance{ID: uuid.New(), RecurringID: recurringID, TransactionID: uuid.New(), DueDate: testutil.Date(2024, time.April, 1)})
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := st.Snapshot()
	if snap.Accounts[0].Name != "first" {
		t.Errorf("accounts not ordered by creation time: %q first", snap.Accounts[0].Name)
	}
	if !snap.Transactions[0].Date.Before(snap.Transactions[1].Date) {
		t.Error("transactions not ordered by date")
	}
	if !snap.Instances[0].DueDate.Before(snap.Instances[1].DueDate) {
		t.Error("instances not ordered by due date")
	}
}

func TestInstanceByDueDate(t *testing.T) {
	st := store.New(nil)
	recurringID := uuid.New()
	dueDate := testutil.Date(2024, time.March, 1)

	err := st.Update(func(tx *store.Tx) error {
		tx.PutInstance(models.GeneratedInstance{ID: uuid.New(), RecurringID: recurringID, TransactionID: uuid.New(), DueDate: dueDate})
		tx.PutInstance(models.GeneratedInstance{ID: uuid.New(), RecurringID: uuid.New(), TransactionID: uuid.New(), DueDate: dueDate})
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_ = st.View(func(tx *store.Tx) error {
		inst, ok := tx.InstanceByDueDate(recurringID, dueDate)
		if !ok {
			t.Fatal("expected instance found")
		}
		if inst.RecurringID != recurringID {
			t.Errorf("wrong instance: recurring %s", inst.RecurringID)
		}
		if _, ok := tx.InstanceByDueDate(recurringID, testutil.Date(2024, time.April, 1)); ok {
			t.Error("expected no instance on a different due date")
		}
		return nil
	})
}

func TestBalanceDeltas(t *testing.T) {
	st := store.New(nil)
	from := uuid.New()
	to := uuid.New()

	err := st.Update(func(tx *store.Tx) error {
		tx.PutAccount(models.Account{ID: from, StartingBalance: 500, Balance: 500})
		tx.PutAccount(models.Account{ID: to, StartingBalance: 100, Balance: 100})

		transfer := models.Transaction{
			ID:          uuid.New(),
			Type:        models.TransactionTypeTransfer,
			Amount:      200,
			AccountID:   from,
			ToAccountID: &to,
			Approved:    true,
		}
		tx.ApplyBalanceDelta(transfer)

		a, _ := tx.Account(from)
		b, _ := tx.Account(to)
		if a.Balance != 300 || b.Balance != 300 {
			t.Errorf("expected 300/300 after apply, got %d/%d", a.Balance, b.Balance)
		}

		tx.ReverseBalanceDelta(transfer)
		a, _ = tx.Account(from)
		b, _ = tx.Account(to)
		if a.Balance != 500 || b.Balance != 100 {
			t.Errorf("expected 500/100 after reverse, got %d/%d", a.Balance, b.Balance)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDeltaSkipsMissingAccounts(t *testing.T) {
	st := store.New(nil)
	survivor := uuid.New()
	ghost := uuid.New()

	err := st.Update(func(tx *store.Tx) error {
		tx.PutAccount(models.Account{ID: survivor, StartingBalance: 100, Balance: 100})

		tx.ApplyBalanceDelta(models.Transaction{
			ID:          uuid.New(),
			Type:        models.TransactionTypeTransfer,
			Amount:      50,
			AccountID:   ghost,
			ToAccountID: &survivor,
			Approved:    true,
		})

		a, _ := tx.Account(survivor)
		if a.Balance != 150 {
			t.Errorf("expected surviving leg applied, got %d", a.Balance)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

type recordingSink struct {
	calls int
}

func (r *recordingSink) Enqueue(snapshot *models.Snapshot) { r.calls++ }

type errSentinel string

func (e errSentinel) Error() string { return string(e) }
