// Package store holds the canonical in-memory state of the ledger engine:
// accounts, transactions, recurring definitions, and generated instances,
// each keyed by id. All access goes through Update/View closures guarded by
// a single mutex, so mutations are serialized the way the engine requires.
// After each successful Update the store hands a snapshot to the injected
// saver; persistence is fire-and-forget.
package store

import (
	"sort"
	"sync"
	"time"

	"moneta/internal/models"
)

// SnapshotSink receives snapshots after successful updates. Satisfied by
// *persist.Saver; tests usually pass nil.
type SnapshotSink interface {
	Enqueue(snapshot *models.Snapshot)
}

// Store is the explicit in-memory entity store owned by the application
// root and shared by the services.
type Store struct {
	mu sync.Mutex

	accounts     map[string]models.Account
	transactions map[string]models.Transaction
	recurring    map[string]models.RecurringDefinition
	instances    map[string]models.GeneratedInstance

	sink SnapshotSink
}

// New creates an empty store. sink may be nil, in which case updates are
// not persisted.
func New(sink SnapshotSink) *Store {
	return &Store{
		accounts:     make(map[string]models.Account),
		transactions: make(map[string]models.Transaction),
		recurring:    make(map[string]models.RecurringDefinition),
		instances:    make(map[string]models.GeneratedInstance),
		sink:         sink,
	}
}

// Restore replaces the store contents with the given snapshot and rebuilds
// incremental account balances from approved transactions. Rebuilding on
// load means a stale persisted balance can never survive a restart.
func (s *Store) Restore(snapshot *models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = make(map[string]models.Account, len(snapshot.Accounts))
	for _, a := range snapshot.Accounts {
		s.accounts[a.ID] = a
	}
	s.transactions = make(map[string]models.Transaction, len(snapshot.Transactions))
	for _, t := range snapshot.Transactions {
		s.transactions[t.ID] = t
	}
	s.recurring = make(map[string]models.RecurringDefinition, len(snapshot.Recurring))
	for _, r := range snapshot.Recurring {
		s.recurring[r.ID] = r
	}
	s.instances = make(map[string]models.GeneratedInstance, len(snapshot.Instances))
	for _, i := range snapshot.Instances {
		s.instances[i.ID] = i
	}

	s.rebuildBalancesLocked()
}

// Update runs fn with exclusive access to the store. When fn returns nil,
// the resulting state is snapshotted and enqueued for persistence.
//
// fn must validate before mutating: there is no rollback, mirroring the
// engine rule that mutations are rejected at the boundary before any state
// change.
func (s *Store) Update(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := fn(&Tx{s: s}); err != nil {
		return err
	}

	if s.sink != nil {
		s.sink.Enqueue(s.snapshotLocked())
	}
	return nil
}

// View runs fn with read access to the store.
func (s *Store) View(fn func(tx *Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&Tx{s: s})
}

// Snapshot returns a copy of the full store state.
func (s *Store) Snapshot() *models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() *models.Snapshot {
	tx := &Tx{s: s}
	return &models.Snapshot{
		Accounts:     tx.Accounts(),
		Transactions: tx.Transactions(),
		Recurring:    tx.RecurringDefinitions(),
		Instances:    tx.Instances(),
	}
}

// rebuildBalancesLocked recomputes every account's incremental balance from
// its starting balance and the approved transaction set.
func (s *Store) rebuildBalancesLocked() {
	for id, account := range s.accounts {
		account.Balance = account.StartingBalance
		s.accounts[id] = account
	}
	for _, t := range s.transactions {
		if !t.Approved {
			continue
		}
		applyDelta(s.accounts, t, 1)
	}
}

// applyDelta applies (sign=1) or reverses (sign=-1) a transaction's effect
// on the balances map. Accounts missing from the map (deleted) are skipped.
func applyDelta(accounts map[string]models.Account, t models.Transaction, sign int64) {
	adjust := func(accountID string, amount int64) {
		if account, ok := accounts[accountID]; ok {
			account.Balance += amount
			accounts[accountID] = account
		}
	}

	switch t.Type {
	case models.TransactionTypeIncome:
		adjust(t.AccountID, sign*t.Amount)
	case models.TransactionTypeExpense:
		adjust(t.AccountID, -sign*t.Amount)
	case models.TransactionTypeTransfer:
		adjust(t.AccountID, -sign*t.Amount)
		if t.ToAccountID != nil {
			adjust(*t.ToAccountID, sign*t.Amount)
		}
	}
}

// Tx provides typed access to the store inside an Update or View closure.
type Tx struct {
	s *Store
}

// Account returns the account with the given id.
func (tx *Tx) Account(id string) (models.Account, bool) {
	a, ok := tx.s.accounts[id]
	return a, ok
}

// PutAccount inserts or replaces an account.
func (tx *Tx) PutAccount(a models.Account) {
	tx.s.accounts[a.ID] = a
}

// DeleteAccount removes an account. Cascading to referencing transactions
// is the account service's job, not the store's.
func (tx *Tx) DeleteAccount(id string) {
	delete(tx.s.accounts, id)
}

// Accounts returns all accounts ordered by creation time.
func (tx *Tx) Accounts() []models.Account {
	out := make([]models.Account, 0, len(tx.s.accounts))
	for _, a := range tx.s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Transaction returns the transaction with the given id.
func (tx *Tx) Transaction(id string) (models.Transaction, bool) {
	t, ok := tx.s.transactions[id]
	return t, ok
}

// PutTransaction inserts or replaces a transaction.
func (tx *Tx) PutTransaction(t models.Transaction) {
	tx.s.transactions[t.ID] = t
}

// DeleteTransaction removes a transaction.
func (tx *Tx) DeleteTransaction(id string) {
	delete(tx.s.transactions, id)
}

// Transactions returns all transactions ordered by date, then creation time.
func (tx *Tx) Transactions() []models.Transaction {
	out := make([]models.Transaction, 0, len(tx.s.transactions))
	for _, t := range tx.s.transactions {
		out = append(out, t)
	}
	sortTransactions(out)
	return out
}

// TransactionsByAccount returns transactions referencing the account as
// source or transfer destination, ordered by date.
func (tx *Tx) TransactionsByAccount(accountID string) []models.Transaction {
	var out []models.Transaction
	for _, t := range tx.s.transactions {
		if t.AccountID == accountID || (t.ToAccountID != nil && *t.ToAccountID == accountID) {
			out = append(out, t)
		}
	}
	sortTransactions(out)
	return out
}

// RecurringDefinition returns the definition with the given id.
func (tx *Tx) RecurringDefinition(id string) (models.RecurringDefinition, bool) {
	r, ok := tx.s.recurring[id]
	return r, ok
}

// PutRecurringDefinition inserts or replaces a recurring definition.
func (tx *Tx) PutRecurringDefinition(r models.RecurringDefinition) {
	tx.s.recurring[r.ID] = r
}

// DeleteRecurringDefinition removes a recurring definition.
func (tx *Tx) DeleteRecurringDefinition(id string) {
	delete(tx.s.recurring, id)
}

// RecurringDefinitions returns all definitions ordered by creation time.
func (tx *Tx) RecurringDefinitions() []models.RecurringDefinition {
	out := make([]models.RecurringDefinition, 0, len(tx.s.recurring))
	for _, r := range tx.s.recurring {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Instance returns the generated instance with the given id.
func (tx *Tx) Instance(id string) (models.GeneratedInstance, bool) {
	i, ok := tx.s.instances[id]
	return i, ok
}

// PutInstance inserts or replaces a generated instance.
func (tx *Tx) PutInstance(i models.GeneratedInstance) {
	tx.s.instances[i.ID] = i
}

// DeleteInstance removes a generated instance.
func (tx *Tx) DeleteInstance(id string) {
	delete(tx.s.instances, id)
}

// Instances returns all generated instances ordered by due date.
func (tx *Tx) Instances() []models.GeneratedInstance {
	out := make([]models.GeneratedInstance, 0, len(tx.s.instances))
	for _, i := range tx.s.instances {
		out = append(out, i)
	}
	sortInstances(out)
	return out
}

// InstancesByRecurring returns the instances of one recurring definition
// ordered by due date.
func (tx *Tx) InstancesByRecurring(recurringID string) []models.GeneratedInstance {
	var out []models.GeneratedInstance
	for _, i := range tx.s.instances {
		if i.RecurringID == recurringID {
			out = append(out, i)
		}
	}
	sortInstances(out)
	return out
}

// InstanceByDueDate looks up the unique instance for a (recurring, due
// date) pair.
func (tx *Tx) InstanceByDueDate(recurringID string, dueDate time.Time) (models.GeneratedInstance, bool) {
	for _, i := range tx.s.instances {
		if i.RecurringID == recurringID && i.DueDate.Equal(dueDate) {
			return i, true
		}
	}
	return models.GeneratedInstance{}, false
}

// ApplyBalanceDelta applies a transaction's ledger effect to account
// balances. Reverse applies the exact inverse.
func (tx *Tx) ApplyBalanceDelta(t models.Transaction) {
	applyDelta(tx.s.accounts, t, 1)
}

// ReverseBalanceDelta reverses a transaction's ledger effect.
func (tx *Tx) ReverseBalanceDelta(t models.Transaction) {
	applyDelta(tx.s.accounts, t, -1)
}

func sortTransactions(ts []models.Transaction) {
	sort.Slice(ts, func(i, j int) bool {
		if ts[i].Date.Equal(ts[j].Date) {
			if ts[i].CreatedAt.Equal(ts[j].CreatedAt) {
				return ts[i].ID < ts[j].ID
			}
			return ts[i].CreatedAt.Before(ts[j].CreatedAt)
		}
		return ts[i].Date.Before(ts[j].Date)
	})
}

func sortInstances(is []models.GeneratedInstance) {
	sort.Slice(is, func(i, j int) bool {
		if is[i].DueDate.Equal(is[j].DueDate) {
			return is[i].ID < is[j].ID
		}
		return is[i].DueDate.Before(is[j].DueDate)
	})
}
