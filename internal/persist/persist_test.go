package persist

import (
	"errors"
	"sync"
	"testing"
	"time"

	"moneta/internal/models"
)

type fakePersister struct {
	mu    sync.Mutex
	saves []*models.Snapshot
	fail  bool
}

func (f *fakePersister) Load() (*models.Snapshot, error) {
	return &models.Snapshot{}, nil
}

func (f *fakePersister) Save(snapshot *models.Snapshot) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("disk full")
	}
	f.saves = append(f.saves, snapshot)
	return nil
}

func (f *fakePersister) saved() []*models.Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.Snapshot, len(f.saves))
	copy(out, f.saves)
	return out
}

func TestSaverDebouncesBursts(t *testing.T) {
	persister := &fakePersister{}
	saver := NewSaver(persister, 30*time.Millisecond)
	defer saver.Close()

	first := &models.Snapshot{Accounts: []models.Account{{ID: "a"}}}
	second := &models.Snapshot{Accounts: []models.Account{{ID: "a"}, {ID: "b"}}}
	saver.Enqueue(first)
	saver.Enqueue(second)

	time.Sleep(150 * time.Millisecond)

	saves := persister.saved()
	if len(saves) != 1 {
		t.Fatalf("expected burst collapsed into 1 save, got %d", len(saves))
	}
	if len(saves[0].Accounts) != 2 {
		t.Errorf("expected the latest snapshot to win, got %d accounts", len(saves[0].Accounts))
	}
}

func TestSaverCloseFlushesPending(t *testing.T) {
	persister := &fakePersister{}
	saver := NewSaver(persister, time.Hour) // never fires on its own

	saver.Enqueue(&models.Snapshot{Accounts: []models.Account{{ID: "a"}}})
	saver.Close()

	if len(persister.saved()) != 1 {
		t.Fatalf("expected Close to flush the pending snapshot, got %d saves", len(persister.saved()))
	}

	// After Close, enqueues are dropped.
	saver.Enqueue(&models.Snapshot{})
	time.Sleep(20 * time.Millisecond)
	if len(persister.saved()) != 1 {
		t.Errorf("expected enqueue after Close to be ignored, got %d saves", len(persister.saved()))
	}
}

func TestSaverSurvivesSaveFailure(t *testing.T) {
	persister := &fakePersister{fail: true}
	saver := NewSaver(persister, 10*time.Millisecond)

	saver.Enqueue(&models.Snapshot{})
	time.Sleep(50 * time.Millisecond)

	// The failure is logged, not surfaced; a later snapshot still goes through.
	persister.mu.Lock()
	persister.fail = false
	persister.mu.Unlock()

	saver.Enqueue(&models.Snapshot{Accounts: []models.Account{{ID: "a"}}})
	saver.Close()

	if len(persister.saved()) != 1 {
		t.Errorf("expected the retry snapshot saved, got %d", len(persister.saved()))
	}
}
