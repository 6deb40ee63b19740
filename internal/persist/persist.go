// Package persist provides the persistence collaborator for the in-memory
// ledger store. The engine treats persistence as opaque: it loads one
// snapshot at startup and hands updated snapshots to a debounced saver
// after each mutation. The in-memory state is the source of truth;
// persistence is eventually consistent and save failures never corrupt it.
package persist

import (
	"sync"
	"time"

	"moneta/internal/logger"
	"moneta/internal/models"
)

// Persister loads and saves full engine snapshots.
type Persister interface {
	Load() (*models.Snapshot, error)
	Save(snapshot *models.Snapshot) error
}

// Saver debounces snapshot writes so bursts of mutations (a reconciliation
// run touches many entities) collapse into a single save. Enqueue is
// fire-and-forget from the caller's perspective.
type Saver struct {
	persister Persister
	debounce  time.Duration

	mu      sync.Mutex
	pending *models.Snapshot
	timer   *time.Timer
	closed  bool
}

// NewSaver creates a Saver writing through the given persister.
func NewSaver(persister Persister, debounce time.Duration) *Saver {
	return &Saver{persister: persister, debounce: debounce}
}

// Enqueue schedules the snapshot for saving. A newer snapshot replaces any
// still-pending one; only the latest state ever reaches the persister.
func (s *Saver) Enqueue(snapshot *models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	s.pending = snapshot
	if s.timer == nil {
		s.timer = time.AfterFunc(s.debounce, s.flush)
	} else {
		s.timer.Reset(s.debounce)
	}
}

// Close flushes any pending snapshot synchronously and stops the saver.
func (s *Saver) Close() {
	s.mu.Lock()
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	snapshot := s.pending
	s.pending = nil
	s.closed = true
	s.mu.Unlock()

	if snapshot != nil {
		s.save(snapshot)
	}
}

func (s *Saver) flush() {
	s.mu.Lock()
	snapshot := s.pending
	s.pending = nil
	s.timer = nil
	s.mu.Unlock()

	if snapshot != nil {
		s.save(snapshot)
	}
}

func (s *Saver) save(snapshot *models.Snapshot) {
	if err := s.persister.Save(snapshot); err != nil {
		// Persistence failures must not reach engine state. Log and move on;
		// the next mutation enqueues a fresh snapshot anyway.
		logger.Get().Errorw("snapshot save failed", "error", err)
	}
}
