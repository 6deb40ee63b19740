// Package testutil provides test helpers for setting up in-memory stores,
// creating fixtures, and making assertions.
package testutil

import (
	"testing"

	"moneta/internal/store"
)

// NewTestStore creates an empty in-memory store with no persistence sink.
func NewTestStore(t *testing.T) *store.Store {
	t.Helper()
	return store.New(nil)
}
