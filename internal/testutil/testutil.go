// Package testutil provides shared test helpers for setting up stores
// and controllers.
package testutil

import (
	"io"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/BrayneSnax/pdaok/internal/state"
	"github.com/BrayneSnax/pdaok/internal/store"
)

// TestStore creates a temporary SQLite store that is automatically
// cleaned up.
func TestStore(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "pdaok-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// Logger returns a silent logger for tests.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// TestController creates a state controller over a temporary store
// with a short debounce interval.
func TestController(t *testing.T) (*state.Controller, *store.DB) {
	t.Helper()
	db := TestStore(t)
	ctrl := state.NewController(db, Logger(), 20*time.Millisecond)
	t.Cleanup(ctrl.Close)
	return ctrl, db
}
