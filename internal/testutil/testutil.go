// Package testutil provides shared test helpers for setting up deck
// stores and services.
package testutil

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/marbeck/flashdeck/internal/deckservice"
	"github.com/marbeck/flashdeck/internal/mirror"
	"github.com/marbeck/flashdeck/internal/store"
)

// Logger returns a test logger that only surfaces errors.
func Logger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// TestDB creates a temporary SQLite deck store that is automatically
// cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "flashdeck-test-*.db")
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

// TestDecks creates a deck service over a temporary store and mirror.
// The collection starts empty; call Load on the result to pull in the
// starter decks.
func TestDecks(t *testing.T) *deckservice.Service {
	t.Helper()
	decks := deckservice.New(TestDB(t), mirror.New(filepath.Join(t.TempDir(), "decks.json")), Logger())
	t.Cleanup(decks.Flush)
	return decks
}
