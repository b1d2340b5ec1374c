// Package mirror maintains a durable JSON snapshot of the full deck
// collection on local disk. It is the fallback read source when the
// store yields nothing, and a write-through target on every change.
package mirror

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/marbeck/flashdeck/internal/models"
)

// Mirror reads and writes one named snapshot slot.
type Mirror struct {
	path string

	mu sync.Mutex // serializes writers
}

// New creates a mirror at the given file path. The parent directory is
// created on first save.
func New(path string) *Mirror {
	return &Mirror{path: path}
}

// Path returns the snapshot file location.
func (m *Mirror) Path() string {
	return m.path
}

// Load reads the snapshot. Missing or corrupt files return an error;
// callers fall through to the next tier.
func (m *Mirror) Load() ([]models.Deck, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil, fmt.Errorf("mirror: read %s: %w", m.path, err)
	}
	var decks []models.Deck
	if err := json.Unmarshal(data, &decks); err != nil {
		return nil, fmt.Errorf("mirror: decode %s: %w", m.path, err)
	}
	return decks, nil
}

// Save atomically replaces the snapshot: tmp file, fsync, rename.
func (m *Mirror) Save(decks []models.Deck) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, err := json.Marshal(decks)
	if err != nil {
		return fmt.Errorf("mirror: encode: %w", err)
	}

	dir := filepath.Dir(m.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mirror: mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".flashdeck-mirror-*")
	if err != nil {
		return fmt.Errorf("mirror: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("mirror: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("mirror: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("mirror: close temp: %w", err)
	}
	if err := os.Rename(tmpName, m.path); err != nil {
		return fmt.Errorf("mirror: rename: %w", err)
	}
	success = true
	return nil
}
