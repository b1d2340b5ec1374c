// Package seeds loads deck definitions from a directory of YAML files
// and keeps the deck collection in sync with them while the server
// runs. Dropping a file into the seeds directory publishes the deck;
// removing the file removes it again.
package seeds

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"

	"github.com/marbeck/flashdeck/internal/deckservice"
	"github.com/marbeck/flashdeck/internal/models"
)

// Syncer mirrors a directory of YAML deck files into the collection.
type Syncer struct {
	dir    string
	decks  *deckservice.Service
	logger *slog.Logger

	mu  sync.Mutex
	ids map[string]string // seed file path -> deck id it produced
}

// NewSyncer creates a syncer over the given seeds directory. The
// directory does not have to exist; a missing directory just means no
// seed decks.
func NewSyncer(dir string, decks *deckservice.Service, logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{
		dir:    dir,
		decks:  decks,
		logger: logger,
		ids:    make(map[string]string),
	}
}

// deckID returns the stable id a seed file maps to. A deck that names
// its own id keeps it; otherwise the id is derived from the filename
// stem, so re-reading the same file always updates the same deck.
func deckID(path string, d models.Deck) string {
	if d.ID != "" {
		return d.ID
	}
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return "seed-" + stem
}

func isSeedFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// loadFile parses one seed file into a deck.
func loadFile(path string) (models.Deck, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Deck{}, err
	}
	var d models.Deck
	if err := yaml.Unmarshal(data, &d); err != nil {
		return models.Deck{}, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return d, nil
}

// apply upserts the deck from one seed file and records the file->id
// mapping for later removal.
func (s *Syncer) apply(ctx context.Context, path string) {
	d, err := loadFile(path)
	if err != nil {
		s.logger.Warn("seeds: load failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	d.ID = deckID(path, d)

	if _, err := s.decks.Upsert(ctx, d); err != nil {
		s.logger.Warn("seeds: upsert failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}

	s.mu.Lock()
	s.ids[path] = d.ID
	s.mu.Unlock()

	s.logger.Info("seeds: deck loaded",
		slog.String("path", filepath.Base(path)),
		slog.String("deck", d.ID))
}

// drop removes the deck a seed file produced, if we loaded one.
func (s *Syncer) drop(ctx context.Context, path string) {
	s.mu.Lock()
	id, ok := s.ids[path]
	delete(s.ids, path)
	s.mu.Unlock()
	if !ok {
		return
	}

	if err := s.decks.Delete(ctx, id); err != nil {
		s.logger.Warn("seeds: delete failed",
			slog.String("deck", id),
			slog.String("error", err.Error()))
		return
	}
	s.logger.Info("seeds: deck removed", slog.String("deck", id))
}

// SyncOnce walks the seeds directory and upserts every deck file found.
// A missing directory is not an error.
func (s *Syncer) SyncOnce(ctx context.Context) error {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, e := range entries {
		if e.IsDir() || !isSeedFile(e.Name()) {
			continue
		}
		s.apply(ctx, filepath.Join(s.dir, e.Name()))
	}
	return nil
}

// Watch starts an fsnotify watcher on the seeds directory and keeps
// the collection in sync until ctx is cancelled. Write events are
// debounced briefly because editors often fire several per save.
func (s *Syncer) Watch(ctx context.Context) error {
	if _, err := os.Stat(s.dir); os.IsNotExist(err) {
		s.logger.Info("seeds: directory missing, watcher disabled", slog.String("dir", s.dir))
		<-ctx.Done()
		return nil
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(s.dir); err != nil {
		return err
	}

	s.logger.Info("seeds: watcher started", slog.String("dir", s.dir))

	// pending debounces rapid write bursts per file.
	pending := make(map[string]*time.Timer)
	var pendingMu sync.Mutex
	fire := make(chan string, 16)

	schedule := func(path string) {
		pendingMu.Lock()
		defer pendingMu.Unlock()
		if t, ok := pending[path]; ok {
			t.Reset(100 * time.Millisecond)
			return
		}
		pending[path] = time.AfterFunc(100*time.Millisecond, func() {
			pendingMu.Lock()
			delete(pending, path)
			pendingMu.Unlock()
			select {
			case fire <- path:
			case <-ctx.Done():
			}
		})
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("seeds: watcher stopped")
			return nil

		case path := <-fire:
			s.apply(ctx, path)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !isSeedFile(ev.Name) {
				continue
			}
			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				schedule(ev.Name)
			case ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				s.drop(ctx, ev.Name)
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Error("seeds: watcher error", slog.String("error", watchErr.Error()))
		}
	}
}
