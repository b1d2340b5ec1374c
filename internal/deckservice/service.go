// Package deckservice owns the in-memory deck collection and keeps the
// SQLite store and the on-disk mirror synchronized with it.
//
// After Load the in-memory collection is the single source of truth:
// mutations apply to memory synchronously, then persist to the store
// and mirror asynchronously. A failed persistence call is logged and
// ignored; there are no retries and callers are never blocked on it.
package deckservice

import (
	"context"
	"log/slog"
	"sync"

	"github.com/marbeck/flashdeck/internal/apperr"
	"github.com/marbeck/flashdeck/internal/deck"
	"github.com/marbeck/flashdeck/internal/mirror"
	"github.com/marbeck/flashdeck/internal/models"
	"github.com/marbeck/flashdeck/internal/store"
)

// Change kinds passed to the OnChange callback.
const (
	ChangeCreated = "created"
	ChangeUpdated = "updated"
	ChangeDeleted = "deleted"
)

// Service is the single owner of the deck collection.
type Service struct {
	db     *store.DB
	mirror *mirror.Mirror
	logger *slog.Logger

	onChange func(kind, id string)

	mu    sync.RWMutex
	decks []models.Deck

	wg sync.WaitGroup // in-flight persistence
}

// New creates a deck service. Call Load before serving requests.
func New(db *store.DB, m *mirror.Mirror, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, mirror: m, logger: logger}
}

// OnChange registers a callback invoked after every collection
// mutation. Must be set before the service starts handling requests.
func (s *Service) OnChange(cb func(kind, id string)) {
	s.onChange = cb
}

// Load populates the collection using the two-tier read policy:
// store first, then the local mirror, then the built-in starter decks.
// Starters are persisted back so the next startup finds them in the
// store. State is never left undefined.
func (s *Service) Load(ctx context.Context) error {
	decks, err := s.db.List(ctx)
	if err != nil {
		s.logger.Warn("deck store unavailable, falling back to mirror",
			slog.String("error", err.Error()))
	}
	if len(decks) == 0 {
		if cached, mErr := s.mirror.Load(); mErr == nil && len(cached) > 0 {
			s.logger.Info("loaded decks from local mirror", slog.Int("count", len(cached)))
			decks = cached
		}
	}
	if len(decks) == 0 {
		s.logger.Info("seeding starter decks")
		for _, d := range deck.Starters() {
			decks = append(decks, deck.Normalize(d))
		}
	}

	s.mu.Lock()
	s.decks = decks
	s.mu.Unlock()

	// Seed pass: make sure everything loaded outside the store ends up
	// in it. Failures degrade to memory-only operation.
	for _, d := range decks {
		if err := s.db.Put(ctx, d); err != nil {
			s.logger.Warn("seed persist failed",
				slog.String("deck", d.ID), slog.String("error", err.Error()))
		}
	}
	s.saveMirror()
	return nil
}

// List returns a copy of the deck collection in stable order.
func (s *Service) List(ctx context.Context) []models.Deck {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Deck, len(s.decks))
	copy(out, s.decks)
	return out
}

// Get returns one deck by id, or apperr.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (models.Deck, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, d := range s.decks {
		if d.ID == id {
			return d, nil
		}
	}
	return models.Deck{}, apperr.ErrNotFound
}

// Create normalizes and appends a new deck. Posting an id that already
// exists returns apperr.ErrAlreadyExists.
func (s *Service) Create(ctx context.Context, d models.Deck) (models.Deck, error) {
	nd := deck.Normalize(d)

	s.mu.Lock()
	for _, existing := range s.decks {
		if existing.ID == nd.ID {
			s.mu.Unlock()
			return models.Deck{}, apperr.ErrAlreadyExists
		}
	}
	s.decks = append(s.decks, nd)
	s.mu.Unlock()

	s.persist(nd)
	s.notify(ChangeCreated, nd.ID)
	return nd, nil
}

// Replace swaps the stored deck with the given one (same id), after
// normalization. Unknown ids return apperr.ErrNotFound.
func (s *Service) Replace(ctx context.Context, id string, d models.Deck) (models.Deck, error) {
	d.ID = id
	nd := deck.Normalize(d)

	s.mu.Lock()
	found := false
	for i, existing := range s.decks {
		if existing.ID == id {
			s.decks[i] = nd
			found = true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		return models.Deck{}, apperr.ErrNotFound
	}

	s.persist(nd)
	s.notify(ChangeUpdated, nd.ID)
	return nd, nil
}

// Upsert creates or replaces a deck keyed by its id. Used by the seed
// deck syncer.
func (s *Service) Upsert(ctx context.Context, d models.Deck) (models.Deck, error) {
	nd := deck.Normalize(d)

	s.mu.Lock()
	kind := ChangeCreated
	found := false
	for i, existing := range s.decks {
		if existing.ID == nd.ID {
			s.decks[i] = nd
			kind = ChangeUpdated
			found = true
			break
		}
	}
	if !found {
		s.decks = append(s.decks, nd)
	}
	s.mu.Unlock()

	s.persist(nd)
	s.notify(kind, nd.ID)
	return nd, nil
}

// Delete removes a deck from the collection, or returns
// apperr.ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	found := false
	for i, existing := range s.decks {
		if existing.ID == id {
			s.decks = append(s.decks[:i], s.decks[i+1:]...)
			found = true
			break
		}
	}
	s.mu.Unlock()
	if !found {
		return apperr.ErrNotFound
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.db.Delete(context.Background(), id); err != nil {
			s.logger.Warn("store delete failed",
				slog.String("deck", id), slog.String("error", err.Error()))
		}
	}()
	s.saveMirror()
	s.notify(ChangeDeleted, id)
	return nil
}

// Flush blocks until all in-flight persistence has finished. Called on
// shutdown and by tests.
func (s *Service) Flush() {
	s.wg.Wait()
}

// persist writes one deck to the store and refreshes the mirror,
// without blocking the caller.
func (s *Service) persist(d models.Deck) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.db.Put(context.Background(), d); err != nil {
			s.logger.Warn("store write failed",
				slog.String("deck", d.ID), slog.String("error", err.Error()))
		}
	}()
	s.saveMirror()
}

// saveMirror snapshots the current collection to the mirror file in the
// background. The snapshot is taken at write time, so racing saves both
// write recent state.
func (s *Service) saveMirror() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.mu.RLock()
		snapshot := make([]models.Deck, len(s.decks))
		copy(snapshot, s.decks)
		s.mu.RUnlock()
		if err := s.mirror.Save(snapshot); err != nil {
			s.logger.Warn("mirror write failed", slog.String("error", err.Error()))
		}
	}()
}

func (s *Service) notify(kind, id string) {
	if s.onChange != nil {
		s.onChange(kind, id)
	}
}
