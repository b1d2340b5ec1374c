// Package session manages live practice and test sessions over the
// deck collection and pushes their transitions to the cast channel.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/marbeck/flashdeck/internal/apperr"
	"github.com/marbeck/flashdeck/internal/deckservice"
	"github.com/marbeck/flashdeck/internal/study"
)

// Mode distinguishes the two session kinds.
type Mode string

const (
	ModePractice Mode = "practice"
	ModeTest     Mode = "test"
)

// PracticePhase is the lifecycle value reported for practice sessions,
// which never terminate on their own.
const PracticePhase = "in_progress"

// Caster receives best-effort session notifications for an attached
// display. Implementations must not block.
type Caster interface {
	PublishCard(view study.CardView)
	PublishResults(score study.Score)
}

// State is a point-in-time view of a session returned to API clients.
type State struct {
	ID     string               `json:"id"`
	Mode   Mode                 `json:"mode"`
	DeckID string               `json:"deck_id"`
	Phase  string               `json:"phase"`
	Card   *study.CardView      `json:"card,omitempty"`
	Stats  *study.PracticeStats `json:"stats,omitempty"`
	Score  *study.Score         `json:"score,omitempty"`
}

type session struct {
	id     string
	mode   Mode
	deckID string

	mu       sync.Mutex
	practice *study.Practice
	test     *study.Test
}

// Manager owns all live sessions.
type Manager struct {
	decks  *deckservice.Service
	caster Caster
	cfg    study.Config
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// NewManager creates a session manager. caster may be nil.
func NewManager(decks *deckservice.Service, caster Caster, cfg study.Config, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if caster != nil {
		cfg.Notifier = casterNotifier{caster}
	}
	return &Manager{
		decks:    decks,
		caster:   caster,
		cfg:      cfg,
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

// casterNotifier bridges the study.Notifier callbacks to the cast
// channel.
type casterNotifier struct {
	c Caster
}

func (n casterNotifier) CardChanged(view study.CardView) { n.c.PublishCard(view) }
func (n casterNotifier) ResultsReady(score study.Score)  { n.c.PublishResults(score) }

// StartPractice begins a practice session over the given deck.
func (m *Manager) StartPractice(ctx context.Context, deckID string) (State, error) {
	d, err := m.decks.Get(ctx, deckID)
	if err != nil {
		return State{}, err
	}
	s := &session{
		id:       uuid.NewString(),
		mode:     ModePractice,
		deckID:   deckID,
		practice: study.NewPractice(m.cfg),
	}
	s.practice.Start(d)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.logger.Info("practice session started",
		slog.String("session", s.id), slog.String("deck", deckID))
	return m.snapshot(ctx, s), nil
}

// StartTest begins a test session over the given deck. An empty deck
// lands directly in the results phase.
func (m *Manager) StartTest(ctx context.Context, deckID string) (State, error) {
	d, err := m.decks.Get(ctx, deckID)
	if err != nil {
		return State{}, err
	}
	s := &session{
		id:     uuid.NewString(),
		mode:   ModeTest,
		deckID: deckID,
		test:   study.NewTest(m.cfg),
	}
	s.test.Start(d)

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	m.logger.Info("test session started",
		slog.String("session", s.id), slog.String("deck", deckID))
	return m.snapshot(ctx, s), nil
}

// Get returns the current state of a session.
func (m *Manager) Get(ctx context.Context, id string) (State, error) {
	s, err := m.find(id)
	if err != nil {
		return State{}, err
	}
	return m.snapshot(ctx, s), nil
}

// Reveal toggles the back of the current card.
func (m *Manager) Reveal(ctx context.Context, id string) (State, error) {
	s, err := m.find(id)
	if err != nil {
		return State{}, err
	}
	s.mu.Lock()
	if m.deckAlive(ctx, s.deckID) {
		switch s.mode {
		case ModePractice:
			s.practice.Reveal()
		case ModeTest:
			s.test.Reveal()
		}
	}
	s.mu.Unlock()
	return m.snapshot(ctx, s), nil
}

// Advance records an answer in a practice session. Calling it on a
// test session is apperr.ErrWrongMode.
func (m *Manager) Advance(ctx context.Context, id string, correct bool) (State, error) {
	s, err := m.find(id)
	if err != nil {
		return State{}, err
	}
	if s.mode != ModePractice {
		return State{}, apperr.ErrWrongMode
	}
	s.mu.Lock()
	if m.deckAlive(ctx, s.deckID) {
		s.practice.Advance(correct)
	}
	s.mu.Unlock()
	return m.snapshot(ctx, s), nil
}

// Answer records an answer in a test session. Calling it on a practice
// session is apperr.ErrWrongMode.
func (m *Manager) Answer(ctx context.Context, id string, correct bool) (State, error) {
	s, err := m.find(id)
	if err != nil {
		return State{}, err
	}
	if s.mode != ModeTest {
		return State{}, apperr.ErrWrongMode
	}
	s.mu.Lock()
	if m.deckAlive(ctx, s.deckID) {
		s.test.Answer(correct)
	}
	s.mu.Unlock()
	return m.snapshot(ctx, s), nil
}

// Shuffle reshuffles a practice session's queue without touching its
// stats.
func (m *Manager) Shuffle(ctx context.Context, id string) (State, error) {
	s, err := m.find(id)
	if err != nil {
		return State{}, err
	}
	if s.mode != ModePractice {
		return State{}, apperr.ErrWrongMode
	}
	s.mu.Lock()
	if m.deckAlive(ctx, s.deckID) {
		s.practice.ShuffleNow()
	}
	s.mu.Unlock()
	return m.snapshot(ctx, s), nil
}

// End discards a session. Unknown ids return apperr.ErrNotFound.
func (m *Manager) End(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return apperr.ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

func (m *Manager) find(id string) (*session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return s, nil
}

// deckAlive reports whether the session's deck still exists. A deck
// deleted mid-session turns session operations into no-ops rather than
// errors.
func (m *Manager) deckAlive(ctx context.Context, deckID string) bool {
	_, err := m.decks.Get(ctx, deckID)
	return !errors.Is(err, apperr.ErrNotFound)
}

// snapshot builds the externally visible state. When the deck has been
// deleted mid-session the current card is omitted: lookups yield
// "no card", per the degraded no-op contract.
func (m *Manager) snapshot(ctx context.Context, s *session) State {
	alive := m.deckAlive(ctx, s.deckID)

	s.mu.Lock()
	defer s.mu.Unlock()

	out := State{ID: s.id, Mode: s.mode, DeckID: s.deckID}
	switch s.mode {
	case ModePractice:
		out.Phase = PracticePhase
		stats := s.practice.Stats()
		out.Stats = &stats
		if view, ok := s.practice.Current(); ok && alive {
			out.Card = &view
		}
	case ModeTest:
		out.Phase = s.test.State().String()
		score := s.test.Score()
		out.Score = &score
		if view, ok := s.test.Current(); ok && alive {
			out.Card = &view
		}
	}
	return out
}
