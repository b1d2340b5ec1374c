package study

import (
	"encoding"
	"fmt"

	"github.com/marbeck/flashdeck/internal/models"
)

// State identifies where a test session is in its lifecycle.
type State int

const (
	NotStarted State = iota
	InProgress
	Results
)

var stateNames = [...]string{
	NotStarted: "not_started",
	InProgress: "in_progress",
	Results:    "results",
}

var (
	_ fmt.Stringer           = State(0)
	_ encoding.TextMarshaler = State(0)
)

func (s State) isValid() bool {
	return s >= NotStarted && s <= Results
}

// String returns the snake_case name of the state.
func (s State) String() string {
	if s.isValid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if !s.isValid() {
		return nil, fmt.Errorf("study: invalid state: %d", int(s))
	}
	return []byte(stateNames[s]), nil
}

// Test drives a single finite pass over a shuffled deck. Unlike
// practice, no card ever repeats: position moves forward by exactly one
// per answer until the session reaches the terminal Results state.
// Starting again creates a fresh run with a new shuffle; Results itself
// is never resumed.
type Test struct {
	cfg Config

	deck     models.Deck
	queue    []int
	position int
	revealed bool
	score    Score
	state    State
}

// NewTest creates a test controller in the NotStarted state.
func NewTest(cfg Config) *Test {
	return &Test{cfg: cfg}
}

// Start begins a fresh test run over d. An empty deck lands directly in
// Results with a 0/0 score and no card ever shown.
func (t *Test) Start(d models.Deck) {
	t.deck = d
	n := len(d.Cards)
	t.queue = Shuffle(n, t.cfg.Rand)
	t.position = 0
	t.revealed = false
	t.score = Score{Total: n}
	if n == 0 {
		t.state = Results
		if t.cfg.Notifier != nil {
			t.cfg.Notifier.ResultsReady(t.score)
		}
		return
	}
	t.state = InProgress
	t.notifyCard()
}

// Reveal toggles the back of the current card. Ignored outside
// InProgress.
func (t *Test) Reveal() {
	if t.state != InProgress {
		return
	}
	t.revealed = !t.revealed
	t.notifyCard()
}

// Answer scores the current card and moves on. Answering the last card
// makes the session terminal; further calls are ignored.
func (t *Test) Answer(correct bool) {
	if t.state != InProgress {
		return
	}
	if correct {
		t.score.Correct++
	}
	if t.position+1 == len(t.queue) {
		t.state = Results
		if t.cfg.Notifier != nil {
			t.cfg.Notifier.ResultsReady(t.score)
		}
		return
	}
	t.position++
	t.revealed = false
	t.notifyCard()
}

// State returns the lifecycle state of the session.
func (t *Test) State() State {
	return t.state
}

// Score returns the tally so far; once the session is in Results it is
// the final score.
func (t *Test) Score() Score {
	return t.score
}

// Current returns the card under test. ok is false unless the session
// is InProgress.
func (t *Test) Current() (CardView, bool) {
	if t.state != InProgress || t.position >= len(t.queue) {
		return CardView{}, false
	}
	idx := t.queue[t.position]
	if idx < 0 || idx >= len(t.deck.Cards) {
		return CardView{}, false
	}
	return CardView{
		Card:     t.deck.Cards[idx],
		ShowBack: t.revealed,
		Index:    t.position + 1,
		Total:    len(t.queue),
	}, true
}

func (t *Test) notifyCard() {
	if t.cfg.Notifier == nil {
		return
	}
	if view, ok := t.Current(); ok {
		t.cfg.Notifier.CardChanged(view)
	}
}
