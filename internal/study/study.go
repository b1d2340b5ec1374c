// Package study implements the card sequencing engines behind practice
// and test sessions.
//
// Both controllers are pure state machines over one deck: no I/O, no
// goroutines, no errors. Operations called before Start or on an empty
// deck are no-ops, so callers never have to guard them.
package study

import (
	"math/rand"

	"github.com/marbeck/flashdeck/internal/models"
)

// DefaultWrongOffset is how many slots past the current position a
// missed card is reinserted: it resurfaces after at most two
// intervening cards.
const DefaultWrongOffset = 2

// Config tunes queue resequencing for both session kinds.
// Zero values produce the defaults.
type Config struct {
	// WrongOffset is the reinsertion offset for a missed card.
	// Zero means DefaultWrongOffset.
	WrongOffset int
	// CorrectOffset is the reinsertion offset for a correctly answered
	// card. Zero means the end of the queue, so the card comes back
	// only after every other queued card.
	CorrectOffset int
	// Rand is the random source for shuffles. Nil means the shared
	// global source.
	Rand *rand.Rand
	// Notifier, if set, receives a notification after every state
	// transition.
	Notifier Notifier
}

func (c Config) wrongOffset() int {
	if c.WrongOffset == 0 {
		return DefaultWrongOffset
	}
	return c.WrongOffset
}

// CardView describes the card a session is currently showing.
type CardView struct {
	Card     models.Card `json:"card"`
	ShowBack bool        `json:"showBack"`
	Index    int         `json:"idx"` // 1-based position within the session
	Total    int         `json:"total"`
}

// Score is a running or final test tally. Total is fixed at Start.
type Score struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Notifier receives best-effort session notifications, e.g. for a
// casting display. Implementations must not block; delivery has no
// feedback into session state.
type Notifier interface {
	CardChanged(view CardView)
	ResultsReady(score Score)
}

// Shuffle returns a uniformly random permutation of 0..n-1 using
// Fisher-Yates. A nil rng falls back to the shared global source.
// n = 0 yields an empty (non-nil) sequence.
func Shuffle(n int, rng *rand.Rand) []int {
	queue := make([]int, n)
	for i := range queue {
		queue[i] = i
	}
	intn := rand.Intn
	if rng != nil {
		intn = rng.Intn
	}
	for i := n - 1; i >= 1; i-- {
		j := intn(i + 1)
		queue[i], queue[j] = queue[j], queue[i]
	}
	return queue
}

// insert places v at index at, shifting the tail right by one.
func insert(q []int, at, v int) []int {
	q = append(q, 0)
	copy(q[at+1:], q[at:])
	q[at] = v
	return q
}
