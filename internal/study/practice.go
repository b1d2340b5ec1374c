package study

import "github.com/marbeck/flashdeck/internal/models"

// PracticeStats tracks running accuracy across an endless practice
// loop. Seen and Correct never decrease and are not reset by reshuffles.
type PracticeStats struct {
	Seen    int `json:"seen"`
	Correct int `json:"correct"`
}

// Practice drives an endless practice loop over one deck. A correctly
// answered card moves toward the back of the queue; a missed card is
// reinserted a few slots ahead so it resurfaces quickly. The queue is
// always a permutation of the deck's card indices: elements are only
// repositioned, never added or removed.
type Practice struct {
	cfg Config

	deck     models.Deck
	queue    []int
	position int
	revealed bool
	stats    PracticeStats
}

// NewPractice creates a practice controller. Call Start before use.
func NewPractice(cfg Config) *Practice {
	return &Practice{cfg: cfg}
}

// Start begins a new practice run over d, shuffling its cards and
// resetting position, reveal state and stats. The first card is
// announced to the notifier.
func (p *Practice) Start(d models.Deck) {
	p.deck = d
	p.queue = Shuffle(len(d.Cards), p.cfg.Rand)
	p.position = 0
	p.revealed = false
	p.stats = PracticeStats{}
	p.notify()
}

// Reveal toggles the back of the current card. Toggling twice restores
// the original state. No-op on an empty queue.
func (p *Practice) Reveal() {
	if len(p.queue) == 0 {
		return
	}
	p.revealed = !p.revealed
	p.notify()
}

// Advance records the answer for the current card and resequences the
// queue. The element count is conserved, so practice never runs out of
// cards. No-op before Start or on an empty deck.
func (p *Practice) Advance(correct bool) {
	if len(p.queue) == 0 {
		return
	}
	cur := p.queue[p.position]
	rest := append(p.queue[:p.position:p.position], p.queue[p.position+1:]...)

	at := len(rest)
	if correct {
		if off := p.cfg.CorrectOffset; off > 0 && p.position+off < len(rest) {
			at = p.position + off
		}
	} else {
		if pos := p.position + p.cfg.wrongOffset(); pos < len(rest) {
			at = pos
		}
	}
	p.queue = insert(rest, at, cur)

	// The old position slot now holds the next card; wrap to the front
	// if it ran off the end.
	if p.position >= len(p.queue) {
		p.position = 0
	}
	p.revealed = false
	p.stats.Seen++
	if correct {
		p.stats.Correct++
	}
	p.notify()
}

// ShuffleNow discards the current ordering and reshuffles the full
// index set. Position and reveal state reset; stats are kept.
func (p *Practice) ShuffleNow() {
	if len(p.queue) == 0 {
		return
	}
	p.queue = Shuffle(len(p.queue), p.cfg.Rand)
	p.position = 0
	p.revealed = false
	p.notify()
}

// Current returns the card at the head of the queue. ok is false when
// the session has no cards.
func (p *Practice) Current() (CardView, bool) {
	if len(p.queue) == 0 || p.position >= len(p.queue) {
		return CardView{}, false
	}
	idx := p.queue[p.position]
	if idx < 0 || idx >= len(p.deck.Cards) {
		return CardView{}, false
	}
	return CardView{
		Card:     p.deck.Cards[idx],
		ShowBack: p.revealed,
		Index:    p.position + 1,
		Total:    len(p.queue),
	}, true
}

// Stats returns the running accuracy counters.
func (p *Practice) Stats() PracticeStats {
	return p.stats
}

func (p *Practice) notify() {
	if p.cfg.Notifier == nil {
		return
	}
	if view, ok := p.Current(); ok {
		p.cfg.Notifier.CardChanged(view)
	}
}
