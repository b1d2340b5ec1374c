// Package deck provides save-time normalization for decks and the
// built-in starter decks used to seed an empty store.
package deck

import (
	"strings"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/marbeck/flashdeck/internal/models"
)

// DefaultName replaces an empty deck name at save time.
const DefaultName = "Untitled deck"

// NewID returns an opaque id for decks and cards.
func NewID() string {
	id, err := gonanoid.New()
	if err != nil {
		// Only fails when the OS random source is unavailable.
		panic(err)
	}
	return id
}

// Normalize returns a copy of d cleaned up for saving: text fields are
// trimmed, cards with an empty front are dropped, an empty name is
// replaced with DefaultName, and missing ids are assigned. Saving never
// fails validation; invalid input degrades to the nearest valid deck.
func Normalize(d models.Deck) models.Deck {
	out := d
	out.Name = strings.TrimSpace(d.Name)
	if out.Name == "" {
		out.Name = DefaultName
	}
	if strings.TrimSpace(out.ID) == "" {
		out.ID = NewID()
	}
	out.Cards = make([]models.Card, 0, len(d.Cards))
	for _, c := range d.Cards {
		c.Front = strings.TrimSpace(c.Front)
		if c.Front == "" {
			continue
		}
		c.Back = strings.TrimSpace(c.Back)
		c.Hint = strings.TrimSpace(c.Hint)
		if c.ID == "" {
			c.ID = NewID()
		}
		out.Cards = append(out.Cards, c)
	}
	return out
}
