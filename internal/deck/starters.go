package deck

import "github.com/marbeck/flashdeck/internal/models"

// Starters returns the built-in decks used to seed an empty store.
// Ids are stable so reseeding never duplicates them.
func Starters() []models.Deck {
	return []models.Deck{
		{
			ID:   "starter-letters",
			Name: "Letters",
			Cards: []models.Card{
				{ID: "starter-letters-a", Front: "A", Back: "a", Hint: "apple"},
				{ID: "starter-letters-b", Front: "B", Back: "b", Hint: "ball"},
				{ID: "starter-letters-c", Front: "C", Back: "c", Hint: "cat"},
				{ID: "starter-letters-d", Front: "D", Back: "d", Hint: "dog"},
				{ID: "starter-letters-e", Front: "E", Back: "e", Hint: "egg"},
				{ID: "starter-letters-f", Front: "F", Back: "f", Hint: "fish"},
			},
		},
		{
			ID:   "starter-sight-words",
			Name: "Sight words",
			Cards: []models.Card{
				{ID: "starter-sight-the", Front: "the"},
				{ID: "starter-sight-and", Front: "and"},
				{ID: "starter-sight-see", Front: "see"},
				{ID: "starter-sight-can", Front: "can"},
				{ID: "starter-sight-like", Front: "like"},
				{ID: "starter-sight-play", Front: "play"},
			},
		},
		{
			ID:   "starter-numbers",
			Name: "Numbers",
			Cards: []models.Card{
				{ID: "starter-numbers-1", Front: "1", Back: "one"},
				{ID: "starter-numbers-2", Front: "2", Back: "two"},
				{ID: "starter-numbers-3", Front: "3", Back: "three"},
				{ID: "starter-numbers-4", Front: "4", Back: "four"},
				{ID: "starter-numbers-5", Front: "5", Back: "five"},
			},
		},
	}
}
