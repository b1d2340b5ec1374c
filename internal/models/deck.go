// Package models defines the domain types for Flashdeck.
package models

import "time"

// Card is the unit of study: a front/back/hint text triple with an
// optional picture for pre-readers.
type Card struct {
	ID    string `json:"id" yaml:"id,omitempty"`
	Front string `json:"front" yaml:"front"`
	Back  string `json:"back,omitempty" yaml:"back,omitempty"`
	Hint  string `json:"hint,omitempty" yaml:"hint,omitempty"`
	Image string `json:"image,omitempty" yaml:"image,omitempty"`
}

// Deck is a named, ordered collection of cards. Card order is the
// authoring order; sessions derive their own ordering from it.
type Deck struct {
	ID        string    `json:"id" yaml:"id,omitempty"`
	Name      string    `json:"name" yaml:"name"`
	Cards     []Card    `json:"cards" yaml:"cards"`
	UpdatedAt time.Time `json:"updated_at" yaml:"-"`
}
