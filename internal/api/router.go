package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/cors"

	"github.com/marbeck/flashdeck/internal/deckservice"
	"github.com/marbeck/flashdeck/internal/session"
)

// NewRouter creates a chi router with all API routes mounted.
// sseHandler, if non-nil, is mounted at GET /events.
// mediaDir is where uploaded card images are stored.
func NewRouter(decks *deckservice.Service, sessions *session.Manager, sseHandler http.Handler, mediaDir string) chi.Router {
	h := NewHandler(decks, sessions)
	mh := NewMediaHandler(mediaDir)

	r := chi.NewRouter()

	// The study UI is a single-page app served from anywhere.
	r.Use(cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowedHeaders: []string{"*"},
	}).Handler)

	// Deck store protocol.
	r.Get("/decks", h.ListDecks)
	r.Post("/decks", h.CreateDeck)
	r.Get("/decks/{id}", h.GetDeck)
	r.Put("/decks/{id}", h.ReplaceDeck)
	r.Delete("/decks/{id}", h.DeleteDeck)

	// Study sessions.
	r.Post("/sessions/practice", h.StartPractice)
	r.Post("/sessions/test", h.StartTest)
	r.Get("/sessions/{id}", h.GetSession)
	r.Post("/sessions/{id}/reveal", h.RevealSession)
	r.Post("/sessions/{id}/advance", h.AdvanceSession)
	r.Post("/sessions/{id}/answer", h.AnswerSession)
	r.Post("/sessions/{id}/shuffle", h.ShuffleSession)
	r.Delete("/sessions/{id}", h.EndSession)

	// Card image uploads.
	r.Post("/media", mh.Upload)

	// Casting channel (SSE).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}

// NewMediaRouter serves stored card images (mounted outside /api).
func NewMediaRouter(mediaDir string) chi.Router {
	mh := NewMediaHandler(mediaDir)
	r := chi.NewRouter()
	r.Get("/{filename}", mh.ServeFile)
	return r
}
