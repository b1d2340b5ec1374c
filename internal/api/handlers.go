// Package api implements the Flashdeck REST API using chi.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marbeck/flashdeck/internal/apperr"
	"github.com/marbeck/flashdeck/internal/deckservice"
	"github.com/marbeck/flashdeck/internal/models"
	"github.com/marbeck/flashdeck/internal/session"
)

const maxBodyBytes = 10 << 20 // 10 MiB, shared by deck bodies and uploads

// Handler holds API route handlers.
type Handler struct {
	decks    *deckservice.Service
	sessions *session.Manager
}

// NewHandler creates a new Handler.
func NewHandler(decks *deckservice.Service, sessions *session.Manager) *Handler {
	return &Handler{decks: decks, sessions: sessions}
}

// ListDecks handles GET /api/decks. The response is a bare JSON array
// in stable store order.
func (h *Handler) ListDecks(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.decks.List(r.Context()))
}

// GetDeck handles GET /api/decks/{id}.
func (h *Handler) GetDeck(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	d, err := h.decks.Get(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("deck not found"))
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// CreateDeck handles POST /api/decks. The id is assigned when absent.
// Invalid names and blank cards are normalized away rather than
// rejected; saving never fails validation.
func (h *Handler) CreateDeck(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var d models.Deck
	if !decodeJSON(w, r, &d) {
		return
	}
	created, err := h.decks.Create(r.Context(), d)
	if err != nil {
		if errors.Is(err, apperr.ErrAlreadyExists) {
			writeJSON(w, http.StatusConflict, errorBody("deck already exists"))
		} else {
			slog.Error("create deck failed", slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// ReplaceDeck handles PUT /api/decks/{id} with a full deck body.
func (h *Handler) ReplaceDeck(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	id := chi.URLParam(r, "id")
	var d models.Deck
	if !decodeJSON(w, r, &d) {
		return
	}
	replaced, err := h.decks.Replace(r.Context(), id, d)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			writeJSON(w, http.StatusNotFound, errorBody("deck not found"))
		} else {
			slog.Error("replace deck failed", slog.String("deck", id), slog.String("error", err.Error()))
			writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
		}
		return
	}
	writeJSON(w, http.StatusOK, replaced)
}

// DeleteDeck handles DELETE /api/decks/{id}.
func (h *Handler) DeleteDeck(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.decks.Delete(r.Context(), id); err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("deck not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StartPractice handles POST /api/sessions/practice.
func (h *Handler) StartPractice(w http.ResponseWriter, r *http.Request) {
	h.startSession(w, r, h.sessions.StartPractice)
}

// StartTest handles POST /api/sessions/test.
func (h *Handler) StartTest(w http.ResponseWriter, r *http.Request) {
	h.startSession(w, r, h.sessions.StartTest)
}

func (h *Handler) startSession(w http.ResponseWriter, r *http.Request,
	start func(ctx context.Context, deckID string) (session.State, error),
) {
	var req StartSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.DeckID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("deck_id is required"))
		return
	}
	st, err := start(r.Context(), req.DeckID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("deck not found"))
		return
	}
	writeJSON(w, http.StatusCreated, st)
}

// GetSession handles GET /api/sessions/{id}.
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("session not found"))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// RevealSession handles POST /api/sessions/{id}/reveal.
func (h *Handler) RevealSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.Reveal(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("session not found"))
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// AdvanceSession handles POST /api/sessions/{id}/advance (practice).
func (h *Handler) AdvanceSession(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := h.sessions.Advance(r.Context(), chi.URLParam(r, "id"), req.Correct)
	if err != nil {
		h.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// AnswerSession handles POST /api/sessions/{id}/answer (test).
func (h *Handler) AnswerSession(w http.ResponseWriter, r *http.Request) {
	var req AnswerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	st, err := h.sessions.Answer(r.Context(), chi.URLParam(r, "id"), req.Correct)
	if err != nil {
		h.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// ShuffleSession handles POST /api/sessions/{id}/shuffle (practice).
func (h *Handler) ShuffleSession(w http.ResponseWriter, r *http.Request) {
	st, err := h.sessions.Shuffle(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.sessionError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// EndSession handles DELETE /api/sessions/{id}.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.End(chi.URLParam(r, "id")); err != nil {
		writeJSON(w, http.StatusNotFound, errorBody("session not found"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) sessionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperr.ErrWrongMode):
		writeJSON(w, http.StatusConflict, errorBody("operation does not apply to this session mode"))
	case errors.Is(err, apperr.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody("session not found"))
	default:
		slog.Error("session operation failed", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, errorBody("internal error"))
	}
}
