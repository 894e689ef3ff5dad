package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"studyroom-backend/internal/middleware"
	"studyroom-backend/internal/services"
)

type CharacterHandler struct {
	characters *services.CharacterService
}

func NewCharacterHandler(characters *services.CharacterService) *CharacterHandler {
	return &CharacterHandler{characters: characters}
}

// Catalog lists every character available to unlock.
func (h *CharacterHandler) Catalog(w http.ResponseWriter, r *http.Request) {
	catalog, err := h.characters.Catalog(r.Context())
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"characters": catalog})
}

// State returns the user's selected character and its progress.
func (h *CharacterHandler) State(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	state, err := h.characters.State(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (h *CharacterHandler) Unlock(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	characterID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid character ID", r))
		return
	}

	if err := h.characters.Unlock(r.Context(), userID, characterID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Character unlocked"})
}

func (h *CharacterHandler) Select(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	characterID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid character ID", r))
		return
	}

	if err := h.characters.Select(r.Context(), userID, characterID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Character selected"})
}

// ConsumeEvolution acknowledges a pending evolution so the client shows
// the animation exactly once.
func (h *CharacterHandler) ConsumeEvolution(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	evolved, err := h.characters.ConsumeEvolution(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"evolved": evolved})
}
