package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"studyroom-backend/internal/middleware"
	"studyroom-backend/internal/models"
	"studyroom-backend/internal/repository"
	"studyroom-backend/internal/services"
	"studyroom-backend/internal/timer"
)

type SessionHandler struct {
	sessionRepo *repository.SessionRepo
	groupRepo   *repository.GroupRepo
	coordinator *timer.Coordinator
}

func NewSessionHandler(sessionRepo *repository.SessionRepo, groupRepo *repository.GroupRepo, coordinator *timer.Coordinator) *SessionHandler {
	return &SessionHandler{sessionRepo: sessionRepo, groupRepo: groupRepo, coordinator: coordinator}
}

// Create schedules a shared timer session. Only the group leader may
// create one, and a group runs at most one unfinished session at a time.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	groupID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid group ID", r))
		return
	}

	group, err := h.groupRepo.GetByID(r.Context(), groupID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Group not found", r))
		return
	}
	if group.LeaderID != userID {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Only the group leader can start a session", r))
		return
	}

	var req struct {
		Goal      string    `json:"goal"`
		Subject   string    `json:"subject"`
		Purpose   string    `json:"purpose"`
		StartTime time.Time `json:"start_time"`
		EndTime   time.Time `json:"end_time"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := make(map[string]string)
	if req.Goal == "" {
		fields["goal"] = "Goal is required"
	}
	if req.Subject == "" {
		fields["subject"] = "Subject is required"
	}
	if !models.ValidPurpose(req.Purpose) {
		fields["purpose"] = "Unknown purpose"
	}
	if !req.EndTime.After(req.StartTime) {
		fields["end_time"] = "End must be after start"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	if _, err := h.sessionRepo.GetActiveByGroup(r.Context(), groupID); err == nil {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Group already has an active session", r))
		return
	} else if !errors.Is(err, pgx.ErrNoRows) {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create session", r))
		return
	}

	session := &models.GroupSession{
		GroupID:   groupID,
		CreatorID: userID,
		Goal:      req.Goal,
		Subject:   req.Subject,
		Purpose:   req.Purpose,
		StartTime: req.StartTime.UTC(),
		EndTime:   req.EndTime.UTC(),
		Phase:     models.SessionWaiting,
	}
	if err := h.sessionRepo.Create(r.Context(), session); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create session", r))
		return
	}

	h.coordinator.Track(*session)
	writeJSON(w, http.StatusCreated, session)
}

// Join enters the session's waiting room or, once running, starts
// accumulating from the join moment.
func (h *SessionHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	session, err := h.sessionRepo.GetByID(r.Context(), sessionID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Session not found", r))
		return
	}

	isMember, err := h.groupRepo.IsMember(r.Context(), session.GroupID, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to join session", r))
		return
	}
	if !isMember {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Not a member of this group", r))
		return
	}

	if err := h.coordinator.Join(r.Context(), sessionID, userID); err != nil {
		h.writeTimerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Joined session"})
}

// Leave suspends the caller's accumulation and counts an exit. Rejoining
// later resumes from the leave point.
func (h *SessionHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	if err := h.coordinator.Leave(r.Context(), sessionID, userID); err != nil {
		h.writeTimerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Left session"})
}

// End finishes the session early for the caller and returns their summary.
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	summary, err := h.coordinator.End(r.Context(), sessionID, userID)
	if err != nil {
		// A store failure after the machine advanced still yields a valid
		// summary; report it instead of losing the participant's result.
		var pe *services.PersistenceError
		if errors.As(err, &pe) {
			log.Printf("session %s: end persisted partially: %v", sessionID, err)
			writeJSON(w, http.StatusOK, summary)
			return
		}
		h.writeTimerError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// Status reports the live phase and remaining time; after the coordinator
// has released the session it falls back to the persisted row.
func (h *SessionHandler) Status(w http.ResponseWriter, r *http.Request) {
	sessionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid session ID", r))
		return
	}

	if update, ok := h.coordinator.Status(sessionID); ok {
		writeJSON(w, http.StatusOK, update)
		return
	}

	session, err := h.sessionRepo.GetByID(r.Context(), sessionID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Session not found", r))
		return
	}

	writeJSON(w, http.StatusOK, models.SessionUpdate{
		SessionID:        session.ID,
		Phase:            session.Phase,
		SecondsRemaining: 0,
		JoinedUserIDs:    []uuid.UUID{},
	})
}

// ActiveForGroup returns a group's unfinished session, if any.
func (h *SessionHandler) ActiveForGroup(w http.ResponseWriter, r *http.Request) {
	groupID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid group ID", r))
		return
	}

	session, err := h.sessionRepo.GetActiveByGroup(r.Context(), groupID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "No active session", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load session", r))
		return
	}

	writeJSON(w, http.StatusOK, session)
}

func (h *SessionHandler) writeTimerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, timer.ErrSessionFinished):
		writeJSON(w, http.StatusConflict, errorResp("SESSION_FINISHED", "Session has already finished", r))
	case errors.Is(err, timer.ErrNotParticipant):
		writeJSON(w, http.StatusConflict, errorResp("NOT_PARTICIPANT", "You have not joined this session", r))
	default:
		handleServiceError(w, r, err)
	}
}
