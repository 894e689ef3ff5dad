package handlers

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"studyroom-backend/internal/middleware"
	"studyroom-backend/internal/models"
	"studyroom-backend/internal/repository"
)

type GroupHandler struct {
	groupRepo *repository.GroupRepo
}

func NewGroupHandler(groupRepo *repository.GroupRepo) *GroupHandler {
	return &GroupHandler{groupRepo: groupRepo}
}

// Create makes a new study group with the caller as leader and first
// member, and returns its invite code.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Name == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Group name is required", r))
		return
	}

	code, err := generateInviteCode()
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create group", r))
		return
	}

	group := &models.Group{
		Name:       req.Name,
		LeaderID:   userID,
		InviteCode: code,
	}
	if err := h.groupRepo.Create(r.Context(), group); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create group", r))
		return
	}

	writeJSON(w, http.StatusCreated, group)
}

// Join adds the caller to the group matching the invite code. Joining a
// group you already belong to is a no-op.
func (h *GroupHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		InviteCode string `json:"invite_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.InviteCode == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invite code is required", r))
		return
	}

	group, err := h.groupRepo.GetByInviteCode(r.Context(), req.InviteCode)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Invalid invite code", r))
		return
	}

	if err := h.groupRepo.AddMember(r.Context(), group.ID, userID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to join group", r))
		return
	}

	writeJSON(w, http.StatusOK, group)
}

// Leave removes the caller from the group. Leaders cannot leave their
// own group.
func (h *GroupHandler) Leave(w http.ResponseWriter, r *http.Request) {
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
	if group.LeaderID == userID {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Leader cannot leave their own group", r))
		return
	}

	if err := h.groupRepo.RemoveMember(r.Context(), groupID, userID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to leave group", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Left group"})
}

// ListMine returns the groups the caller belongs to.
func (h *GroupHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	groups, err := h.groupRepo.ListForUser(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load groups", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"groups": groups})
}

// Members lists a group's members; callers must be members themselves.
func (h *GroupHandler) Members(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	groupID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid group ID", r))
		return
	}

	isMember, err := h.groupRepo.IsMember(r.Context(), groupID, userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load group", r))
		return
	}
	if !isMember {
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", "Not a member of this group", r))
		return
	}

	members, err := h.groupRepo.ListMembers(r.Context(), groupID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load members", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"members": members})
}

// generateInviteCode returns an 8-character uppercase hex code.
func generateInviteCode() (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return fmt.Sprintf("%X", buf), nil
}
