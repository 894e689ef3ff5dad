package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"studyroom-backend/internal/middleware"
	"studyroom-backend/internal/repository"
)

type UserHandler struct {
	userRepo *repository.UserRepo
}

func NewUserHandler(userRepo *repository.UserRepo) *UserHandler {
	return &UserHandler{userRepo: userRepo}
}

func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateMe changes profile fields: nickname, target exam, exam date.
// Omitted fields keep their current value.
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		Nickname   *string    `json:"nickname"`
		TargetExam *string    `json:"target_exam"`
		ExamDate   *time.Time `json:"exam_date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "User not found", r))
		return
	}

	if req.Nickname != nil {
		if *req.Nickname == "" {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Nickname cannot be empty", r))
			return
		}
		user.Nickname = *req.Nickname
	}
	if req.TargetExam != nil {
		user.TargetExam = req.TargetExam
	}
	if req.ExamDate != nil {
		user.ExamDate = req.ExamDate
	}

	if err := h.userRepo.Update(r.Context(), user); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update profile", r))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *UserHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	if err := h.userRepo.Delete(r.Context(), userID); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete account", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Account deleted"})
}
