package handlers

import (
	"log"
	"net/http"
	"time"

	"studyroom-backend/internal/middleware"
	"studyroom-backend/internal/repository"
	"studyroom-backend/internal/services"
)

type DashboardHandler struct {
	recordRepo *repository.StudyRecordRepo
	userRepo   *repository.UserRepo
}

func NewDashboardHandler(recordRepo *repository.StudyRecordRepo, userRepo *repository.UserRepo) *DashboardHandler {
	return &DashboardHandler{recordRepo: recordRepo, userRepo: userRepo}
}

// Summary returns today's total, this week's total, the current study
// streak, and days remaining until the user's exam.
func (h *DashboardHandler) Summary(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	now := time.Now().UTC()

	todaySeconds, err := h.recordRepo.DailyTotalSeconds(r.Context(), userID, now)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load dashboard", r))
		return
	}

	weekSeconds, err := h.recordRepo.WeeklyTotalSeconds(r.Context(), userID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load dashboard", r))
		return
	}

	days, err := h.recordRepo.StudyDays(r.Context(), userID, 400)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load dashboard", r))
		return
	}
	streak := services.StreakDays(days, now)

	resp := map[string]interface{}{
		"today_seconds": todaySeconds,
		"week_seconds":  weekSeconds,
		"streak_days":   streak,
	}

	user, err := h.userRepo.GetByID(r.Context(), userID)
	if err != nil {
		log.Printf("dashboard: failed to load user %s: %v", userID, err)
	} else if user.ExamDate != nil {
		examDay := user.ExamDate.UTC().Truncate(24 * time.Hour)
		today := now.Truncate(24 * time.Hour)
		resp["days_to_exam"] = int(examDay.Sub(today).Hours() / 24)
		resp["target_exam"] = user.TargetExam
	}

	writeJSON(w, http.StatusOK, resp)
}
