package handlers

import (
	"net/http"
	"time"

	"studyroom-backend/internal/middleware"
	"studyroom-backend/internal/models"
	"studyroom-backend/internal/repository"
	"studyroom-backend/internal/services"
)

type ReportHandler struct {
	recordRepo *repository.StudyRecordRepo
	reports    *services.ReportService
}

func NewReportHandler(recordRepo *repository.StudyRecordRepo, reports *services.ReportService) *ReportHandler {
	return &ReportHandler{recordRepo: recordRepo, reports: reports}
}

// Weekly returns ISO-week buckets for the requested range
// (?from=...&to=..., RFC 3339; default last 12 weeks).
func (h *ReportHandler) Weekly(w http.ResponseWriter, r *http.Request) {
	h.report(w, r, 12*7, h.reports.WeeklyBuckets)
}

// Monthly returns calendar-month buckets (default last 6 months).
func (h *ReportHandler) Monthly(w http.ResponseWriter, r *http.Request) {
	h.report(w, r, 6*31, h.reports.MonthlyBuckets)
}

func (h *ReportHandler) report(w http.ResponseWriter, r *http.Request, defaultDays int, bucketFn func([]models.StudyRecord) []models.ReportBucket) {
	userID := middleware.GetUserID(r.Context())

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -defaultDays)

	if fromStr := r.URL.Query().Get("from"); fromStr != "" {
		parsed, err := time.Parse(time.RFC3339, fromStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "from must be RFC 3339", r))
			return
		}
		from = parsed
	}
	if toStr := r.URL.Query().Get("to"); toStr != "" {
		parsed, err := time.Parse(time.RFC3339, toStr)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "to must be RFC 3339", r))
			return
		}
		to = parsed
	}

	records, err := h.recordRepo.ListByUserAndRange(r.Context(), userID, from, to)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to load study records", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"buckets": bucketFn(records)})
}
