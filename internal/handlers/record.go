package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"studyroom-backend/internal/middleware"
	"studyroom-backend/internal/models"
	"studyroom-backend/internal/repository"
	"studyroom-backend/internal/services"
)

type RecordHandler struct {
	recordRepo *repository.StudyRecordRepo
	characters *services.CharacterService
}

func NewRecordHandler(recordRepo *repository.StudyRecordRepo, characters *services.CharacterService) *RecordHandler {
	return &RecordHandler{recordRepo: recordRepo, characters: characters}
}

// Create logs a manual study record (solo timer or retroactive entry).
func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	var req struct {
		SubjectName     string     `json:"subject_name"`
		DurationSeconds int        `json:"duration_seconds"`
		Purpose         string     `json:"purpose"`
		Memo            *string    `json:"memo"`
		OccurredAt      *time.Time `json:"occurred_at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	fields := make(map[string]string)
	if req.SubjectName == "" {
		fields["subject_name"] = "Subject is required"
	}
	if req.DurationSeconds <= 0 {
		fields["duration_seconds"] = "Duration must be positive"
	}
	if !models.ValidPurpose(req.Purpose) {
		fields["purpose"] = "Unknown purpose"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", "Validation failed", fields, r))
		return
	}

	occurredAt := time.Now().UTC()
	if req.OccurredAt != nil {
		occurredAt = req.OccurredAt.UTC()
	}

	rec := &models.StudyRecord{
		UserID:          userID,
		SubjectName:     req.SubjectName,
		DurationSeconds: req.DurationSeconds,
		Purpose:         req.Purpose,
		Memo:            req.Memo,
		OccurredAt:      occurredAt,
	}

	if err := h.recordRepo.Create(r.Context(), rec); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save study record", r))
		return
	}

	// Daily reward thresholds are re-checked after every new record.
	if err := h.characters.RewardStudy(r.Context(), userID, occurredAt); err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

// List returns records in [from, to) (?from=...&to=..., RFC 3339; default
// last 7 days).
func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -7)

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

	writeJSON(w, http.StatusOK, map[string]interface{}{"records": records})
}
