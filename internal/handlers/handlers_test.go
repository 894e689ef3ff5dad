package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"studyroom-backend/internal/services"
)

// ─── Response Helper Tests ───

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()

	writeJSON(rr, http.StatusCreated, map[string]string{"message": "ok"})

	if rr.Code != http.StatusCreated {
		t.Errorf("Expected status 201, got %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected Content-Type 'application/json', got %q", ct)
	}

	var result map[string]string
	if err := json.NewDecoder(rr.Body).Decode(&result); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if result["message"] != "ok" {
		t.Errorf("Expected message 'ok', got %q", result["message"])
	}
}

func TestErrorResp_CarriesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/records", nil)
	req.Header.Set("X-Request-ID", "req-123")

	resp := errorResp("NOT_FOUND", "Session not found", req)

	if resp.Error.Code != "NOT_FOUND" {
		t.Errorf("Expected code NOT_FOUND, got %q", resp.Error.Code)
	}
	if resp.Error.RequestID != "req-123" {
		t.Errorf("Expected request ID 'req-123', got %q", resp.Error.RequestID)
	}
}

func TestErrorRespWithFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/records", nil)

	resp := errorRespWithFields("VALIDATION_ERROR", "Validation failed", map[string]string{
		"subject_name": "Subject is required",
	}, req)

	if resp.Error.Fields["subject_name"] != "Subject is required" {
		t.Errorf("Expected field message, got %v", resp.Error.Fields)
	}
}

// ─── Service Error Mapping Tests ───

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", &services.ValidationError{Fields: map[string]string{"goal": "Goal is required"}}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", &services.ConflictError{Message: `Overlaps with "math review"`}, http.StatusConflict, "CONFLICT"},
		{"not found", &services.NotFoundError{Message: "Schedule item not found"}, http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", &services.UnauthorizedError{Message: "Invalid credentials"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", &services.ForbiddenError{Message: "Not yours"}, http.StatusForbidden, "FORBIDDEN"},
		{"persistence", &services.PersistenceError{Op: "session join", Err: errors.New("connection reset")}, http.StatusInternalServerError, "PERSISTENCE_ERROR"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions", nil)
			rr := httptest.NewRecorder()

			handleServiceError(rr, req, tc.err)

			if rr.Code != tc.wantStatus {
				t.Errorf("Expected status %d, got %d", tc.wantStatus, rr.Code)
			}

			var resp struct {
				Error struct {
					Code string `json:"code"`
				} `json:"error"`
			}
			if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Error.Code != tc.wantCode {
				t.Errorf("Expected code %q, got %q", tc.wantCode, resp.Error.Code)
			}
		})
	}
}

// ─── Request Shape Tests ───

func TestRecordCreate_RequestParsing(t *testing.T) {
	body := map[string]interface{}{
		"subject_name":     "linear algebra",
		"duration_seconds": 1800,
		"purpose":          "exam",
	}
	jsonBody, _ := json.Marshal(body)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/records", bytes.NewReader(jsonBody))
	req.Header.Set("Content-Type", "application/json")

	var parsed struct {
		SubjectName     string `json:"subject_name"`
		DurationSeconds int    `json:"duration_seconds"`
		Purpose         string `json:"purpose"`
	}
	if err := json.NewDecoder(req.Body).Decode(&parsed); err != nil {
		t.Fatalf("Failed to parse request body: %v", err)
	}

	if parsed.SubjectName != "linear algebra" {
		t.Errorf("Expected subject 'linear algebra', got %q", parsed.SubjectName)
	}
	if parsed.DurationSeconds != 1800 {
		t.Errorf("Expected duration 1800, got %d", parsed.DurationSeconds)
	}
}

func TestGenerateInviteCode(t *testing.T) {
	code, err := generateInviteCode()
	if err != nil {
		t.Fatalf("generateInviteCode: %v", err)
	}
	if len(code) != 8 {
		t.Errorf("Expected 8-character code, got %q", code)
	}

	other, err := generateInviteCode()
	if err != nil {
		t.Fatalf("generateInviteCode: %v", err)
	}
	if code == other {
		t.Errorf("Expected distinct codes, got %q twice", code)
	}
}
