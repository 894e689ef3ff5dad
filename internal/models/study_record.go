package models

import (
	"time"

	"github.com/google/uuid"
)

// Study purposes accepted on records and group sessions.
const (
	PurposeExam       = "exam"
	PurposeAssignment = "assignment"
	PurposeReview     = "review"
	PurposeOther      = "other"
)

func ValidPurpose(p string) bool {
	switch p {
	case PurposeExam, PurposeAssignment, PurposeReview, PurposeOther:
		return true
	}
	return false
}

// StudyRecord is immutable once created. The timer engine creates one when a
// session ends with at least 10 accumulated seconds; manual entries go
// through the same validation.
type StudyRecord struct {
	ID              uuid.UUID `json:"id"`
	UserID          uuid.UUID `json:"user_id"`
	SubjectName     string    `json:"subject_name"`
	DurationSeconds int       `json:"duration_seconds"`
	Purpose         string    `json:"purpose"`
	Memo            *string   `json:"memo"`
	OccurredAt      time.Time `json:"occurred_at"`
	CreatedAt       time.Time `json:"created_at"`
}

// SubjectTotal is one row of a per-subject breakdown, ordered by seconds
// descending in report buckets.
type SubjectTotal struct {
	Subject      string `json:"subject"`
	TotalSeconds int    `json:"total_seconds"`
}

// ReportBucket aggregates records over one calendar week or month.
type ReportBucket struct {
	Label        string         `json:"label"`
	Start        time.Time      `json:"start"`
	End          time.Time      `json:"end"`
	TotalSeconds int            `json:"total_seconds"`
	Subjects     []SubjectTotal `json:"subjects"`
}
