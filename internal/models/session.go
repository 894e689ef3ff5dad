package models

import (
	"time"

	"github.com/google/uuid"
)

// Group session lifecycle phases.
const (
	SessionWaiting  = "waiting"
	SessionRunning  = "running"
	SessionFinished = "finished"
)

// GroupSession is a scheduled shared study-timer window created by a group
// leader. The session clock is authoritative: it starts and ends on time
// regardless of who has joined.
type GroupSession struct {
	ID        uuid.UUID `json:"id"`
	GroupID   uuid.UUID `json:"group_id"`
	CreatorID uuid.UUID `json:"creator_id"`
	Goal      string    `json:"goal"`
	Subject   string    `json:"subject"`
	Purpose   string    `json:"purpose"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
	Phase     string    `json:"phase"`
	CreatedAt time.Time `json:"created_at"`
}

// SessionParticipant is the persisted per-participant state; membership
// rows are upserted so concurrent joins and leaves never clobber each
// other.
type SessionParticipant struct {
	SessionID          uuid.UUID `json:"session_id"`
	UserID             uuid.UUID `json:"user_id"`
	Joined             bool      `json:"joined"`
	AccumulatedSeconds int       `json:"accumulated_seconds"`
	ExitCount          int       `json:"exit_count"`
	Ended              bool      `json:"ended"`
}

// SessionSummary is emitted for a participant when the session finishes or
// the participant ends it manually.
type SessionSummary struct {
	SessionID     uuid.UUID   `json:"session_id"`
	UserID        uuid.UUID   `json:"user_id"`
	TotalSeconds  int         `json:"total_seconds"`
	ExitCount     int         `json:"exit_count"`
	Subject       string      `json:"subject"`
	Purpose       string      `json:"purpose"`
	Participants  []uuid.UUID `json:"participants"`
	RecordCreated bool        `json:"record_created"`
}

// WebSocket message types

type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type SessionUpdate struct {
	SessionID        uuid.UUID   `json:"session_id"`
	Phase            string      `json:"phase"`
	SecondsRemaining int         `json:"seconds_remaining"`
	JoinedUserIDs    []uuid.UUID `json:"joined_user_ids"`
}

type SessionFinishedEvent struct {
	SessionID uuid.UUID `json:"session_id"`
	GroupID   uuid.UUID `json:"group_id"`
}

// API Error response

type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
