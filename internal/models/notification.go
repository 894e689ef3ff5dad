package models

import (
	"time"

	"github.com/google/uuid"
)

// Notification job types carried on the Redis queue.
const (
	NotifyScheduleReminder = "schedule_reminder"
	NotifyWeeklyDigest     = "weekly_digest"
)

// NotificationJob is the queue payload handed to the worker pool.
type NotificationJob struct {
	Type     string    `json:"type"`
	UserID   uuid.UUID `json:"user_id"`
	Email    string    `json:"email"`
	Nickname string    `json:"nickname"`

	// schedule_reminder fields
	ItemID   uuid.UUID `json:"item_id,omitempty"`
	Title    string    `json:"title,omitempty"`
	StartsAt time.Time `json:"starts_at,omitempty"`

	// weekly_digest fields
	TotalSeconds int    `json:"total_seconds,omitempty"`
	StreakDays   int    `json:"streak_days,omitempty"`
	TopSubject   string `json:"top_subject,omitempty"`
}
