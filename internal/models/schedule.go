package models

import (
	"time"

	"github.com/google/uuid"
)

type ScheduleItem struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Subject     string     `json:"subject"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     time.Time  `json:"end_time"`
	IsCompleted bool       `json:"is_completed"`
	IsPostponed bool       `json:"is_postponed"`
	Reminder    bool       `json:"reminder"`
	ReminderAt  *time.Time `json:"reminder_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

type ScheduleItemRequest struct {
	Title     string     `json:"title"`
	Subject   string     `json:"subject"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
	Reminder  bool       `json:"reminder"`
}
