package models

import (
	"time"

	"github.com/google/uuid"
)

type Group struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	LeaderID   uuid.UUID `json:"leader_id"`
	InviteCode string    `json:"invite_code"`
	CreatedAt  time.Time `json:"created_at"`
}

type GroupMember struct {
	GroupID  uuid.UUID `json:"group_id"`
	UserID   uuid.UUID `json:"user_id"`
	Nickname string    `json:"nickname"`
	JoinedAt time.Time `json:"joined_at"`
}
