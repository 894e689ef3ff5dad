package models

import (
	"time"

	"github.com/google/uuid"
)

// Character rarity tiers. The tier caps how far a character can level.
const (
	RarityCommon = "common"
	RarityRare   = "rare"
	RarityEpic   = "epic"
)

// Character is a catalog entry users can unlock and select.
type Character struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Rarity string    `json:"rarity"`
}

// CharacterState tracks one user's progress with their selected character.
// Experience only ever increases; level is derived from experience and
// clamped by the character's rarity.
type CharacterState struct {
	UserID         uuid.UUID  `json:"user_id"`
	CharacterID    uuid.UUID  `json:"character_id"`
	Rarity         string     `json:"rarity"`
	Level          int        `json:"level"`
	Experience     int        `json:"experience"`
	Unlocked       bool       `json:"unlocked"`
	LastRewardDate *time.Time `json:"last_reward_date"`
	// RewardStage counts daily thresholds already granted today (0..2).
	RewardStage int `json:"reward_stage"`
	// EvolutionPending is set when a level-up happens and cleared once the
	// client consumes the evolution notification.
	EvolutionPending bool      `json:"evolution_pending"`
	UpdatedAt        time.Time `json:"updated_at"`
}
