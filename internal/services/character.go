package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"studyroom-backend/internal/models"
	"studyroom-backend/internal/repository"
)

// Daily experience thresholds: +1 when accumulated study crosses one hour,
// +1 more when it crosses four hours. At most two grants per calendar day.
const (
	dailyFirstThreshold  = 3600
	dailySecondThreshold = 14400
)

// levelThresholds[i] is the experience required for level i+1.
var levelThresholds = []int{0, 3, 7, 14, 30, 60, 100}

var rarityMaxLevel = map[string]int{
	models.RarityCommon: 3,
	models.RarityRare:   5,
	models.RarityEpic:   7,
}

// LevelForExperience is the step function mapping experience to a level,
// clamped by the rarity's ceiling. Non-decreasing in experience.
func LevelForExperience(experience int, rarity string) int {
	level := 1
	for i, threshold := range levelThresholds {
		if experience >= threshold {
			level = i + 1
		}
	}

	if max, ok := rarityMaxLevel[rarity]; ok && level > max {
		level = max
	}
	return level
}

// rewardStageFor counts how many daily thresholds a day's accumulated
// seconds has crossed (0, 1, or 2).
func rewardStageFor(dailySeconds int) int {
	switch {
	case dailySeconds >= dailySecondThreshold:
		return 2
	case dailySeconds >= dailyFirstThreshold:
		return 1
	default:
		return 0
	}
}

// ApplyDailyStudy advances a character state for the given calendar day and
// daily accumulated seconds. Threshold grants are idempotent: re-crossing a
// threshold already granted today adds nothing. Returns true when the
// post-clamp level increased; the evolution flag is edge-triggered and set
// exactly once per level-up.
func ApplyDailyStudy(state *models.CharacterState, day time.Time, dailySeconds int) bool {
	day = time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)

	// New day resets the per-day grant bookkeeping.
	if state.LastRewardDate == nil || !state.LastRewardDate.Equal(day) {
		state.LastRewardDate = &day
		state.RewardStage = 0
	}

	stage := rewardStageFor(dailySeconds)
	if stage <= state.RewardStage {
		return false
	}

	state.Experience += stage - state.RewardStage
	state.RewardStage = stage

	newLevel := LevelForExperience(state.Experience, state.Rarity)
	if newLevel > state.Level {
		state.Level = newLevel
		state.EvolutionPending = true
		return true
	}
	return false
}

type CharacterService struct {
	characterRepo *repository.CharacterRepo
	recordRepo    *repository.StudyRecordRepo
}

func NewCharacterService(characterRepo *repository.CharacterRepo, recordRepo *repository.StudyRecordRepo) *CharacterService {
	return &CharacterService{characterRepo: characterRepo, recordRepo: recordRepo}
}

func (s *CharacterService) Catalog(ctx context.Context) ([]models.Character, error) {
	return s.characterRepo.ListCatalog(ctx)
}

func (s *CharacterService) State(ctx context.Context, userID uuid.UUID) (*models.CharacterState, error) {
	state, err := s.characterRepo.GetState(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "No character selected"}
		}
		return nil, err
	}
	return state, nil
}

// RewardStudy re-evaluates today's thresholds after a study record lands.
// Called by the timer service; a user with no selected character is not an
// error.
func (s *CharacterService) RewardStudy(ctx context.Context, userID uuid.UUID, day time.Time) error {
	state, err := s.characterRepo.GetState(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil
		}
		return err
	}

	dailyTotal, err := s.recordRepo.DailyTotalSeconds(ctx, userID, day)
	if err != nil {
		return err
	}

	ApplyDailyStudy(state, day, dailyTotal)

	if err := s.characterRepo.SaveState(ctx, state); err != nil {
		return &PersistenceError{Op: "character save", Err: err}
	}
	return nil
}

func (s *CharacterService) Unlock(ctx context.Context, userID, characterID uuid.UUID) error {
	if _, err := s.characterRepo.GetCharacter(ctx, characterID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Message: "Character not found"}
		}
		return err
	}
	return s.characterRepo.Unlock(ctx, userID, characterID)
}

func (s *CharacterService) Select(ctx context.Context, userID, characterID uuid.UUID) error {
	err := s.characterRepo.Select(ctx, userID, characterID)
	if errors.Is(err, repository.ErrNotUnlocked) {
		return &ForbiddenError{Message: "Character is not unlocked"}
	}
	return err
}

// ConsumeEvolution clears the one-shot evolution flag and reports whether
// one was pending.
func (s *CharacterService) ConsumeEvolution(ctx context.Context, userID uuid.UUID) (bool, error) {
	return s.characterRepo.ConsumeEvolution(ctx, userID)
}
