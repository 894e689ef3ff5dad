package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"studyroom-backend/internal/models"
)

type CharacterRepo struct {
	pool *pgxpool.Pool
}

func NewCharacterRepo(pool *pgxpool.Pool) *CharacterRepo {
	return &CharacterRepo{pool: pool}
}

func (r *CharacterRepo) ListCatalog(ctx context.Context) ([]models.Character, error) {
	rows, err := r.pool.Query(ctx, "SELECT id, name, rarity FROM characters ORDER BY rarity, name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var catalog []models.Character
	for rows.Next() {
		var c models.Character
		if err := rows.Scan(&c.ID, &c.Name, &c.Rarity); err != nil {
			return nil, err
		}
		catalog = append(catalog, c)
	}
	return catalog, rows.Err()
}

func (r *CharacterRepo) GetCharacter(ctx context.Context, id uuid.UUID) (*models.Character, error) {
	c := &models.Character{}
	err := r.pool.QueryRow(ctx, "SELECT id, name, rarity FROM characters WHERE id = $1", id).
		Scan(&c.ID, &c.Name, &c.Rarity)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// GetState returns the user's active character state.
func (r *CharacterRepo) GetState(ctx context.Context, userID uuid.UUID) (*models.CharacterState, error) {
	state := &models.CharacterState{}
	err := r.pool.QueryRow(ctx, `
		SELECT cs.user_id, cs.character_id, c.rarity, cs.level, cs.experience, cs.unlocked,
			cs.last_reward_date, cs.reward_stage, cs.evolution_pending, cs.updated_at
		FROM character_states cs
		JOIN characters c ON c.id = cs.character_id
		WHERE cs.user_id = $1 AND cs.is_selected = TRUE`, userID,
	).Scan(
		&state.UserID, &state.CharacterID, &state.Rarity, &state.Level, &state.Experience,
		&state.Unlocked, &state.LastRewardDate, &state.RewardStage, &state.EvolutionPending, &state.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return state, nil
}

// SaveState writes the mutable progress fields back after a leveling step.
func (r *CharacterRepo) SaveState(ctx context.Context, state *models.CharacterState) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE character_states
		SET level = $1, experience = $2, last_reward_date = $3, reward_stage = $4,
			evolution_pending = $5, updated_at = NOW()
		WHERE user_id = $6 AND character_id = $7`,
		state.Level, state.Experience, state.LastRewardDate, state.RewardStage,
		state.EvolutionPending, state.UserID, state.CharacterID,
	)
	return err
}

// Unlock creates the user's state row for a character if it does not exist.
func (r *CharacterRepo) Unlock(ctx context.Context, userID, characterID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO character_states (user_id, character_id, unlocked)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (user_id, character_id) DO UPDATE SET unlocked = TRUE`,
		userID, characterID,
	)
	return err
}

// Select makes one unlocked character active; the previous selection is
// cleared in the same transaction.
func (r *CharacterRepo) Select(ctx context.Context, userID, characterID uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		"UPDATE character_states SET is_selected = FALSE WHERE user_id = $1", userID); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE character_states SET is_selected = TRUE
		WHERE user_id = $1 AND character_id = $2 AND unlocked = TRUE`,
		userID, characterID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotUnlocked
	}

	return tx.Commit(ctx)
}

func (r *CharacterRepo) ConsumeEvolution(ctx context.Context, userID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE character_states SET evolution_pending = FALSE
		WHERE user_id = $1 AND is_selected = TRUE AND evolution_pending = TRUE`, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
