package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"studyroom-backend/internal/models"
)

type GroupRepo struct {
	pool *pgxpool.Pool
}

func NewGroupRepo(pool *pgxpool.Pool) *GroupRepo {
	return &GroupRepo{pool: pool}
}

func (r *GroupRepo) Create(ctx context.Context, group *models.Group) error {
	group.ID = uuid.New()

	query := `
		INSERT INTO groups (id, name, leader_id, invite_code)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	if err := r.pool.QueryRow(ctx, query,
		group.ID, group.Name, group.LeaderID, group.InviteCode,
	).Scan(&group.CreatedAt); err != nil {
		return err
	}

	// Leader is always a member.
	return r.AddMember(ctx, group.ID, group.LeaderID)
}

func (r *GroupRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Group, error) {
	group := &models.Group{}
	err := r.pool.QueryRow(ctx,
		"SELECT id, name, leader_id, invite_code, created_at FROM groups WHERE id = $1", id,
	).Scan(&group.ID, &group.Name, &group.LeaderID, &group.InviteCode, &group.CreatedAt)
	if err != nil {
		return nil, err
	}
	return group, nil
}

func (r *GroupRepo) GetByInviteCode(ctx context.Context, code string) (*models.Group, error) {
	group := &models.Group{}
	err := r.pool.QueryRow(ctx,
		"SELECT id, name, leader_id, invite_code, created_at FROM groups WHERE invite_code = $1", code,
	).Scan(&group.ID, &group.Name, &group.LeaderID, &group.InviteCode, &group.CreatedAt)
	if err != nil {
		return nil, err
	}
	return group, nil
}

// AddMember is an idempotent upsert: concurrent joins commute.
func (r *GroupRepo) AddMember(ctx context.Context, groupID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO group_members (group_id, user_id)
		VALUES ($1, $2)
		ON CONFLICT (group_id, user_id) DO NOTHING`,
		groupID, userID,
	)
	return err
}

func (r *GroupRepo) RemoveMember(ctx context.Context, groupID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		"DELETE FROM group_members WHERE group_id = $1 AND user_id = $2",
		groupID, userID,
	)
	return err
}

func (r *GroupRepo) IsMember(ctx context.Context, groupID, userID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)",
		groupID, userID,
	).Scan(&exists)
	return exists, err
}

func (r *GroupRepo) ListMembers(ctx context.Context, groupID uuid.UUID) ([]models.GroupMember, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT gm.group_id, gm.user_id, u.nickname, gm.joined_at
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = $1
		ORDER BY gm.joined_at`, groupID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []models.GroupMember
	for rows.Next() {
		var m models.GroupMember
		if err := rows.Scan(&m.GroupID, &m.UserID, &m.Nickname, &m.JoinedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (r *GroupRepo) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Group, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT g.id, g.name, g.leader_id, g.invite_code, g.created_at
		FROM groups g
		JOIN group_members gm ON gm.group_id = g.id
		WHERE gm.user_id = $1
		ORDER BY g.created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.LeaderID, &g.InviteCode, &g.CreatedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}
