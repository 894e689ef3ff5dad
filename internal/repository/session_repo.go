package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"studyroom-backend/internal/models"
)

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

func (r *SessionRepo) Create(ctx context.Context, s *models.GroupSession) error {
	s.ID = uuid.New()
	s.Phase = models.SessionWaiting

	query := `
		INSERT INTO group_sessions (id, group_id, creator_id, goal, subject, purpose, start_time, end_time, phase)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		s.ID, s.GroupID, s.CreatorID, s.Goal, s.Subject, s.Purpose, s.StartTime, s.EndTime, s.Phase,
	).Scan(&s.CreatedAt)
}

func (r *SessionRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.GroupSession, error) {
	s := &models.GroupSession{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, group_id, creator_id, goal, subject, purpose, start_time, end_time, phase, created_at
		FROM group_sessions WHERE id = $1`, id,
	).Scan(&s.ID, &s.GroupID, &s.CreatorID, &s.Goal, &s.Subject, &s.Purpose,
		&s.StartTime, &s.EndTime, &s.Phase, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// GetActiveByGroup returns the group's unfinished session, if any. A group
// runs at most one session at a time.
func (r *SessionRepo) GetActiveByGroup(ctx context.Context, groupID uuid.UUID) (*models.GroupSession, error) {
	s := &models.GroupSession{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, group_id, creator_id, goal, subject, purpose, start_time, end_time, phase, created_at
		FROM group_sessions
		WHERE group_id = $1 AND phase <> $2
		ORDER BY created_at DESC
		LIMIT 1`, groupID, models.SessionFinished,
	).Scan(&s.ID, &s.GroupID, &s.CreatorID, &s.Goal, &s.Subject, &s.Purpose,
		&s.StartTime, &s.EndTime, &s.Phase, &s.CreatedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// ListUnfinished loads every session the coordinator must keep ticking,
// used to repopulate in-memory state after a restart.
func (r *SessionRepo) ListUnfinished(ctx context.Context) ([]models.GroupSession, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, group_id, creator_id, goal, subject, purpose, start_time, end_time, phase, created_at
		FROM group_sessions
		WHERE phase <> $1
		ORDER BY start_time`, models.SessionFinished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.GroupSession
	for rows.Next() {
		var s models.GroupSession
		if err := rows.Scan(&s.ID, &s.GroupID, &s.CreatorID, &s.Goal, &s.Subject, &s.Purpose,
			&s.StartTime, &s.EndTime, &s.Phase, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *SessionRepo) UpdatePhase(ctx context.Context, id uuid.UUID, phase string) error {
	_, err := r.pool.Exec(ctx, "UPDATE group_sessions SET phase = $1 WHERE id = $2", phase, id)
	return err
}

// UpsertJoin marks a participant joined. Row-level upsert so concurrent
// joins and leaves from different participants never overwrite each other.
func (r *SessionRepo) UpsertJoin(ctx context.Context, sessionID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO session_participants (session_id, user_id, joined)
		VALUES ($1, $2, TRUE)
		ON CONFLICT (session_id, user_id) DO UPDATE SET joined = TRUE`,
		sessionID, userID,
	)
	return err
}

// SaveParticipant persists a participant's accumulation snapshot after a
// leave, manual end, or session finish.
func (r *SessionRepo) SaveParticipant(ctx context.Context, p *models.SessionParticipant) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO session_participants (session_id, user_id, joined, accumulated_seconds, exit_count, ended)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id, user_id) DO UPDATE
		SET joined = $3, accumulated_seconds = $4, exit_count = $5, ended = $6`,
		p.SessionID, p.UserID, p.Joined, p.AccumulatedSeconds, p.ExitCount, p.Ended,
	)
	return err
}

func (r *SessionRepo) ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]models.SessionParticipant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT session_id, user_id, joined, accumulated_seconds, exit_count, ended
		FROM session_participants
		WHERE session_id = $1
		ORDER BY user_id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []models.SessionParticipant
	for rows.Next() {
		var p models.SessionParticipant
		if err := rows.Scan(&p.SessionID, &p.UserID, &p.Joined, &p.AccumulatedSeconds, &p.ExitCount, &p.Ended); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}
