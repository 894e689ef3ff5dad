package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"studyroom-backend/internal/models"
)

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, nickname)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at`

	user.ID = uuid.New()
	user.IsActive = true

	return r.pool.QueryRow(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.Nickname,
	).Scan(&user.CreatedAt)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, email, password_hash, nickname, target_exam, exam_date, is_active, created_at, last_login_at
		FROM users WHERE email = $1`

	err := r.pool.QueryRow(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Nickname,
		&user.TargetExam, &user.ExamDate, &user.IsActive, &user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user := &models.User{}
	query := `SELECT id, email, password_hash, nickname, target_exam, exam_date, is_active, created_at, last_login_at
		FROM users WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &user.Nickname,
		&user.TargetExam, &user.ExamDate, &user.IsActive, &user.CreatedAt, &user.LastLoginAt,
	)
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *UserRepo) Update(ctx context.Context, user *models.User) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE users SET nickname = $1, target_exam = $2, exam_date = $3 WHERE id = $4",
		user.Nickname, user.TargetExam, user.ExamDate, user.ID,
	)
	return err
}

func (r *UserRepo) UpdateLastLogin(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "UPDATE users SET last_login_at = $1 WHERE id = $2", time.Now(), userID)
	return err
}

func (r *UserRepo) Delete(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM users WHERE id = $1", userID)
	return err
}

type DigestRecipient struct {
	ID       uuid.UUID
	Email    string
	Nickname string
}

// ListDigestRecipients returns active users who logged at least one study
// record in the past week.
func (r *UserRepo) ListDigestRecipients(ctx context.Context) ([]DigestRecipient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT u.id, u.email, u.nickname
		FROM users u
		JOIN study_records sr ON sr.user_id = u.id
		WHERE u.is_active = TRUE
		  AND sr.occurred_at >= NOW() - INTERVAL '7 days'
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipients []DigestRecipient
	for rows.Next() {
		var rec DigestRecipient
		if err := rows.Scan(&rec.ID, &rec.Email, &rec.Nickname); err != nil {
			return nil, err
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}
