package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"studyroom-backend/internal/models"
)

type StudyRecordRepo struct {
	pool *pgxpool.Pool
}

func NewStudyRecordRepo(pool *pgxpool.Pool) *StudyRecordRepo {
	return &StudyRecordRepo{pool: pool}
}

func (r *StudyRecordRepo) Create(ctx context.Context, rec *models.StudyRecord) error {
	rec.ID = uuid.New()

	query := `
		INSERT INTO study_records (id, user_id, subject_name, duration_seconds, purpose, memo, occurred_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		rec.ID, rec.UserID, rec.SubjectName, rec.DurationSeconds, rec.Purpose, rec.Memo, rec.OccurredAt,
	).Scan(&rec.CreatedAt)
}

func (r *StudyRecordRepo) ListByUserAndRange(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]models.StudyRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, subject_name, duration_seconds, purpose, memo, occurred_at, created_at
		FROM study_records
		WHERE user_id = $1 AND occurred_at >= $2 AND occurred_at < $3
		ORDER BY occurred_at`, userID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []models.StudyRecord
	for rows.Next() {
		var rec models.StudyRecord
		if err := rows.Scan(
			&rec.ID, &rec.UserID, &rec.SubjectName, &rec.DurationSeconds,
			&rec.Purpose, &rec.Memo, &rec.OccurredAt, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// DailyTotalSeconds sums all of a user's study seconds on a UTC calendar day.
func (r *StudyRecordRepo) DailyTotalSeconds(ctx context.Context, userID uuid.UUID, day time.Time) (int, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(duration_seconds), 0)
		FROM study_records
		WHERE user_id = $1 AND occurred_at >= $2 AND occurred_at < $3`,
		userID, start, end,
	).Scan(&total)
	return total, err
}

// StudyDays returns the distinct UTC days with at least one record in the
// last n days, newest first. Used for streak computation.
func (r *StudyRecordRepo) StudyDays(ctx context.Context, userID uuid.UUID, n int) ([]time.Time, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT DISTINCT DATE(occurred_at AT TIME ZONE 'UTC') AS d
		FROM study_records
		WHERE user_id = $1 AND occurred_at >= NOW() - ($2 || ' days')::INTERVAL
		ORDER BY d DESC`, userID, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []time.Time
	for rows.Next() {
		var d time.Time
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		days = append(days, d)
	}
	return days, rows.Err()
}

// WeeklyTotalSeconds sums the user's study seconds over the trailing 7 days.
func (r *StudyRecordRepo) WeeklyTotalSeconds(ctx context.Context, userID uuid.UUID) (int, error) {
	var total int
	err := r.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(duration_seconds), 0)
		FROM study_records
		WHERE user_id = $1 AND occurred_at >= NOW() - INTERVAL '7 days'`,
		userID,
	).Scan(&total)
	return total, err
}
