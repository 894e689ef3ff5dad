package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"studyroom-backend/internal/models"
)

type ScheduleRepo struct {
	pool *pgxpool.Pool
}

func NewScheduleRepo(pool *pgxpool.Pool) *ScheduleRepo {
	return &ScheduleRepo{pool: pool}
}

func (r *ScheduleRepo) Create(ctx context.Context, item *models.ScheduleItem) error {
	item.ID = uuid.New()

	query := `
		INSERT INTO schedule_items (id, user_id, title, subject, start_time, end_time, reminder, reminder_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		item.ID, item.UserID, item.Title, item.Subject,
		item.StartTime, item.EndTime, item.Reminder, item.ReminderAt,
	).Scan(&item.CreatedAt)
}

func (r *ScheduleRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.ScheduleItem, error) {
	item := &models.ScheduleItem{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, title, subject, start_time, end_time, is_completed, is_postponed, reminder, reminder_at, created_at
		FROM schedule_items WHERE id = $1`, id,
	).Scan(
		&item.ID, &item.UserID, &item.Title, &item.Subject, &item.StartTime, &item.EndTime,
		&item.IsCompleted, &item.IsPostponed, &item.Reminder, &item.ReminderAt, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ListByUserAndDay returns all of a user's items whose start falls on the
// given UTC day, postponed ones included; callers filter as needed.
func (r *ScheduleRepo) ListByUserAndDay(ctx context.Context, userID uuid.UUID, day time.Time) ([]models.ScheduleItem, error) {
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 1)

	rows, err := r.pool.Query(ctx, `
		SELECT id, user_id, title, subject, start_time, end_time, is_completed, is_postponed, reminder, reminder_at, created_at
		FROM schedule_items
		WHERE user_id = $1 AND start_time >= $2 AND start_time < $3
		ORDER BY start_time`, userID, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []models.ScheduleItem
	for rows.Next() {
		var item models.ScheduleItem
		if err := rows.Scan(
			&item.ID, &item.UserID, &item.Title, &item.Subject, &item.StartTime, &item.EndTime,
			&item.IsCompleted, &item.IsPostponed, &item.Reminder, &item.ReminderAt, &item.CreatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (r *ScheduleRepo) Update(ctx context.Context, item *models.ScheduleItem) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE schedule_items
		SET title = $1, subject = $2, start_time = $3, end_time = $4, reminder = $5, reminder_at = $6
		WHERE id = $7 AND user_id = $8`,
		item.Title, item.Subject, item.StartTime, item.EndTime,
		item.Reminder, item.ReminderAt, item.ID, item.UserID,
	)
	return err
}

func (r *ScheduleRepo) SetCompleted(ctx context.Context, id, userID uuid.UUID, completed bool) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE schedule_items SET is_completed = $1 WHERE id = $2 AND user_id = $3",
		completed, id, userID,
	)
	return err
}

// Postpone moves the item forward one day and marks it postponed, which
// removes it from overlap checking.
func (r *ScheduleRepo) Postpone(ctx context.Context, id, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE schedule_items
		SET start_time = start_time + INTERVAL '1 day',
			end_time = end_time + INTERVAL '1 day',
			reminder_at = reminder_at + INTERVAL '1 day',
			is_postponed = TRUE
		WHERE id = $1 AND user_id = $2`, id, userID,
	)
	return err
}

func (r *ScheduleRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM schedule_items WHERE id = $1 AND user_id = $2", id, userID)
	return err
}

type DueReminder struct {
	ItemID   uuid.UUID
	UserID   uuid.UUID
	Email    string
	Nickname string
	Title    string
	StartsAt time.Time
}

// ListDueReminders returns reminder-enabled items whose reminder time has
// passed and has not been dispatched yet.
func (r *ScheduleRepo) ListDueReminders(ctx context.Context, now time.Time) ([]DueReminder, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT si.id, si.user_id, u.email, u.nickname, si.title, si.start_time
		FROM schedule_items si
		JOIN users u ON u.id = si.user_id
		WHERE si.reminder = TRUE
		  AND si.reminder_sent = FALSE
		  AND si.reminder_at IS NOT NULL
		  AND si.reminder_at <= $1`, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var due []DueReminder
	for rows.Next() {
		var rem DueReminder
		if err := rows.Scan(&rem.ItemID, &rem.UserID, &rem.Email, &rem.Nickname, &rem.Title, &rem.StartsAt); err != nil {
			return nil, err
		}
		due = append(due, rem)
	}
	return due, rows.Err()
}

func (r *ScheduleRepo) MarkReminderSent(ctx context.Context, itemID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "UPDATE schedule_items SET reminder_sent = TRUE WHERE id = $1", itemID)
	return err
}

// CancelReminder implements the "cancel by id" half of the reminder
// contract without touching the rest of the item.
func (r *ScheduleRepo) CancelReminder(ctx context.Context, itemID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		"UPDATE schedule_items SET reminder = FALSE WHERE id = $1 AND user_id = $2",
		itemID, userID,
	)
	return err
}
