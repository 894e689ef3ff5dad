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

const defaultItemDuration = time.Hour
const reminderLeadTime = 10 * time.Minute

type ScheduleService struct {
	repo *repository.ScheduleRepo
}

func NewScheduleService(repo *repository.ScheduleRepo) *ScheduleService {
	return &ScheduleService{repo: repo}
}

// FirstConflict returns the title of the first existing item that overlaps
// the candidate interval [start, end), or "" if none does. Intervals are
// half-open: touching endpoints do not conflict. Postponed items are
// skipped, and excludeID removes the item being edited from consideration.
// Pure and safe to call from any goroutine.
func FirstConflict(start, end time.Time, items []models.ScheduleItem, excludeID uuid.UUID) string {
	for _, item := range items {
		if item.ID == excludeID || item.IsPostponed {
			continue
		}
		if start.Before(item.EndTime) && end.After(item.StartTime) {
			return item.Title
		}
	}
	return ""
}

func (s *ScheduleService) Create(ctx context.Context, userID uuid.UUID, req models.ScheduleItemRequest) (*models.ScheduleItem, error) {
	item, err := s.buildItem(ctx, userID, req, uuid.Nil)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, &PersistenceError{Op: "schedule create", Err: err}
	}
	return item, nil
}

func (s *ScheduleService) Update(ctx context.Context, userID, itemID uuid.UUID, req models.ScheduleItemRequest) (*models.ScheduleItem, error) {
	existing, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Schedule item not found"}
		}
		return nil, err
	}
	if existing.UserID != userID {
		return nil, &ForbiddenError{Message: "Not your schedule item"}
	}

	item, err := s.buildItem(ctx, userID, req, itemID)
	if err != nil {
		return nil, err
	}
	item.ID = itemID
	item.IsCompleted = existing.IsCompleted
	item.IsPostponed = existing.IsPostponed
	item.CreatedAt = existing.CreatedAt

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, &PersistenceError{Op: "schedule update", Err: err}
	}
	return item, nil
}

// buildItem validates the request and runs the overlap check against the
// rest of the owner's day.
func (s *ScheduleService) buildItem(ctx context.Context, userID uuid.UUID, req models.ScheduleItemRequest, excludeID uuid.UUID) (*models.ScheduleItem, error) {
	fieldErrors := make(map[string]string)

	if req.Title == "" {
		fieldErrors["title"] = "Title is required"
	}

	end := req.StartTime.Add(defaultItemDuration)
	if req.EndTime != nil {
		end = *req.EndTime
	}
	if !end.After(req.StartTime) {
		fieldErrors["end_time"] = "End must be after start"
	}

	if len(fieldErrors) > 0 {
		return nil, &ValidationError{Fields: fieldErrors}
	}

	sameDay, err := s.repo.ListByUserAndDay(ctx, userID, req.StartTime.UTC())
	if err != nil {
		return nil, err
	}
	if conflict := FirstConflict(req.StartTime, end, sameDay, excludeID); conflict != "" {
		return nil, &ConflictError{Message: "Overlaps with \"" + conflict + "\""}
	}

	item := &models.ScheduleItem{
		UserID:    userID,
		Title:     req.Title,
		Subject:   req.Subject,
		StartTime: req.StartTime,
		EndTime:   end,
		Reminder:  req.Reminder,
	}
	if req.Reminder {
		at := req.StartTime.Add(-reminderLeadTime)
		item.ReminderAt = &at
	}
	return item, nil
}

func (s *ScheduleService) ListDay(ctx context.Context, userID uuid.UUID, day time.Time) ([]models.ScheduleItem, error) {
	return s.repo.ListByUserAndDay(ctx, userID, day)
}

func (s *ScheduleService) SetCompleted(ctx context.Context, userID, itemID uuid.UUID, completed bool) error {
	return s.ownerOp(ctx, userID, itemID, func() error {
		return s.repo.SetCompleted(ctx, itemID, userID, completed)
	})
}

func (s *ScheduleService) Postpone(ctx context.Context, userID, itemID uuid.UUID) error {
	return s.ownerOp(ctx, userID, itemID, func() error {
		return s.repo.Postpone(ctx, itemID, userID)
	})
}

func (s *ScheduleService) Delete(ctx context.Context, userID, itemID uuid.UUID) error {
	return s.ownerOp(ctx, userID, itemID, func() error {
		return s.repo.Delete(ctx, itemID, userID)
	})
}

func (s *ScheduleService) CancelReminder(ctx context.Context, userID, itemID uuid.UUID) error {
	return s.ownerOp(ctx, userID, itemID, func() error {
		return s.repo.CancelReminder(ctx, itemID, userID)
	})
}

func (s *ScheduleService) ownerOp(ctx context.Context, userID, itemID uuid.UUID, op func() error) error {
	item, err := s.repo.GetByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return &NotFoundError{Message: "Schedule item not found"}
		}
		return err
	}
	if item.UserID != userID {
		return &ForbiddenError{Message: "Not your schedule item"}
	}
	if err := op(); err != nil {
		return &PersistenceError{Op: "schedule op", Err: err}
	}
	return nil
}
