package services

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"

	"studyroom-backend/internal/models"
	"studyroom-backend/internal/repository"
)

const (
	// NotificationQueue is consumed by the worker pool.
	NotificationQueue = "queue:notifications"

	weeklyDigestInterval = 7 * 24 * time.Hour
	digestLastSentPrefix = "digest_last_sent:"
	digestPollInterval   = 1 * time.Hour
)

// NotificationScheduler polls for due schedule reminders and weekly digests
// and enqueues them; actual delivery happens in the worker pool.
type NotificationScheduler struct {
	scheduleRepo *repository.ScheduleRepo
	recordRepo   *repository.StudyRecordRepo
	userRepo     *repository.UserRepo
	reports      *ReportService
	queue        *redis.Client
	pollInterval time.Duration
	stopChan     chan struct{}
}

func NewNotificationScheduler(
	scheduleRepo *repository.ScheduleRepo,
	recordRepo *repository.StudyRecordRepo,
	userRepo *repository.UserRepo,
	reports *ReportService,
	queue *redis.Client,
	pollInterval time.Duration,
) *NotificationScheduler {
	return &NotificationScheduler{
		scheduleRepo: scheduleRepo,
		recordRepo:   recordRepo,
		userRepo:     userRepo,
		reports:      reports,
		queue:        queue,
		pollInterval: pollInterval,
		stopChan:     make(chan struct{}),
	}
}

func (s *NotificationScheduler) Start() {
	go s.loop(s.pollInterval, func(ctx context.Context, now time.Time) {
		s.enqueueDueReminders(ctx, now)
	})
	go s.loop(digestPollInterval, func(ctx context.Context, now time.Time) {
		s.enqueueWeeklyDigests(ctx, now)
	})

	log.Printf("Notification scheduler started")
}

func (s *NotificationScheduler) Stop() {
	select {
	case <-s.stopChan:
		return
	default:
		close(s.stopChan)
	}
}

func (s *NotificationScheduler) loop(interval time.Duration, runFn func(ctx context.Context, now time.Time)) {
	// Run on startup as well as by interval.
	runFn(context.Background(), time.Now().UTC())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			runFn(context.Background(), time.Now().UTC())
		}
	}
}

func (s *NotificationScheduler) enqueueDueReminders(ctx context.Context, now time.Time) {
	due, err := s.scheduleRepo.ListDueReminders(ctx, now)
	if err != nil {
		log.Printf("reminders: failed to list due items: %v", err)
		return
	}

	for _, rem := range due {
		job := models.NotificationJob{
			Type:     models.NotifyScheduleReminder,
			UserID:   rem.UserID,
			Email:    rem.Email,
			Nickname: rem.Nickname,
			ItemID:   rem.ItemID,
			Title:    rem.Title,
			StartsAt: rem.StartsAt,
		}

		if err := s.enqueue(ctx, job); err != nil {
			log.Printf("reminders: failed to enqueue item %s: %v", rem.ItemID, err)
			continue
		}

		// Mark dispatched even if delivery later fails; reminders are
		// fire-and-forget.
		if err := s.scheduleRepo.MarkReminderSent(ctx, rem.ItemID); err != nil {
			log.Printf("reminders: failed to mark item %s sent: %v", rem.ItemID, err)
		}
	}
}

func (s *NotificationScheduler) enqueueWeeklyDigests(ctx context.Context, now time.Time) {
	recipients, err := s.userRepo.ListDigestRecipients(ctx)
	if err != nil {
		log.Printf("weekly digest: failed to list recipients: %v", err)
		return
	}

	for _, recipient := range recipients {
		lastSentRaw, _ := s.queue.Get(ctx, digestLastSentPrefix+recipient.ID.String()).Result()
		if !shouldSendByLastSent(lastSentRaw, weeklyDigestInterval, now) {
			continue
		}

		records, err := s.recordRepo.ListByUserAndRange(ctx, recipient.ID, now.AddDate(0, 0, -7), now)
		if err != nil {
			log.Printf("weekly digest: failed to load records for user %s: %v", recipient.ID, err)
			continue
		}
		if len(records) == 0 {
			continue
		}

		total := 0
		for _, rec := range records {
			total += rec.DurationSeconds
		}

		topSubject := ""
		if weekly := s.reports.WeeklyBuckets(records); len(weekly) > 0 && len(weekly[len(weekly)-1].Subjects) > 0 {
			topSubject = weekly[len(weekly)-1].Subjects[0].Subject
		}

		days, err := s.recordRepo.StudyDays(ctx, recipient.ID, 30)
		if err != nil {
			log.Printf("weekly digest: failed to load study days for user %s: %v", recipient.ID, err)
			continue
		}

		job := models.NotificationJob{
			Type:         models.NotifyWeeklyDigest,
			UserID:       recipient.ID,
			Email:        recipient.Email,
			Nickname:     recipient.Nickname,
			TotalSeconds: total,
			StreakDays:   StreakDays(days, now),
			TopSubject:   topSubject,
		}

		if err := s.enqueue(ctx, job); err != nil {
			log.Printf("weekly digest: failed to enqueue for user %s: %v", recipient.ID, err)
			continue
		}

		if err := s.queue.Set(ctx, digestLastSentPrefix+recipient.ID.String(),
			now.Format(time.RFC3339), weeklyDigestInterval).Err(); err != nil {
			log.Printf("weekly digest: failed to persist last sent at for user %s: %v", recipient.ID, err)
		}
	}
}

func (s *NotificationScheduler) enqueue(ctx context.Context, job models.NotificationJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.queue.RPush(ctx, NotificationQueue, payload).Err()
}

func shouldSendByLastSent(lastSentRaw string, minInterval time.Duration, now time.Time) bool {
	if lastSentRaw == "" {
		return true
	}

	lastSentAt, err := time.Parse(time.RFC3339, lastSentRaw)
	if err != nil {
		return true
	}

	return now.Sub(lastSentAt) >= minInterval
}

// StreakDays counts consecutive study days ending today or yesterday, given
// distinct study days sorted newest first.
func StreakDays(days []time.Time, now time.Time) int {
	if len(days) == 0 {
		return 0
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	expected := today
	if !sameDay(days[0], today) {
		// A streak may still be alive if the last study day was yesterday.
		expected = today.AddDate(0, 0, -1)
		if !sameDay(days[0], expected) {
			return 0
		}
	}

	streak := 0
	for _, d := range days {
		if !sameDay(d, expected) {
			break
		}
		streak++
		expected = expected.AddDate(0, 0, -1)
	}
	return streak
}

func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
