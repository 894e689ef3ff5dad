package services

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"

	"studyroom-backend/internal/models"
)

func record(subject string, seconds int, occurredAt time.Time) models.StudyRecord {
	return models.StudyRecord{
		ID:              uuid.New(),
		UserID:          uuid.New(),
		SubjectName:     subject,
		DurationSeconds: seconds,
		Purpose:         models.PurposeExam,
		OccurredAt:      occurredAt,
	}
}

func TestWeeklyBuckets_EmptyInput(t *testing.T) {
	svc := NewReportService()

	if got := svc.WeeklyBuckets(nil); len(got) != 0 {
		t.Errorf("Expected no buckets for empty input, got %d", len(got))
	}
	if got := svc.MonthlyBuckets(nil); len(got) != 0 {
		t.Errorf("Expected no monthly buckets for empty input, got %d", len(got))
	}
}

func TestWeeklyBuckets_MondayStart(t *testing.T) {
	svc := NewReportService()

	// Sunday 2026-08-30 belongs to the week starting Monday 2026-08-24.
	sunday := time.Date(2026, 8, 30, 14, 0, 0, 0, time.UTC)
	buckets := svc.WeeklyBuckets([]models.StudyRecord{record("math", 1200, sunday)})

	if len(buckets) != 1 {
		t.Fatalf("Expected 1 bucket, got %d", len(buckets))
	}
	wantStart := time.Date(2026, 8, 24, 0, 0, 0, 0, time.UTC)
	if !buckets[0].Start.Equal(wantStart) {
		t.Errorf("Expected week start %v, got %v", wantStart, buckets[0].Start)
	}
	if !buckets[0].End.Equal(wantStart.AddDate(0, 0, 7)) {
		t.Errorf("Expected week end %v, got %v", wantStart.AddDate(0, 0, 7), buckets[0].End)
	}
	if buckets[0].Label != "2026-W35" {
		t.Errorf("Expected label 2026-W35, got %s", buckets[0].Label)
	}
}

func TestWeeklyBuckets_FirstWeekRule(t *testing.T) {
	svc := NewReportService()

	// 2027-01-01 is a Friday: fewer than 4 days of that week fall in 2027,
	// so it belongs to 2026-W53.
	jan1 := time.Date(2027, 1, 1, 9, 0, 0, 0, time.UTC)
	buckets := svc.WeeklyBuckets([]models.StudyRecord{record("english", 600, jan1)})

	if len(buckets) != 1 {
		t.Fatalf("Expected 1 bucket, got %d", len(buckets))
	}
	if buckets[0].Label != "2026-W53" {
		t.Errorf("Expected label 2026-W53, got %s", buckets[0].Label)
	}
}

func TestBuckets_OrderIndependence(t *testing.T) {
	svc := NewReportService()

	base := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	records := []models.StudyRecord{
		record("math", 3600, base),
		record("english", 1800, base.AddDate(0, 0, 1)),
		record("math", 900, base.AddDate(0, 0, 8)),
		record("science", 2700, base.AddDate(0, 0, 9)),
		record("english", 2700, base.AddDate(0, 0, 9)),
	}

	want := svc.WeeklyBuckets(records)

	shuffled := make([]models.StudyRecord, len(records))
	copy(shuffled, records)
	r := rand.New(rand.NewSource(7))
	for trial := 0; trial < 5; trial++ {
		r.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})

		got := svc.WeeklyBuckets(shuffled)
		if len(got) != len(want) {
			t.Fatalf("Bucket count changed under reordering: %d vs %d", len(got), len(want))
		}
		for i := range want {
			if got[i].Label != want[i].Label || got[i].TotalSeconds != want[i].TotalSeconds {
				t.Errorf("Bucket %d differs under reordering: %+v vs %+v", i, got[i], want[i])
			}
			for j := range want[i].Subjects {
				if got[i].Subjects[j] != want[i].Subjects[j] {
					t.Errorf("Subject breakdown differs under reordering: %+v vs %+v",
						got[i].Subjects[j], want[i].Subjects[j])
				}
			}
		}
	}
}

func TestBuckets_SubjectsSortedDescending(t *testing.T) {
	svc := NewReportService()

	day := time.Date(2026, 5, 12, 10, 0, 0, 0, time.UTC)
	buckets := svc.MonthlyBuckets([]models.StudyRecord{
		record("english", 600, day),
		record("math", 5400, day),
		record("science", 600, day),
	})

	if len(buckets) != 1 {
		t.Fatalf("Expected 1 bucket, got %d", len(buckets))
	}

	subjects := buckets[0].Subjects
	if subjects[0].Subject != "math" {
		t.Errorf("Expected math first, got %s", subjects[0].Subject)
	}
	// Tie between english and science broken alphabetically.
	if subjects[1].Subject != "english" || subjects[2].Subject != "science" {
		t.Errorf("Expected tie broken by name, got %s then %s", subjects[1].Subject, subjects[2].Subject)
	}
}

func TestBuckets_WeeklySumsMatchMonthlyTotal(t *testing.T) {
	svc := NewReportService()

	// June 2026: June 1 is a Monday, so all June weeks fall entirely inside
	// the month and weekly totals must sum to the monthly total.
	records := []models.StudyRecord{
		record("math", 3600, time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)),
		record("english", 1200, time.Date(2026, 6, 10, 20, 0, 0, 0, time.UTC)),
		record("science", 7200, time.Date(2026, 6, 17, 7, 30, 0, 0, time.UTC)),
		record("math", 450, time.Date(2026, 6, 28, 23, 0, 0, 0, time.UTC)),
	}

	monthly := svc.MonthlyBuckets(records)
	if len(monthly) != 1 {
		t.Fatalf("Expected 1 monthly bucket, got %d", len(monthly))
	}

	weeklySum := 0
	for _, b := range svc.WeeklyBuckets(records) {
		weeklySum += b.TotalSeconds
	}

	if weeklySum != monthly[0].TotalSeconds {
		t.Errorf("Weekly totals %d do not sum to monthly total %d", weeklySum, monthly[0].TotalSeconds)
	}
}
