package services

import (
	"fmt"
	"sort"
	"time"

	"studyroom-backend/internal/models"
)

// ReportService groups raw study records into weekly and monthly buckets.
// All methods are pure and deterministic: for a fixed record set the bucket
// boundaries and totals do not depend on input ordering. Safe to call from
// any goroutine.
type ReportService struct{}

func NewReportService() *ReportService {
	return &ReportService{}
}

// WeeklyBuckets groups records into ISO-8601 weeks (Monday start, first
// week of a year is the one containing at least 4 of its days). Empty input
// yields an empty slice.
func (s *ReportService) WeeklyBuckets(records []models.StudyRecord) []models.ReportBucket {
	return buildBuckets(records, func(t time.Time) (string, time.Time, time.Time) {
		year, week := t.ISOWeek()
		start := startOfISOWeek(t)
		return fmt.Sprintf("%04d-W%02d", year, week), start, start.AddDate(0, 0, 7)
	})
}

// MonthlyBuckets groups records into calendar months.
func (s *ReportService) MonthlyBuckets(records []models.StudyRecord) []models.ReportBucket {
	return buildBuckets(records, func(t time.Time) (string, time.Time, time.Time) {
		start := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
		return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month())), start, start.AddDate(0, 1, 0)
	})
}

func buildBuckets(records []models.StudyRecord, keyFn func(time.Time) (string, time.Time, time.Time)) []models.ReportBucket {
	type accumulator struct {
		bucket   models.ReportBucket
		subjects map[string]int
	}

	byKey := make(map[string]*accumulator)

	for _, rec := range records {
		occurred := rec.OccurredAt.UTC()
		label, start, end := keyFn(occurred)

		acc, ok := byKey[label]
		if !ok {
			acc = &accumulator{
				bucket:   models.ReportBucket{Label: label, Start: start, End: end},
				subjects: make(map[string]int),
			}
			byKey[label] = acc
		}

		acc.bucket.TotalSeconds += rec.DurationSeconds
		acc.subjects[rec.SubjectName] += rec.DurationSeconds
	}

	buckets := make([]models.ReportBucket, 0, len(byKey))
	for _, acc := range byKey {
		acc.bucket.Subjects = sortedSubjects(acc.subjects)
		buckets = append(buckets, acc.bucket)
	}

	sort.Slice(buckets, func(i, j int) bool {
		return buckets[i].Start.Before(buckets[j].Start)
	})

	return buckets
}

// sortedSubjects orders a subject breakdown by seconds descending, name
// ascending on ties, so output is stable across map iteration orders.
func sortedSubjects(subjects map[string]int) []models.SubjectTotal {
	out := make([]models.SubjectTotal, 0, len(subjects))
	for name, seconds := range subjects {
		out = append(out, models.SubjectTotal{Subject: name, TotalSeconds: seconds})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalSeconds != out[j].TotalSeconds {
			return out[i].TotalSeconds > out[j].TotalSeconds
		}
		return out[i].Subject < out[j].Subject
	})
	return out
}

// startOfISOWeek returns midnight UTC of the Monday of t's ISO week.
func startOfISOWeek(t time.Time) time.Time {
	t = t.UTC()
	offset := (int(t.Weekday()) + 6) % 7 // Monday=0 ... Sunday=6
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	return day.AddDate(0, 0, -offset)
}
