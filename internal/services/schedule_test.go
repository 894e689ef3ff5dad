package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"studyroom-backend/internal/models"
)

func item(title string, start, end time.Time) models.ScheduleItem {
	return models.ScheduleItem{
		ID:        uuid.New(),
		Title:     title,
		StartTime: start,
		EndTime:   end,
	}
}

func TestFirstConflict(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	at := func(h, m int) time.Time { return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute) }

	existing := []models.ScheduleItem{
		item("morning math", at(9, 0), at(10, 0)),
		item("english words", at(10, 0), at(11, 0)),
	}

	tests := []struct {
		name  string
		start time.Time
		end   time.Time
		want  string
	}{
		{"identical interval conflicts", at(10, 0), at(11, 0), "english words"},
		{"before everything", at(7, 0), at(8, 0), ""},
		{"exactly after last", at(11, 0), at(12, 0), ""},
		{"straddles first", at(9, 30), at(10, 30), "morning math"},
		{"contained in second", at(10, 15), at(10, 45), "english words"},
		{"covers both, first wins", at(8, 30), at(12, 0), "morning math"},
		{"ends exactly at first start", at(8, 0), at(9, 0), ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := FirstConflict(tc.start, tc.end, existing, uuid.Nil)
			if got != tc.want {
				t.Errorf("FirstConflict(%v, %v) = %q, want %q", tc.start, tc.end, got, tc.want)
			}
		})
	}
}

func TestFirstConflict_TouchingEndpoints(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	first := item("first", day.Add(9*time.Hour), day.Add(10*time.Hour))
	second := item("second", day.Add(10*time.Hour), day.Add(11*time.Hour))

	// 09:00-10:00 and 10:00-11:00 on the same day: no overlap either way.
	if got := FirstConflict(second.StartTime, second.EndTime, []models.ScheduleItem{first}, uuid.Nil); got != "" {
		t.Errorf("Expected no conflict for touching intervals, got %q", got)
	}
	if got := FirstConflict(first.StartTime, first.EndTime, []models.ScheduleItem{second}, uuid.Nil); got != "" {
		t.Errorf("Expected no conflict for touching intervals, got %q", got)
	}
}

func TestFirstConflict_SelfExclusion(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	edited := item("edited", day.Add(9*time.Hour), day.Add(10*time.Hour))

	// Editing an item to a wider window must not conflict with itself.
	got := FirstConflict(day.Add(9*time.Hour), day.Add(10*time.Hour+30*time.Minute),
		[]models.ScheduleItem{edited}, edited.ID)
	if got != "" {
		t.Errorf("Expected edited item to be excluded, got conflict %q", got)
	}
}

func TestFirstConflict_PostponedExcluded(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	postponed := item("postponed", day.Add(9*time.Hour), day.Add(10*time.Hour))
	postponed.IsPostponed = true

	got := FirstConflict(day.Add(9*time.Hour), day.Add(10*time.Hour),
		[]models.ScheduleItem{postponed}, uuid.Nil)
	if got != "" {
		t.Errorf("Expected postponed items to be skipped, got conflict %q", got)
	}
}
