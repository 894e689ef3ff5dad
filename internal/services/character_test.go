package services

import (
	"testing"
	"time"

	"studyroom-backend/internal/models"
)

func TestLevelForExperience(t *testing.T) {
	tests := []struct {
		name       string
		experience int
		rarity     string
		want       int
	}{
		{"zero experience", 0, models.RarityEpic, 1},
		{"just below second threshold", 2, models.RarityEpic, 1},
		{"second threshold", 3, models.RarityEpic, 2},
		{"mid table", 14, models.RarityEpic, 4},
		{"top of table", 100, models.RarityEpic, 7},
		{"beyond table stays at max", 500, models.RarityEpic, 7},
		{"common clamped at 3", 100, models.RarityCommon, 3},
		{"rare clamped at 5", 100, models.RarityRare, 5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := LevelForExperience(tc.experience, tc.rarity)
			if got != tc.want {
				t.Errorf("LevelForExperience(%d, %s) = %d, want %d", tc.experience, tc.rarity, got, tc.want)
			}
		})
	}
}

func TestLevelForExperience_Monotonic(t *testing.T) {
	prev := 0
	for exp := 0; exp <= 150; exp++ {
		level := LevelForExperience(exp, models.RarityEpic)
		if level < prev {
			t.Fatalf("Level decreased from %d to %d at experience %d", prev, level, exp)
		}
		prev = level
	}
}

func TestApplyDailyStudy_ThresholdsIdempotent(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	state := &models.CharacterState{Rarity: models.RarityEpic, Level: 1}

	// 3600s accumulated: first threshold, +1.
	ApplyDailyStudy(state, day, 3600)
	if state.Experience != 1 {
		t.Fatalf("Expected experience 1 after first threshold, got %d", state.Experience)
	}

	// Another 3600s the same day (7200 total): still only one threshold.
	ApplyDailyStudy(state, day, 7200)
	if state.Experience != 1 {
		t.Errorf("Expected experience to stay 1 at 7200s, got %d", state.Experience)
	}

	// Second threshold crossed: one more.
	ApplyDailyStudy(state, day, 14400)
	if state.Experience != 2 {
		t.Errorf("Expected experience 2 after second threshold, got %d", state.Experience)
	}

	// Re-evaluating past the second threshold grants nothing further.
	ApplyDailyStudy(state, day, 20000)
	if state.Experience != 2 {
		t.Errorf("Expected at most +2 per day, got experience %d", state.Experience)
	}
}

func TestApplyDailyStudy_NewDayResets(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	state := &models.CharacterState{Rarity: models.RarityEpic, Level: 1}

	ApplyDailyStudy(state, day, 20000)
	if state.Experience != 2 {
		t.Fatalf("Expected experience 2, got %d", state.Experience)
	}

	nextDay := day.AddDate(0, 0, 1)
	ApplyDailyStudy(state, nextDay, 3600)
	if state.Experience != 3 {
		t.Errorf("Expected new day to grant again, got experience %d", state.Experience)
	}
}

func TestApplyDailyStudy_BothThresholdsAtOnce(t *testing.T) {
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)
	state := &models.CharacterState{Rarity: models.RarityEpic, Level: 1}

	// A single evaluation past 14400s grants both thresholds.
	ApplyDailyStudy(state, day, 15000)
	if state.Experience != 2 {
		t.Errorf("Expected experience 2 from one evaluation, got %d", state.Experience)
	}
}

func TestApplyDailyStudy_EvolutionEdgeTriggered(t *testing.T) {
	state := &models.CharacterState{Rarity: models.RarityEpic, Level: 1, Experience: 2}
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	// Crossing from experience 2 to 3 bumps level 1 → 2.
	leveled := ApplyDailyStudy(state, day, 3600)
	if !leveled {
		t.Fatal("Expected level-up")
	}
	if state.Level != 2 {
		t.Errorf("Expected level 2, got %d", state.Level)
	}
	if !state.EvolutionPending {
		t.Error("Expected evolution flag set on level-up")
	}

	// Flag is edge-triggered: no further level-up, no re-set after consume.
	state.EvolutionPending = false
	leveled = ApplyDailyStudy(state, day, 7200)
	if leveled {
		t.Error("Expected no level-up without new threshold")
	}
	if state.EvolutionPending {
		t.Error("Evolution flag must stay cleared until the next level-up")
	}
}

func TestApplyDailyStudy_ClampBlocksEvolution(t *testing.T) {
	// Common character at its ceiling: more experience never raises level
	// or sets the evolution flag.
	state := &models.CharacterState{Rarity: models.RarityCommon, Level: 3, Experience: 50}
	day := time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC)

	leveled := ApplyDailyStudy(state, day, 15000)
	if leveled {
		t.Error("Expected no level-up past rarity cap")
	}
	if state.Level != 3 {
		t.Errorf("Level must stay at cap 3, got %d", state.Level)
	}
	if state.EvolutionPending {
		t.Error("Evolution flag must not fire at the cap")
	}
	if state.Experience != 52 {
		t.Errorf("Experience still accrues at the cap, expected 52 got %d", state.Experience)
	}
}
