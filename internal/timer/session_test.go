package timer

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"studyroom-backend/internal/models"
)

func testSession(start, end time.Time) *Session {
	return NewSession(models.GroupSession{
		ID:        uuid.New(),
		GroupID:   uuid.New(),
		Goal:      "mock exam drill",
		Subject:   "math",
		Purpose:   models.PurposeExam,
		StartTime: start,
		EndTime:   end,
	})
}

func at(h, m int) time.Time {
	return time.Date(2026, 8, 30, h, m, 0, 0, time.UTC)
}

func TestSession_PhaseTransitions(t *testing.T) {
	s := testSession(at(10, 0), at(11, 0))

	if s.Phase() != models.SessionWaiting {
		t.Fatalf("Expected waiting before start, got %s", s.Phase())
	}

	s.Tick(at(9, 59))
	if s.Phase() != models.SessionWaiting {
		t.Errorf("Expected waiting at 09:59, got %s", s.Phase())
	}

	s.Tick(at(10, 0))
	if s.Phase() != models.SessionRunning {
		t.Errorf("Expected running at 10:00, got %s", s.Phase())
	}

	finished := s.Tick(at(11, 0))
	if !finished {
		t.Error("Expected one-shot finished transition at 11:00")
	}
	if s.Phase() != models.SessionFinished {
		t.Errorf("Expected finished at 11:00, got %s", s.Phase())
	}

	// One-shot: a later tick does not report the transition again.
	if s.Tick(at(11, 1)) {
		t.Error("Finished transition must fire exactly once")
	}
}

func TestSession_ContinuousParticipantClampedAtEnd(t *testing.T) {
	// Join at 10:00, stay past the end: accumulated is clamped to the
	// session window, 3600s, not 3900s.
	s := testSession(at(10, 0), at(11, 0))
	user := uuid.New()

	s.Join(user, at(10, 0))
	for m := 1; m <= 60; m += 7 {
		s.Tick(at(10, m))
	}
	s.Tick(at(11, 5))

	summary, err := s.EndParticipant(user, at(11, 5))
	if err != nil {
		t.Fatalf("EndParticipant failed: %v", err)
	}
	if summary.TotalSeconds != 3600 {
		t.Errorf("Expected 3600s clamped at endTime, got %d", summary.TotalSeconds)
	}
	if summary.ExitCount != 0 {
		t.Errorf("Manual end after the official end is not an exit, got %d", summary.ExitCount)
	}
}

func TestSession_ContinuousAccumulationEqualsElapsed(t *testing.T) {
	s := testSession(at(10, 0), at(11, 0))
	user := uuid.New()

	s.Join(user, at(10, 0))
	s.Tick(at(10, 25))

	snap, ok := s.Snapshot(user)
	if !ok {
		t.Fatal("Expected participant snapshot")
	}
	if snap.AccumulatedSeconds != 25*60 {
		t.Errorf("Expected %d s accumulated at 10:25, got %d", 25*60, snap.AccumulatedSeconds)
	}
}

func TestSession_LeaveAndRejoin(t *testing.T) {
	// Join 10:00, leave 10:20, rejoin 10:40, auto-end 11:00:
	// 20min + 20min = 2400s, exitCount stays 1.
	s := testSession(at(10, 0), at(11, 0))
	user := uuid.New()

	s.Join(user, at(10, 0))
	if err := s.Leave(user, at(10, 20)); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	s.Join(user, at(10, 40))
	s.Tick(at(11, 0))

	summaries := s.FinishSummaries()
	if len(summaries) != 1 {
		t.Fatalf("Expected 1 summary, got %d", len(summaries))
	}
	if summaries[0].TotalSeconds != 2400 {
		t.Errorf("Expected 2400s, got %d", summaries[0].TotalSeconds)
	}
	if summaries[0].ExitCount != 1 {
		t.Errorf("Auto-end must not count as exit; expected 1, got %d", summaries[0].ExitCount)
	}
}

func TestSession_LateJoin(t *testing.T) {
	// The session clock is authoritative: a 10:30 late join into a
	// 10:00-11:00 session accumulates only the remaining half hour.
	s := testSession(at(10, 0), at(11, 0))
	user := uuid.New()

	s.Tick(at(10, 30))
	if err := s.Join(user, at(10, 30)); err != nil {
		t.Fatalf("Late join must be allowed: %v", err)
	}

	s.Tick(at(11, 0))
	summaries := s.FinishSummaries()
	if len(summaries) != 1 || summaries[0].TotalSeconds != 1800 {
		t.Fatalf("Expected 1800s for late joiner, got %+v", summaries)
	}
}

func TestSession_WaitingRoomJoinStartsAtOfficialStart(t *testing.T) {
	s := testSession(at(10, 0), at(11, 0))
	user := uuid.New()

	// Joining the waiting room at 09:45 does not accumulate anything
	// before the official start.
	s.Join(user, at(9, 45))
	s.Tick(at(10, 30))

	snap, _ := s.Snapshot(user)
	if snap.AccumulatedSeconds != 30*60 {
		t.Errorf("Expected 1800s from official start, got %d", snap.AccumulatedSeconds)
	}
}

func TestSession_ManualEndBeforeFinishCountsAsExit(t *testing.T) {
	s := testSession(at(10, 0), at(11, 0))
	user := uuid.New()

	s.Join(user, at(10, 0))
	summary, err := s.EndParticipant(user, at(10, 30))
	if err != nil {
		t.Fatalf("EndParticipant failed: %v", err)
	}
	if summary.TotalSeconds != 1800 {
		t.Errorf("Expected 1800s, got %d", summary.TotalSeconds)
	}
	if summary.ExitCount != 1 {
		t.Errorf("Departure before the natural end is an exit, got %d", summary.ExitCount)
	}
}

func TestSession_JoinAfterFinishedRejected(t *testing.T) {
	s := testSession(at(10, 0), at(11, 0))
	s.Tick(at(11, 0))

	if err := s.Join(uuid.New(), at(11, 1)); err != ErrSessionFinished {
		t.Errorf("Expected ErrSessionFinished, got %v", err)
	}
}

func TestSession_ShortSessionFlaggedForDiscard(t *testing.T) {
	s := testSession(at(10, 0), at(11, 0))
	user := uuid.New()

	s.Join(user, at(10, 0))
	summary, err := s.EndParticipant(user, at(10, 0).Add(7*time.Second))
	if err != nil {
		t.Fatalf("EndParticipant failed: %v", err)
	}
	if summary.TotalSeconds != 7 {
		t.Errorf("Expected 7s, got %d", summary.TotalSeconds)
	}
	if summary.RecordCreated {
		t.Error("Sessions under 10s must not produce a study record")
	}
}

func TestSession_JoinIsIdempotent(t *testing.T) {
	s := testSession(at(10, 0), at(11, 0))
	user := uuid.New()

	s.Join(user, at(10, 0))
	s.Tick(at(10, 10))
	// A duplicate join must not reset the resume point.
	s.Join(user, at(10, 10))
	s.Tick(at(10, 20))

	snap, _ := s.Snapshot(user)
	if snap.AccumulatedSeconds != 20*60 {
		t.Errorf("Duplicate join skewed accumulation: got %d, want %d", snap.AccumulatedSeconds, 20*60)
	}
}

func TestSession_SummaryCarriesParticipantSnapshot(t *testing.T) {
	s := testSession(at(10, 0), at(11, 0))
	a, b := uuid.New(), uuid.New()

	s.Join(a, at(10, 0))
	s.Join(b, at(10, 5))
	s.Leave(b, at(10, 30))
	s.Tick(at(11, 0))

	summaries := s.FinishSummaries()
	if len(summaries) != 2 {
		t.Fatalf("Expected 2 summaries, got %d", len(summaries))
	}
	for _, sum := range summaries {
		if len(sum.Participants) != 2 {
			t.Errorf("Expected snapshot of all 2 participants, got %d", len(sum.Participants))
		}
		if sum.Subject != "math" || sum.Purpose != models.PurposeExam {
			t.Errorf("Summary missing session subject/purpose: %+v", sum)
		}
	}
}
