package timer

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"studyroom-backend/internal/models"
)

type fakeClock struct {
	now time.Time
}

func (f *fakeClock) Now() time.Time { return f.now }

type fakeSessionStore struct {
	sessions     []models.GroupSession
	participants map[uuid.UUID][]models.SessionParticipant
	phases       map[uuid.UUID]string
	saved        map[uuid.UUID]models.SessionParticipant
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{
		participants: make(map[uuid.UUID][]models.SessionParticipant),
		phases:       make(map[uuid.UUID]string),
		saved:        make(map[uuid.UUID]models.SessionParticipant),
	}
}

func (f *fakeSessionStore) ListUnfinished(ctx context.Context) ([]models.GroupSession, error) {
	return f.sessions, nil
}

func (f *fakeSessionStore) ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]models.SessionParticipant, error) {
	return f.participants[sessionID], nil
}

func (f *fakeSessionStore) UpdatePhase(ctx context.Context, id uuid.UUID, phase string) error {
	f.phases[id] = phase
	return nil
}

func (f *fakeSessionStore) UpsertJoin(ctx context.Context, sessionID, userID uuid.UUID) error {
	return nil
}

func (f *fakeSessionStore) SaveParticipant(ctx context.Context, p *models.SessionParticipant) error {
	f.saved[p.UserID] = *p
	return nil
}

type fakeRecordStore struct {
	records []models.StudyRecord
}

func (f *fakeRecordStore) Create(ctx context.Context, rec *models.StudyRecord) error {
	f.records = append(f.records, *rec)
	return nil
}

type fakeRewarder struct {
	calls int
}

func (f *fakeRewarder) RewardStudy(ctx context.Context, userID uuid.UUID, day time.Time) error {
	f.calls++
	return nil
}

func hourSession() models.GroupSession {
	return models.GroupSession{
		ID:        uuid.New(),
		GroupID:   uuid.New(),
		Goal:      "mock exam",
		Subject:   "math",
		Purpose:   models.PurposeExam,
		StartTime: at(10, 0),
		EndTime:   at(11, 0),
	}
}

func TestCoordinator_StatusFollowsSessionClock(t *testing.T) {
	clock := &fakeClock{now: at(9, 30)}
	c := NewCoordinator(clock, nil, nil, nil, nil, time.Second)

	m := models.GroupSession{
		ID:        uuid.New(),
		GroupID:   uuid.New(),
		Goal:      "evening review",
		Subject:   "english",
		Purpose:   models.PurposeReview,
		StartTime: at(10, 0),
		EndTime:   at(11, 0),
	}
	c.Track(m)

	status, ok := c.Status(m.ID)
	if !ok {
		t.Fatal("Expected tracked session to report status")
	}
	if status.Phase != models.SessionWaiting {
		t.Errorf("Expected waiting before start, got %s", status.Phase)
	}

	clock.now = at(10, 15)
	status, _ = c.Status(m.ID)
	if status.Phase != models.SessionRunning {
		t.Errorf("Expected running at 10:15, got %s", status.Phase)
	}
	if status.SecondsRemaining != 45*60 {
		t.Errorf("Expected 2700s remaining, got %d", status.SecondsRemaining)
	}
}

func TestCoordinator_UnknownSession(t *testing.T) {
	c := NewCoordinator(&fakeClock{now: at(9, 0)}, nil, nil, nil, nil, time.Second)

	if _, ok := c.Status(uuid.New()); ok {
		t.Error("Expected no status for untracked session")
	}
}

// A status poll after the end time advances the machine to Finished before
// the coordinator's own tick. The next evaluation must still finalize:
// summaries, records and the persisted phase all depend on it.
func TestCoordinator_FinalizesSessionFinishedBetweenTicks(t *testing.T) {
	clock := &fakeClock{now: at(10, 0)}
	store := newFakeSessionStore()
	records := &fakeRecordStore{}
	rewards := &fakeRewarder{}
	c := NewCoordinator(clock, store, records, rewards, nil, time.Second)

	m := hourSession()
	c.Track(m)

	user := uuid.New()
	if err := c.Join(context.Background(), m.ID, user); err != nil {
		t.Fatalf("Join: %v", err)
	}

	clock.now = at(11, 0).Add(time.Second)
	status, ok := c.Status(m.ID)
	if !ok || status.Phase != models.SessionFinished {
		t.Fatalf("Expected finished status after end time, got %+v ok=%v", status, ok)
	}

	c.evaluateAll(context.Background())

	if _, ok := c.Status(m.ID); ok {
		t.Error("Expected session to be released after finalization")
	}
	if store.phases[m.ID] != models.SessionFinished {
		t.Errorf("Expected finished phase persisted, got %q", store.phases[m.ID])
	}
	if len(records.records) != 1 {
		t.Fatalf("Expected one study record, got %d", len(records.records))
	}
	if records.records[0].DurationSeconds != 3600 {
		t.Errorf("Expected 3600s recorded, got %d", records.records[0].DurationSeconds)
	}
	if records.records[0].UserID != user {
		t.Errorf("Expected record for %s, got %s", user, records.records[0].UserID)
	}
	if rewards.calls != 1 {
		t.Errorf("Expected one reward evaluation, got %d", rewards.calls)
	}
	snap, ok := store.saved[user]
	if !ok || !snap.Ended {
		t.Errorf("Expected ended participant snapshot persisted, got %+v ok=%v", snap, ok)
	}
}

func TestCoordinator_HeartbeatsJoinedParticipants(t *testing.T) {
	clock := &fakeClock{now: at(10, 0)}
	store := newFakeSessionStore()
	c := NewCoordinator(clock, store, &fakeRecordStore{}, &fakeRewarder{}, nil, time.Second)

	m := hourSession()
	c.Track(m)

	user := uuid.New()
	if err := c.Join(context.Background(), m.ID, user); err != nil {
		t.Fatalf("Join: %v", err)
	}

	clock.now = at(10, 10)
	c.evaluateAll(context.Background())

	snap, ok := store.saved[user]
	if !ok {
		t.Fatal("Expected a persisted snapshot while running")
	}
	if snap.AccumulatedSeconds != 600 {
		t.Errorf("Expected 600s accumulated at 10:10, got %d", snap.AccumulatedSeconds)
	}
	if !snap.Joined || snap.Ended {
		t.Errorf("Expected a live snapshot, got %+v", snap)
	}
}

// After a restart, Load must resume a still-joined participant from their
// last persisted accumulation, not from zero.
func TestCoordinator_RestartResumesFromSnapshot(t *testing.T) {
	m := hourSession()
	m.Phase = models.SessionRunning

	user := uuid.New()
	store := newFakeSessionStore()
	store.sessions = []models.GroupSession{m}
	store.participants[m.ID] = []models.SessionParticipant{
		{SessionID: m.ID, UserID: user, Joined: true, AccumulatedSeconds: 600},
	}

	clock := &fakeClock{now: at(10, 20)}
	c := NewCoordinator(clock, store, &fakeRecordStore{}, &fakeRewarder{}, nil, time.Second)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	clock.now = at(10, 30)
	summary, err := c.End(context.Background(), m.ID, user)
	if err != nil {
		t.Fatalf("End: %v", err)
	}

	if summary.TotalSeconds != 1200 {
		t.Errorf("Expected 600s restored plus 600s after restart, got %d", summary.TotalSeconds)
	}
	if summary.ExitCount != 1 {
		t.Errorf("Expected manual end to count one exit, got %d", summary.ExitCount)
	}
}
