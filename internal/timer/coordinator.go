package timer

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"studyroom-backend/internal/models"
	"studyroom-backend/internal/services"
)

// SessionStore is the slice of the session repository the coordinator
// needs to persist machine state.
type SessionStore interface {
	ListUnfinished(ctx context.Context) ([]models.GroupSession, error)
	ListParticipants(ctx context.Context, sessionID uuid.UUID) ([]models.SessionParticipant, error)
	UpdatePhase(ctx context.Context, id uuid.UUID, phase string) error
	UpsertJoin(ctx context.Context, sessionID, userID uuid.UUID) error
	SaveParticipant(ctx context.Context, p *models.SessionParticipant) error
}

// RecordStore receives the study records emitted when sessions finish.
type RecordStore interface {
	Create(ctx context.Context, rec *models.StudyRecord) error
}

// StudyRewarder re-evaluates a user's daily character reward after a new
// record lands.
type StudyRewarder interface {
	RewardStudy(ctx context.Context, userID uuid.UUID, day time.Time) error
}

// Coordinator owns every live session machine and re-evaluates them on a
// fixed tick. It is the single logical owner of session state: handlers go
// through it, so the machines themselves need no locking of their own.
type Coordinator struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session

	clock       Clock
	sessionRepo SessionStore
	recordRepo  RecordStore
	characters  StudyRewarder
	pubsub      *redis.Client
	tick        time.Duration
	stopChan    chan struct{}
}

func NewCoordinator(
	clock Clock,
	sessionRepo SessionStore,
	recordRepo RecordStore,
	characters StudyRewarder,
	pubsub *redis.Client,
	tick time.Duration,
) *Coordinator {
	return &Coordinator{
		sessions:    make(map[uuid.UUID]*Session),
		clock:       clock,
		sessionRepo: sessionRepo,
		recordRepo:  recordRepo,
		characters:  characters,
		pubsub:      pubsub,
		tick:        tick,
		stopChan:    make(chan struct{}),
	}
}

// Load repopulates the coordinator from unfinished sessions in the store,
// called once at startup.
func (c *Coordinator) Load(ctx context.Context) error {
	unfinished, err := c.sessionRepo.ListUnfinished(ctx)
	if err != nil {
		return err
	}

	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, m := range unfinished {
		s := NewSession(m)
		participants, err := c.sessionRepo.ListParticipants(ctx, m.ID)
		if err != nil {
			return err
		}
		for _, p := range participants {
			s.Restore(p, now)
		}
		c.sessions[m.ID] = s
	}

	if len(c.sessions) > 0 {
		log.Printf("Restored %d unfinished group sessions", len(c.sessions))
	}
	return nil
}

func (c *Coordinator) Start() {
	go c.run()
}

func (c *Coordinator) Stop() {
	select {
	case <-c.stopChan:
		return
	default:
		close(c.stopChan)
	}
}

func (c *Coordinator) run() {
	ticker := time.NewTicker(c.tick)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopChan:
			return
		case <-ticker.C:
			c.evaluateAll(context.Background())
		}
	}
}

func (c *Coordinator) evaluateAll(ctx context.Context) {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for id, s := range c.sessions {
		prevPhase := s.Phase()
		s.Tick(now)

		// Finalize on the observed phase, never on the transition return:
		// joins, leaves and status polls also advance the machine, so the
		// one-shot transition may have been consumed between ticks.
		if s.Phase() == models.SessionFinished {
			c.finishLocked(ctx, s)
			delete(c.sessions, id)
			continue
		}

		if prevPhase != s.Phase() {
			if err := c.sessionRepo.UpdatePhase(ctx, id, s.Phase()); err != nil {
				log.Printf("session %s: failed to persist phase %s: %v", id, s.Phase(), err)
			}
		}

		if s.Phase() == models.SessionRunning {
			c.heartbeatLocked(ctx, s)
		}

		c.publishUpdate(ctx, s, now)
	}
}

// heartbeatLocked persists joined participants' accumulation every tick so
// a restart resumes from the last evaluation instead of the join row.
// Caller holds the mutex.
func (c *Coordinator) heartbeatLocked(ctx context.Context, s *Session) {
	for _, id := range s.JoinedIDs() {
		if err := c.persistParticipant(ctx, s, id); err != nil {
			log.Printf("session %s: %v", s.ID, err)
		}
	}
}

// Track registers a newly created session with the machine.
func (c *Coordinator) Track(m models.GroupSession) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sessions[m.ID] = NewSession(m)
}

// Join adds a participant to a live session. Membership is persisted as an
// idempotent upsert so concurrent joins from different participants
// commute.
func (c *Coordinator) Join(ctx context.Context, sessionID, userID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[sessionID]
	if !ok {
		return ErrSessionFinished
	}

	now := c.clock.Now()
	if err := s.Join(userID, now); err != nil {
		return err
	}

	if err := c.sessionRepo.UpsertJoin(ctx, sessionID, userID); err != nil {
		// State already advanced; surface the failure without rolling back.
		return &services.PersistenceError{Op: "session join", Err: err}
	}

	c.publishUpdate(ctx, s, now)
	return nil
}

// Leave suspends a participant. The exit is counted in the machine and the
// snapshot persisted.
func (c *Coordinator) Leave(ctx context.Context, sessionID, userID uuid.UUID) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[sessionID]
	if !ok {
		return ErrSessionFinished
	}

	now := c.clock.Now()
	if err := s.Leave(userID, now); err != nil {
		return err
	}

	if err := c.persistParticipant(ctx, s, userID); err != nil {
		return err
	}

	c.publishUpdate(ctx, s, now)
	return nil
}

// End finishes the session early for one participant and returns their
// summary. The study record is written best-effort: a persistence failure
// is surfaced alongside the summary, never instead of it.
func (c *Coordinator) End(ctx context.Context, sessionID, userID uuid.UUID) (models.SessionSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[sessionID]
	if !ok {
		return models.SessionSummary{}, ErrSessionFinished
	}

	now := c.clock.Now()
	summary, err := s.EndParticipant(userID, now)
	if err != nil {
		return models.SessionSummary{}, err
	}

	if err := c.persistParticipant(ctx, s, userID); err != nil {
		return summary, err
	}

	if err := c.writeRecord(ctx, s, summary, now); err != nil {
		return summary, err
	}

	c.publishUpdate(ctx, s, now)
	return summary, nil
}

// Status returns the live view of a session for polling clients.
func (c *Coordinator) Status(sessionID uuid.UUID) (models.SessionUpdate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.sessions[sessionID]
	if !ok {
		return models.SessionUpdate{}, false
	}

	now := c.clock.Now()
	s.Tick(now)
	return models.SessionUpdate{
		SessionID:        s.ID,
		Phase:            s.Phase(),
		SecondsRemaining: s.SecondsRemaining(now),
		JoinedUserIDs:    s.JoinedIDs(),
	}, true
}

// finishLocked runs the automatic end-of-session path: summaries for every
// remaining participant, study records for those over the minimum, phase
// persisted, clients notified. Caller holds the mutex.
func (c *Coordinator) finishLocked(ctx context.Context, s *Session) {
	now := c.clock.Now()

	for _, summary := range s.FinishSummaries() {
		if err := c.persistParticipant(ctx, s, summary.UserID); err != nil {
			log.Printf("session %s: %v", s.ID, err)
		}
		if err := c.writeRecord(ctx, s, summary, now); err != nil {
			log.Printf("session %s: %v", s.ID, err)
		}
	}

	if err := c.sessionRepo.UpdatePhase(ctx, s.ID, models.SessionFinished); err != nil {
		log.Printf("session %s: failed to persist finished phase: %v", s.ID, err)
	}

	c.publish(ctx, s.GroupID, models.WSMessage{
		Type:    "session_finished",
		Payload: models.SessionFinishedEvent{SessionID: s.ID, GroupID: s.GroupID},
	})
}

// writeRecord turns a summary into a StudyRecord when it clears the
// 10-second floor and re-evaluates the owner's daily character reward.
func (c *Coordinator) writeRecord(ctx context.Context, s *Session, summary models.SessionSummary, now time.Time) error {
	if !summary.RecordCreated {
		return nil
	}

	rec := &models.StudyRecord{
		UserID:          summary.UserID,
		SubjectName:     summary.Subject,
		DurationSeconds: summary.TotalSeconds,
		Purpose:         summary.Purpose,
		OccurredAt:      now,
	}
	if err := c.recordRepo.Create(ctx, rec); err != nil {
		return &services.PersistenceError{Op: "study record create", Err: err}
	}

	if err := c.characters.RewardStudy(ctx, summary.UserID, now); err != nil {
		return err
	}
	return nil
}

func (c *Coordinator) persistParticipant(ctx context.Context, s *Session, userID uuid.UUID) error {
	snap, ok := s.Snapshot(userID)
	if !ok {
		return ErrNotParticipant
	}
	if err := c.sessionRepo.SaveParticipant(ctx, &snap); err != nil {
		return &services.PersistenceError{Op: "session participant save", Err: err}
	}
	return nil
}

func (c *Coordinator) publishUpdate(ctx context.Context, s *Session, now time.Time) {
	c.publish(ctx, s.GroupID, models.WSMessage{
		Type: "session_update",
		Payload: models.SessionUpdate{
			SessionID:        s.ID,
			Phase:            s.Phase(),
			SecondsRemaining: s.SecondsRemaining(now),
			JoinedUserIDs:    s.JoinedIDs(),
		},
	})
}

func (c *Coordinator) publish(ctx context.Context, groupID uuid.UUID, msg models.WSMessage) {
	if c.pubsub == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := c.pubsub.Publish(ctx, "group_updates:"+groupID.String(), data).Err(); err != nil {
		log.Printf("failed to publish group update: %v", err)
	}
}
