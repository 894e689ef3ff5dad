package timer

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"studyroom-backend/internal/models"
)

// Clock supplies the wall-clock "now" used on every evaluation; injectable
// for tests.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// MinRecordSeconds is the floor below which a participant's session result
// is discarded instead of becoming a StudyRecord.
const MinRecordSeconds = 10

var (
	ErrSessionFinished = errors.New("session already finished")
	ErrNotParticipant  = errors.New("user is not a session participant")
)

type participant struct {
	userID      uuid.UUID
	joined      bool
	accumulated time.Duration
	exitCount   int
	ended       bool
	// resumeAt marks where accumulation left off; valid while joined
	// during the running phase.
	resumeAt time.Time
}

// Session is the shared study-timer state machine. Phase transitions are
// driven purely by the timestamps passed in: Waiting → Running at the start
// time, Running → Finished (one-shot) at the end time. The session clock is
// authoritative; participant absence never delays it. Not safe for
// concurrent use; the coordinator owning a session serializes access.
type Session struct {
	ID      uuid.UUID
	GroupID uuid.UUID
	Goal    string
	Subject string
	Purpose string
	Start   time.Time
	End     time.Time
	phase   string
	parts   map[uuid.UUID]*participant
}

func NewSession(m models.GroupSession) *Session {
	return &Session{
		ID:      m.ID,
		GroupID: m.GroupID,
		Goal:    m.Goal,
		Subject: m.Subject,
		Purpose: m.Purpose,
		Start:   m.StartTime,
		End:     m.EndTime,
		phase:   models.SessionWaiting,
		parts:   make(map[uuid.UUID]*participant),
	}
}

// Restore re-seeds a participant from persisted state, used when the
// coordinator reloads unfinished sessions after a restart.
func (s *Session) Restore(p models.SessionParticipant, now time.Time) {
	s.advance(now)
	part := &participant{
		userID:      p.UserID,
		joined:      p.Joined,
		accumulated: time.Duration(p.AccumulatedSeconds) * time.Second,
		exitCount:   p.ExitCount,
		ended:       p.Ended,
	}
	if part.joined && s.phase == models.SessionRunning {
		part.resumeAt = maxTime(now, s.Start)
	}
	s.parts[p.UserID] = part
}

func (s *Session) Phase() string { return s.phase }

// Tick re-evaluates the machine against now and reports whether this call
// performed the one-shot transition to Finished.
func (s *Session) Tick(now time.Time) bool {
	return s.advance(now)
}

// advance moves the phase forward as far as now allows. All public
// operations call it first so late evaluation never skews accumulation.
func (s *Session) advance(now time.Time) bool {
	if s.phase == models.SessionWaiting && !now.Before(s.Start) {
		s.phase = models.SessionRunning
		// Participants who joined the waiting room start accumulating at
		// the official start, not at their join time.
		for _, p := range s.parts {
			if p.joined {
				p.resumeAt = s.Start
			}
		}
	}

	if s.phase == models.SessionRunning {
		for _, p := range s.parts {
			s.accrue(p, now)
		}
		if !now.Before(s.End) {
			s.phase = models.SessionFinished
			return true
		}
	}
	return false
}

// accrue adds the wall-clock seconds since the participant last resumed,
// clamped so nothing past min(now, End) is ever counted.
func (s *Session) accrue(p *participant, now time.Time) {
	if !p.joined || s.phase == models.SessionWaiting {
		return
	}
	until := now
	if until.After(s.End) {
		until = s.End
	}
	if until.After(p.resumeAt) {
		p.accumulated += until.Sub(p.resumeAt)
	}
	p.resumeAt = until
}

// Join adds a participant; joining after the session started is a valid
// late join. Idempotent for an already-joined participant.
func (s *Session) Join(userID uuid.UUID, now time.Time) error {
	s.advance(now)
	if s.phase == models.SessionFinished {
		return ErrSessionFinished
	}

	p, ok := s.parts[userID]
	if !ok {
		p = &participant{userID: userID}
		s.parts[userID] = p
	}
	if p.joined {
		return nil
	}

	p.joined = true
	p.ended = false
	if s.phase == models.SessionRunning {
		p.resumeAt = now
	}
	return nil
}

// Leave suspends a participant's accumulation and counts one exit. Leaving
// and rejoining within the same session is allowed.
func (s *Session) Leave(userID uuid.UUID, now time.Time) error {
	s.advance(now)
	if s.phase == models.SessionFinished {
		return ErrSessionFinished
	}

	p, ok := s.parts[userID]
	if !ok || !p.joined {
		return ErrNotParticipant
	}

	s.accrue(p, now)
	p.joined = false
	p.exitCount++
	return nil
}

// EndParticipant finishes the session early for one participant and emits
// their summary. A manual end before the official end counts as an exit; an
// end at or after it does not (the automatic finish already happened).
func (s *Session) EndParticipant(userID uuid.UUID, now time.Time) (models.SessionSummary, error) {
	s.advance(now)

	p, ok := s.parts[userID]
	if !ok {
		return models.SessionSummary{}, ErrNotParticipant
	}

	if s.phase != models.SessionFinished {
		s.accrue(p, now)
		if p.joined {
			p.exitCount++
		}
	}
	p.joined = false
	p.ended = true

	return s.summaryFor(p), nil
}

// FinishSummaries returns summaries for every participant who had not
// already ended manually. Only meaningful once the phase is Finished.
func (s *Session) FinishSummaries() []models.SessionSummary {
	var out []models.SessionSummary
	for _, id := range s.participantIDs() {
		p := s.parts[id]
		if p.ended {
			continue
		}
		p.joined = false
		p.ended = true
		out = append(out, s.summaryFor(p))
	}
	return out
}

func (s *Session) summaryFor(p *participant) models.SessionSummary {
	total := int(p.accumulated / time.Second)
	return models.SessionSummary{
		SessionID:     s.ID,
		UserID:        p.userID,
		TotalSeconds:  total,
		ExitCount:     p.exitCount,
		Subject:       s.Subject,
		Purpose:       s.Purpose,
		Participants:  s.participantIDs(),
		RecordCreated: total >= MinRecordSeconds,
	}
}

// Snapshot returns the persistable state of one participant.
func (s *Session) Snapshot(userID uuid.UUID) (models.SessionParticipant, bool) {
	p, ok := s.parts[userID]
	if !ok {
		return models.SessionParticipant{}, false
	}
	return models.SessionParticipant{
		SessionID:          s.ID,
		UserID:             p.userID,
		Joined:             p.joined,
		AccumulatedSeconds: int(p.accumulated / time.Second),
		ExitCount:          p.exitCount,
		Ended:              p.ended,
	}, true
}

// JoinedIDs lists currently joined participants in stable order.
func (s *Session) JoinedIDs() []uuid.UUID {
	var ids []uuid.UUID
	for _, id := range s.participantIDs() {
		if s.parts[id].joined {
			ids = append(ids, id)
		}
	}
	return ids
}

// participantIDs lists everyone who ever joined, in stable order.
func (s *Session) participantIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s.parts))
	for id := range s.parts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// SecondsRemaining reports time left until the end, never negative.
func (s *Session) SecondsRemaining(now time.Time) int {
	if !now.Before(s.End) {
		return 0
	}
	return int(s.End.Sub(now) / time.Second)
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}
