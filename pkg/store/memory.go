package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/candidwatch/go-proctor/pkg/event"
	"github.com/candidwatch/go-proctor/pkg/scoring"
	"github.com/candidwatch/go-proctor/pkg/session"
)

// MemoryStore keeps sessions and events in process memory. It is the
// canonical Store implementation and the backend the others are tested
// against.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*session.Session
	events   map[string][]event.Event

	// AllowTerminalAppends permits event appends to completed or
	// terminated sessions. Default is to reject them.
	AllowTerminalAppends bool
}

// NewMemory creates an empty in-memory store.
func NewMemory() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*session.Session),
		events:   make(map[string][]event.Event),
	}
}

// CreateSession starts a new active session with a perfect score.
func (s *MemoryStore) CreateSession(ctx context.Context, candidateName string) (*session.Session, error) {
	if candidateName == "" {
		return nil, session.NewValidationError("candidate name", "must not be empty")
	}

	sess := &session.Session{
		ID:             uuid.NewString(),
		CandidateName:  candidateName,
		StartTime:      time.Now(),
		Status:         session.StatusActive,
		TotalEvents:    0,
		IntegrityScore: 100,
	}

	s.mu.Lock()
	s.sessions[sess.ID] = sess
	s.events[sess.ID] = nil
	s.mu.Unlock()

	out := *sess
	return &out, nil
}

// GetSession returns a snapshot of a session.
func (s *MemoryStore) GetSession(ctx context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}
	out := *sess
	return &out, nil
}

// UpdateSession applies a partial update. Status changes are validated
// against the lifecycle rules; derived fields are not patchable.
func (s *MemoryStore) UpdateSession(ctx context.Context, id string, patch session.Patch) (*session.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, session.ErrNotFound
	}

	if patch.Status != nil && *patch.Status != sess.Status {
		if !patch.Status.Valid() {
			return nil, session.NewValidationError("status", "unknown status value")
		}
		if !sess.CanTransition(*patch.Status) {
			return nil, session.ErrInvalidTransition
		}
		sess.Status = *patch.Status
		if patch.EndTime != nil {
			sess.EndTime = patch.EndTime
		} else {
			now := time.Now()
			sess.EndTime = &now
		}
	}
	if patch.CandidateName != nil {
		if *patch.CandidateName == "" {
			return nil, session.NewValidationError("candidate name", "must not be empty")
		}
		sess.CandidateName = *patch.CandidateName
	}

	out := *sess
	return &out, nil
}

// ListSessions returns all sessions ordered newest start first.
func (s *MemoryStore) ListSessions(ctx context.Context) ([]*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*session.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		cp := *sess
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].StartTime.After(out[j].StartTime)
	})
	return out, nil
}

// AppendEvent records an event and refreshes the session's derived totals
// in the same critical section, so no reader ever sees a half-applied
// append.
func (s *MemoryStore) AppendEvent(ctx context.Context, sessionID string, draft event.Draft) (*event.Event, error) {
	if err := draft.Validate(); err != nil {
		return nil, session.NewValidationError("event", err.Error())
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, session.ErrNotFound
	}
	if sess.Status.Terminal() && !s.AllowTerminalAppends {
		return nil, session.ErrSessionClosed
	}

	ts := draft.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	ev := event.Event{
		ID:          uuid.NewString(),
		SessionID:   sessionID,
		Type:        draft.Type,
		Severity:    draft.Severity,
		Description: draft.Description,
		Timestamp:   ts,
		Metadata:    draft.Metadata,
	}

	s.events[sessionID] = append(s.events[sessionID], ev)
	sess.TotalEvents = len(s.events[sessionID])
	sess.IntegrityScore = scoring.Score(s.events[sessionID])

	out := ev
	return &out, nil
}

// ListEvents returns a session's events in insertion order.
func (s *MemoryStore) ListEvents(ctx context.Context, sessionID string) ([]event.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, session.ErrNotFound
	}
	return append([]event.Event(nil), s.events[sessionID]...), nil
}

// ListEventsByType filters a session's events by type, preserving order.
func (s *MemoryStore) ListEventsByType(ctx context.Context, sessionID string, t event.Type) ([]event.Event, error) {
	events, err := s.ListEvents(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := make([]event.Event, 0, len(events))
	for _, ev := range events {
		if ev.Type == t {
			out = append(out, ev)
		}
	}
	return out, nil
}

// SessionStats returns the session with its full ledger and aggregates.
func (s *MemoryStore) SessionStats(ctx context.Context, sessionID string) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, session.ErrNotFound
	}

	cp := *sess
	events := append([]event.Event(nil), s.events[sessionID]...)
	duration := cp.Duration().Seconds()

	return &Stats{
		Session:          &cp,
		Events:           events,
		EventsByType:     scoring.CountByType(events),
		EventsBySeverity: scoring.CountBySeverity(events),
		DurationSeconds:  duration,
		EventsPerMinute:  eventsPerMinute(len(events), duration),
	}, nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}
