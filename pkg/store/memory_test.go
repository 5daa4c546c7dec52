package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/candidwatch/go-proctor/pkg/event"
	"github.com/candidwatch/go-proctor/pkg/session"
)

func draft(t event.Type, s event.Severity) event.Draft {
	return event.Draft{
		Type:        t,
		Severity:    s,
		Description: "test event",
		Timestamp:   time.Now(),
	}
}

func TestMemoryStore_CreateSession(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	sess, err := s.CreateSession(ctx, "Jane Doe")
	if err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if sess.ID == "" {
		t.Error("expected a session ID")
	}
	if sess.Status != session.StatusActive {
		t.Errorf("status: got %q, want active", sess.Status)
	}
	if sess.IntegrityScore != 100 {
		t.Errorf("score: got %d, want 100", sess.IntegrityScore)
	}
	if sess.TotalEvents != 0 {
		t.Errorf("total events: got %d, want 0", sess.TotalEvents)
	}
}

func TestMemoryStore_GetSession_NotFound(t *testing.T) {
	s := NewMemory()
	_, err := s.GetSession(context.Background(), "nope")
	if !errors.Is(err, session.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_AppendUpdatesDerivedFields(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	sess, _ := s.CreateSession(ctx, "Jane Doe")

	_, err := s.AppendEvent(ctx, sess.ID, draft(event.NoFace, event.SeverityHigh))
	if err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}

	got, _ := s.GetSession(ctx, sess.ID)
	if got.TotalEvents != 1 {
		t.Errorf("total events: got %d, want 1", got.TotalEvents)
	}
	if got.IntegrityScore != 90 {
		t.Errorf("score after one high event: got %d, want 90", got.IntegrityScore)
	}
}

func TestMemoryStore_AppendScoreScenario(t *testing.T) {
	// 3 high + 1 medium = 35 deduction, score 65
	s := NewMemory()
	ctx := context.Background()
	sess, _ := s.CreateSession(ctx, "Jane Doe")

	for i := 0; i < 3; i++ {
		s.AppendEvent(ctx, sess.ID, draft(event.NoFace, event.SeverityHigh))
	}
	s.AppendEvent(ctx, sess.ID, draft(event.FocusLoss, event.SeverityMedium))

	got, _ := s.GetSession(ctx, sess.ID)
	if got.IntegrityScore != 65 {
		t.Errorf("score: got %d, want 65", got.IntegrityScore)
	}
}

func TestMemoryStore_AppendToMissingSession(t *testing.T) {
	s := NewMemory()
	_, err := s.AppendEvent(context.Background(), "nope", draft(event.NoFace, event.SeverityHigh))
	if !errors.Is(err, session.ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_AppendInvalidDraft(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	sess, _ := s.CreateSession(ctx, "Jane Doe")

	_, err := s.AppendEvent(ctx, sess.ID, event.Draft{Type: "bogus", Severity: event.SeverityLow})
	if !session.IsValidation(err) {
		t.Errorf("got %v, want a ValidationError", err)
	}
}

func TestMemoryStore_AppendToClosedSession(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	sess, _ := s.CreateSession(ctx, "Jane Doe")

	completed := session.StatusCompleted
	if _, err := s.UpdateSession(ctx, sess.ID, session.Patch{Status: &completed}); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}

	_, err := s.AppendEvent(ctx, sess.ID, draft(event.NoFace, event.SeverityHigh))
	if !errors.Is(err, session.ErrSessionClosed) {
		t.Errorf("got %v, want ErrSessionClosed", err)
	}

	// Permissive policy restores the reference behavior
	s.AllowTerminalAppends = true
	if _, err := s.AppendEvent(ctx, sess.ID, draft(event.NoFace, event.SeverityHigh)); err != nil {
		t.Errorf("append with permissive policy: %v", err)
	}
}

func TestMemoryStore_EventOrdering(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	sess, _ := s.CreateSession(ctx, "Jane Doe")

	types := []event.Type{event.NoFace, event.FocusLoss, event.NoFace, event.SuspiciousObject}
	var ids []string
	for _, typ := range types {
		ev, err := s.AppendEvent(ctx, sess.ID, draft(typ, event.SeverityLow))
		if err != nil {
			t.Fatalf("AppendEvent: %v", err)
		}
		ids = append(ids, ev.ID)
	}

	events, err := s.ListEvents(ctx, sess.ID)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != len(types) {
		t.Fatalf("got %d events, want %d", len(events), len(types))
	}
	for i := range events {
		if events[i].ID != ids[i] {
			t.Errorf("position %d: got %s, want %s (insertion order violated)", i, events[i].ID, ids[i])
		}
	}

	// By-type filter preserves relative order
	noFace, _ := s.ListEventsByType(ctx, sess.ID, event.NoFace)
	if len(noFace) != 2 {
		t.Fatalf("got %d no_face events, want 2", len(noFace))
	}
	if noFace[0].ID != ids[0] || noFace[1].ID != ids[2] {
		t.Error("listByType broke relative order")
	}
}

func TestMemoryStore_ListEventsEmpty(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	sess, _ := s.CreateSession(ctx, "Jane Doe")

	events, err := s.ListEvents(ctx, sess.ID)
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events, want 0", len(events))
	}
}

func TestMemoryStore_ConcurrentAppends(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	sess, _ := s.CreateSession(ctx, "Jane Doe")

	const writers = 8
	const perWriter = 25

	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				if _, err := s.AppendEvent(ctx, sess.ID, draft(event.FocusLoss, event.SeverityLow)); err != nil {
					t.Errorf("AppendEvent: %v", err)
				}
			}
		}()
	}
	wg.Wait()

	got, _ := s.GetSession(ctx, sess.ID)
	want := writers * perWriter
	if got.TotalEvents != want {
		t.Errorf("total events: got %d, want %d", got.TotalEvents, want)
	}

	events, _ := s.ListEvents(ctx, sess.ID)
	seen := make(map[string]bool, len(events))
	for _, ev := range events {
		if seen[ev.ID] {
			t.Fatalf("duplicate event id %s", ev.ID)
		}
		seen[ev.ID] = true
	}

	// 200 low events = 400 deduction, floored at 0
	if got.IntegrityScore != 0 {
		t.Errorf("score: got %d, want 0", got.IntegrityScore)
	}
}

func TestMemoryStore_Transitions(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	sess, _ := s.CreateSession(ctx, "Jane Doe")

	completed := session.StatusCompleted
	updated, err := s.UpdateSession(ctx, sess.ID, session.Patch{Status: &completed})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if updated.EndTime == nil {
		t.Error("expected an end time on completion")
	}

	terminated := session.StatusTerminated
	_, err = s.UpdateSession(ctx, sess.ID, session.Patch{Status: &terminated})
	if !errors.Is(err, session.ErrInvalidTransition) {
		t.Errorf("terminating a completed session: got %v, want ErrInvalidTransition", err)
	}
}

func TestMemoryStore_ListSessionsNewestFirst(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()

	a, _ := s.CreateSession(ctx, "First")
	time.Sleep(2 * time.Millisecond)
	b, _ := s.CreateSession(ctx, "Second")

	sessions, err := s.ListSessions(ctx)
	if err != nil {
		t.Fatalf("ListSessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("got %d sessions, want 2", len(sessions))
	}
	if sessions[0].ID != b.ID || sessions[1].ID != a.ID {
		t.Error("sessions not ordered newest start first")
	}
}

func TestMemoryStore_SessionStats(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	sess, _ := s.CreateSession(ctx, "Jane Doe")

	s.AppendEvent(ctx, sess.ID, draft(event.NoFace, event.SeverityHigh))
	s.AppendEvent(ctx, sess.ID, draft(event.FocusLoss, event.SeverityMedium))
	s.AppendEvent(ctx, sess.ID, draft(event.FocusLoss, event.SeverityMedium))

	stats, err := s.SessionStats(ctx, sess.ID)
	if err != nil {
		t.Fatalf("SessionStats: %v", err)
	}
	if stats.EventsByType[event.FocusLoss] != 2 {
		t.Errorf("focus_loss count: got %d, want 2", stats.EventsByType[event.FocusLoss])
	}
	if stats.EventsByType[event.NoFace] != 1 {
		t.Errorf("no_face count: got %d, want 1", stats.EventsByType[event.NoFace])
	}
	if stats.EventsBySeverity[event.SeverityMedium] != 2 {
		t.Errorf("medium count: got %d, want 2", stats.EventsBySeverity[event.SeverityMedium])
	}
	if stats.Session.IntegrityScore != 80 {
		t.Errorf("score: got %d, want 80", stats.Session.IntegrityScore)
	}
	if stats.DurationSeconds < 0 {
		t.Errorf("negative duration: %f", stats.DurationSeconds)
	}
}

func TestMemoryStore_SnapshotsAreIsolated(t *testing.T) {
	s := NewMemory()
	ctx := context.Background()
	sess, _ := s.CreateSession(ctx, "Jane Doe")

	// Mutating a returned snapshot must not leak into the store
	sess.IntegrityScore = 5
	sess.CandidateName = "Mallory"

	got, _ := s.GetSession(ctx, sess.ID)
	if got.IntegrityScore != 100 || got.CandidateName != "Jane Doe" {
		t.Error("store state leaked through a returned snapshot")
	}
}
