package session

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fakeStore is a minimal in-memory Store for manager tests.
type fakeStore struct {
	sessions map[string]*Session
	nextID   int
}

func newFakeStore() *fakeStore {
	return &fakeStore{sessions: make(map[string]*Session)}
}

func (f *fakeStore) CreateSession(ctx context.Context, candidateName string) (*Session, error) {
	f.nextID++
	sess := &Session{
		ID:             string(rune('a' + f.nextID)),
		CandidateName:  candidateName,
		StartTime:      time.Now(),
		Status:         StatusActive,
		IntegrityScore: 100,
	}
	f.sessions[sess.ID] = sess
	return sess, nil
}

func (f *fakeStore) GetSession(ctx context.Context, id string) (*Session, error) {
	sess, ok := f.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return sess, nil
}

func (f *fakeStore) UpdateSession(ctx context.Context, id string, patch Patch) (*Session, error) {
	sess, ok := f.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if patch.Status != nil && *patch.Status != sess.Status {
		if !sess.CanTransition(*patch.Status) {
			return nil, ErrInvalidTransition
		}
		sess.Status = *patch.Status
		sess.EndTime = patch.EndTime
	}
	return sess, nil
}

func (f *fakeStore) ListSessions(ctx context.Context) ([]*Session, error) {
	out := make([]*Session, 0, len(f.sessions))
	for _, s := range f.sessions {
		out = append(out, s)
	}
	return out, nil
}

func TestManager_Create_TrimsAndValidates(t *testing.T) {
	m := NewManager(newFakeStore())
	ctx := context.Background()

	sess, err := m.Create(ctx, "  Jane Doe  ")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sess.CandidateName != "Jane Doe" {
		t.Errorf("candidate name not trimmed: %q", sess.CandidateName)
	}

	for _, name := range []string{"", "   ", "\t\n"} {
		if _, err := m.Create(ctx, name); !IsValidation(err) {
			t.Errorf("Create(%q): got %v, want a ValidationError", name, err)
		}
	}
}

func TestManager_CompleteThenTerminateFails(t *testing.T) {
	m := NewManager(newFakeStore())
	ctx := context.Background()

	sess, _ := m.Create(ctx, "Jane Doe")

	completed, err := m.Complete(ctx, sess.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if completed.Status != StatusCompleted {
		t.Errorf("status: got %q, want completed", completed.Status)
	}
	if completed.EndTime == nil {
		t.Error("expected an end time")
	}

	if _, err := m.Terminate(ctx, sess.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("terminate after complete: got %v, want ErrInvalidTransition", err)
	}
}

func TestManager_TerminateIsTerminal(t *testing.T) {
	m := NewManager(newFakeStore())
	ctx := context.Background()

	sess, _ := m.Create(ctx, "Jane Doe")
	if _, err := m.Terminate(ctx, sess.ID); err != nil {
		t.Fatalf("Terminate: %v", err)
	}
	if _, err := m.Complete(ctx, sess.ID); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("complete after terminate: got %v, want ErrInvalidTransition", err)
	}
}

func TestManager_MissingSession(t *testing.T) {
	m := NewManager(newFakeStore())
	if _, err := m.Complete(context.Background(), "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("got %v, want ErrNotFound", err)
	}
}

func TestStatus_Terminal(t *testing.T) {
	if StatusActive.Terminal() {
		t.Error("active must not be terminal")
	}
	if !StatusCompleted.Terminal() || !StatusTerminated.Terminal() {
		t.Error("completed/terminated must be terminal")
	}
}

func TestSession_CanTransition(t *testing.T) {
	s := &Session{Status: StatusActive}
	if !s.CanTransition(StatusCompleted) || !s.CanTransition(StatusTerminated) {
		t.Error("active session must allow terminal transitions")
	}
	if s.CanTransition(StatusActive) {
		t.Error("active -> active is not a transition")
	}

	s.Status = StatusCompleted
	if s.CanTransition(StatusTerminated) {
		t.Error("terminal states are final")
	}
}
