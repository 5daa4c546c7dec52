package session

import (
	"context"
	"strings"
	"time"
)

// Patch describes a partial session update. Nil fields are left untouched.
// Derived fields (total events, integrity score) are deliberately absent:
// they belong to the ledger and cannot be patched from outside.
type Patch struct {
	CandidateName *string
	Status        *Status
	EndTime       *time.Time
}

// Store is the subset of the session/event store the lifecycle manager
// needs. The full contract lives in pkg/store; this interface keeps the
// manager decoupled from any particular backend.
type Store interface {
	CreateSession(ctx context.Context, candidateName string) (*Session, error)
	GetSession(ctx context.Context, id string) (*Session, error)
	UpdateSession(ctx context.Context, id string, patch Patch) (*Session, error)
	ListSessions(ctx context.Context) ([]*Session, error)
}

// Manager owns session lifecycle transitions: create, complete, terminate.
// It is safe for concurrent use as long as the underlying store is.
type Manager struct {
	store Store
}

// NewManager creates a lifecycle manager on top of a store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Create starts a new active session for the named candidate.
// The name must be non-empty after trimming whitespace.
func (m *Manager) Create(ctx context.Context, candidateName string) (*Session, error) {
	name := strings.TrimSpace(candidateName)
	if name == "" {
		return nil, NewValidationError("candidate name", "must not be empty")
	}
	return m.store.CreateSession(ctx, name)
}

// Get returns a session by ID.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	return m.store.GetSession(ctx, id)
}

// List returns all sessions, newest start first.
func (m *Manager) List(ctx context.Context) ([]*Session, error) {
	return m.store.ListSessions(ctx)
}

// Complete concludes a session normally. Fails with ErrInvalidTransition
// if the session has already ended.
func (m *Manager) Complete(ctx context.Context, id string) (*Session, error) {
	return m.end(ctx, id, StatusCompleted)
}

// Terminate concludes a session abnormally. Fails with ErrInvalidTransition
// if the session has already ended.
func (m *Manager) Terminate(ctx context.Context, id string) (*Session, error) {
	return m.end(ctx, id, StatusTerminated)
}

func (m *Manager) end(ctx context.Context, id string, status Status) (*Session, error) {
	now := time.Now()
	return m.store.UpdateSession(ctx, id, Patch{
		Status:  &status,
		EndTime: &now,
	})
}
