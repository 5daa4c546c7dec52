// Package store persists sessions and their integrity-event ledgers.
//
// Three backends share one contract: an in-memory store (canonical), a JSON
// file store for single-node persistence, and a Postgres store. All of them
// keep the session's derived fields (total events, integrity score) in sync
// with the ledger atomically on every append.
package store

import (
	"context"
	"math"

	"github.com/candidwatch/go-proctor/pkg/event"
	"github.com/candidwatch/go-proctor/pkg/session"
)

// Store is the full session/event persistence contract.
//
// Appends for the same session are linearizable: concurrent appends never
// corrupt derived counts or produce duplicate identifiers, and a reader
// always observes a fully-applied prior append.
type Store interface {
	session.Store

	// AppendEvent records a new event against a session, assigns its
	// identity, and updates the session's derived totals atomically.
	// Fails with session.ErrNotFound if the session does not exist and
	// with session.ErrSessionClosed if the session has ended and the
	// store's policy rejects late appends.
	AppendEvent(ctx context.Context, sessionID string, draft event.Draft) (*event.Event, error)

	// ListEvents returns a session's events in insertion order. A session
	// with no events yields an empty slice, not an error.
	ListEvents(ctx context.Context, sessionID string) ([]event.Event, error)

	// ListEventsByType filters ListEvents by type, preserving order.
	ListEventsByType(ctx context.Context, sessionID string, t event.Type) ([]event.Event, error)

	// SessionStats returns the session together with its ledger and
	// derived aggregates.
	SessionStats(ctx context.Context, sessionID string) (*Stats, error)

	// Close releases backend resources.
	Close() error
}

// Stats is the aggregate read model for one session.
type Stats struct {
	Session          *session.Session       `json:"session"`
	Events           []event.Event          `json:"events"`
	EventsByType     map[event.Type]int     `json:"events_by_type"`
	EventsBySeverity map[event.Severity]int `json:"events_by_severity"`
	DurationSeconds  float64                `json:"duration_seconds"`
	EventsPerMinute  float64                `json:"events_per_minute"`
}

// eventsPerMinute computes the event rate, rounded to two decimals.
// A zero-length session has rate zero rather than infinity.
func eventsPerMinute(totalEvents int, durationSeconds float64) float64 {
	if durationSeconds <= 0 {
		return 0
	}
	rate := float64(totalEvents) / (durationSeconds / 60.0)
	return math.Round(rate*100) / 100
}
