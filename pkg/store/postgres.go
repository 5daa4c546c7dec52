package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/candidwatch/go-proctor/pkg/event"
	"github.com/candidwatch/go-proctor/pkg/scoring"
	"github.com/candidwatch/go-proctor/pkg/session"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id              TEXT PRIMARY KEY,
	candidate_name  TEXT NOT NULL,
	start_time      TIMESTAMPTZ NOT NULL,
	end_time        TIMESTAMPTZ,
	status          TEXT NOT NULL,
	total_events    INTEGER NOT NULL DEFAULT 0,
	integrity_score INTEGER NOT NULL DEFAULT 100
);

CREATE TABLE IF NOT EXISTS events (
	seq         BIGSERIAL PRIMARY KEY,
	id          TEXT NOT NULL UNIQUE,
	session_id  TEXT NOT NULL REFERENCES sessions(id),
	type        TEXT NOT NULL,
	severity    TEXT NOT NULL,
	description TEXT NOT NULL,
	ts          TIMESTAMPTZ NOT NULL,
	metadata    JSONB
);

CREATE INDEX IF NOT EXISTS events_session_idx ON events (session_id, seq);
`

// PostgresStore persists sessions and events in Postgres. Per-session
// linearizability comes from locking the session row inside the append
// transaction.
type PostgresStore struct {
	pool *pgxpool.Pool

	// AllowTerminalAppends permits event appends to ended sessions.
	AllowTerminalAppends bool
}

// NewPostgres connects to Postgres and ensures the schema exists.
func NewPostgres(ctx context.Context, dsn string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// CreateSession starts a new active session with a perfect score.
func (s *PostgresStore) CreateSession(ctx context.Context, candidateName string) (*session.Session, error) {
	if candidateName == "" {
		return nil, session.NewValidationError("candidate name", "must not be empty")
	}

	sess := &session.Session{
		ID:             uuid.NewString(),
		CandidateName:  candidateName,
		StartTime:      time.Now(),
		Status:         session.StatusActive,
		IntegrityScore: 100,
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO sessions (id, candidate_name, start_time, status) VALUES ($1, $2, $3, $4)`,
		sess.ID, sess.CandidateName, sess.StartTime, sess.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to insert session: %w", err)
	}
	return sess, nil
}

func scanSession(row pgx.Row) (*session.Session, error) {
	var sess session.Session
	err := row.Scan(&sess.ID, &sess.CandidateName, &sess.StartTime, &sess.EndTime,
		&sess.Status, &sess.TotalEvents, &sess.IntegrityScore)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan session: %w", err)
	}
	return &sess, nil
}

const sessionColumns = `id, candidate_name, start_time, end_time, status, total_events, integrity_score`

// GetSession returns a session by ID.
func (s *PostgresStore) GetSession(ctx context.Context, id string) (*session.Session, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1`, id)
	return scanSession(row)
}

// UpdateSession applies a partial update inside a transaction so lifecycle
// validation and the write are atomic.
func (s *PostgresStore) UpdateSession(ctx context.Context, id string, patch session.Patch) (*session.Session, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	sess, err := scanSession(tx.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, err
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

	_, err = tx.Exec(ctx,
		`UPDATE sessions SET candidate_name = $2, status = $3, end_time = $4 WHERE id = $1`,
		sess.ID, sess.CandidateName, sess.Status, sess.EndTime)
	if err != nil {
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return sess, nil
}

// ListSessions returns all sessions ordered newest start first.
func (s *PostgresStore) ListSessions(ctx context.Context) ([]*session.Session, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+sessionColumns+` FROM sessions ORDER BY start_time DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var out []*session.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

// AppendEvent records an event and refreshes the session's derived totals
// in one transaction, with the session row locked for the duration.
func (s *PostgresStore) AppendEvent(ctx context.Context, sessionID string, draft event.Draft) (*event.Event, error) {
	if err := draft.Validate(); err != nil {
		return nil, session.NewValidationError("event", err.Error())
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	sess, err := scanSession(tx.QueryRow(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = $1 FOR UPDATE`, sessionID))
	if err != nil {
		return nil, err
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

	_, err = tx.Exec(ctx,
		`INSERT INTO events (id, session_id, type, severity, description, ts, metadata)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ev.ID, ev.SessionID, ev.Type, ev.Severity, ev.Description, ev.Timestamp, ev.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to insert event: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE sessions SET
			total_events    = total_events + 1,
			integrity_score = GREATEST(0, integrity_score - $2)
		 WHERE id = $1`,
		sessionID, scoring.Weight(ev.Severity))
	if err != nil {
		return nil, fmt.Errorf("failed to update session totals: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit: %w", err)
	}
	return &ev, nil
}

func (s *PostgresStore) queryEvents(ctx context.Context, query string, args ...any) ([]event.Event, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	out := []event.Event{}
	for rows.Next() {
		var ev event.Event
		if err := rows.Scan(&ev.ID, &ev.SessionID, &ev.Type, &ev.Severity,
			&ev.Description, &ev.Timestamp, &ev.Metadata); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		out = append(out, ev)
	}
	return out, rows.Err()
}

const eventColumns = `id, session_id, type, severity, description, ts, metadata`

// ListEvents returns a session's events in insertion order.
func (s *PostgresStore) ListEvents(ctx context.Context, sessionID string) ([]event.Event, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.queryEvents(ctx,
		`SELECT `+eventColumns+` FROM events WHERE session_id = $1 ORDER BY seq`, sessionID)
}

// ListEventsByType filters a session's events by type, preserving order.
func (s *PostgresStore) ListEventsByType(ctx context.Context, sessionID string, t event.Type) ([]event.Event, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	return s.queryEvents(ctx,
		`SELECT `+eventColumns+` FROM events WHERE session_id = $1 AND type = $2 ORDER BY seq`,
		sessionID, t)
}

// SessionStats returns the session with its full ledger and aggregates.
func (s *PostgresStore) SessionStats(ctx context.Context, sessionID string) (*Stats, error) {
	sess, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	events, err := s.ListEvents(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	duration := sess.Duration().Seconds()
	return &Stats{
		Session:          sess,
		Events:           events,
		EventsByType:     scoring.CountByType(events),
		EventsBySeverity: scoring.CountBySeverity(events),
		DurationSeconds:  duration,
		EventsPerMinute:  eventsPerMinute(len(events), duration),
	}, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
