// Package session defines the monitored-session model and its lifecycle
// rules: a session starts active and ends exactly once, either completed
// or terminated.
package session

import (
	"time"
)

// Status is the lifecycle state of a session.
type Status string

const (
	// StatusActive means the session is being monitored.
	StatusActive Status = "active"

	// StatusCompleted means the session concluded normally.
	StatusCompleted Status = "completed"

	// StatusTerminated means the session was cut short abnormally.
	StatusTerminated Status = "terminated"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusCompleted, StatusTerminated:
		return true
	}
	return false
}

// Terminal reports whether s is a final state.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusTerminated
}

// Session is one monitored interview/exam sitting.
//
// TotalEvents and IntegrityScore are caches derived from the event ledger.
// The store recomputes them on every append; nothing else may write them.
type Session struct {
	ID             string     `json:"id"`
	CandidateName  string     `json:"candidate_name"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        *time.Time `json:"end_time,omitempty"`
	Status         Status     `json:"status"`
	TotalEvents    int        `json:"total_events"`
	IntegrityScore int        `json:"integrity_score"`
}

// CanTransition reports whether the session may move to the given status.
// Only active sessions may transition, and only to a terminal status.
func (s *Session) CanTransition(to Status) bool {
	return s.Status == StatusActive && to.Terminal()
}

// Duration returns how long the session has run. For sessions that have
// ended it is the recorded span; for active sessions it is measured to now.
func (s *Session) Duration() time.Duration {
	if s.EndTime != nil {
		return s.EndTime.Sub(s.StartTime)
	}
	return time.Since(s.StartTime)
}
