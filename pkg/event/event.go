// Package event defines the integrity event model shared by the debouncer,
// store, and reporting layers.
package event

import (
	"fmt"
	"time"
)

// Type classifies what kind of integrity violation an event records.
type Type string

const (
	// FocusLoss means the candidate looked away from the screen for a
	// sustained period.
	FocusLoss Type = "focus_loss"

	// NoFace means no face was visible in the frame for a sustained period.
	NoFace Type = "no_face"

	// MultipleFaces means more than one face was visible in the frame.
	MultipleFaces Type = "multiple_faces"

	// SuspiciousObject means a disallowed object was detected in the frame.
	SuspiciousObject Type = "suspicious_object"
)

// Types lists all valid event types.
var Types = []Type{FocusLoss, NoFace, MultipleFaces, SuspiciousObject}

// Valid reports whether t is a known event type.
func (t Type) Valid() bool {
	switch t {
	case FocusLoss, NoFace, MultipleFaces, SuspiciousObject:
		return true
	}
	return false
}

// Severity grades how serious an event is.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Severities lists all valid severities.
var Severities = []Severity{SeverityLow, SeverityMedium, SeverityHigh}

// Valid reports whether s is a known severity.
func (s Severity) Valid() bool {
	switch s {
	case SeverityLow, SeverityMedium, SeverityHigh:
		return true
	}
	return false
}

// Event is one immutable integrity violation recorded against a session.
// Events never mutate after being appended to the ledger.
type Event struct {
	ID          string         `json:"id"`
	SessionID   string         `json:"session_id"`
	Type        Type           `json:"type"`
	Severity    Severity       `json:"severity"`
	Description string         `json:"description"`
	Timestamp   time.Time      `json:"timestamp"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Draft is an event before the ledger assigns its identity. The debouncer
// produces drafts; the store turns them into Events.
type Draft struct {
	Type        Type
	Severity    Severity
	Description string
	Timestamp   time.Time
	Metadata    map[string]any
}

// Validate checks that the draft carries a known type and severity.
func (d Draft) Validate() error {
	if !d.Type.Valid() {
		return fmt.Errorf("invalid event type %q", d.Type)
	}
	if !d.Severity.Valid() {
		return fmt.Errorf("invalid event severity %q", d.Severity)
	}
	return nil
}
