// Package monitor turns raw detector samples into debounced integrity
// events. The Debouncer is the per-signal state machine; the Monitor owns
// the polling loops that feed it.
package monitor

import (
	"time"
)

// Config holds all tunable parameters for signal monitoring.
type Config struct {
	// Timing
	FaceInterval   time.Duration // How often to sample presence/gaze
	ObjectInterval time.Duration // How often to sample objects

	// Debounce thresholds
	NoFaceAfter    time.Duration // Continuous absence before a no_face event
	FocusLossAfter time.Duration // Continuous away-gaze before a focus_loss event

	// Object filtering
	ObjectConfidenceFloor float64  // Ignore detections below this confidence
	SuspiciousLabels      []string // Object classes treated as integrity risks
}

// DefaultConfig returns the recommended monitoring configuration.
func DefaultConfig() Config {
	return Config{
		FaceInterval:   1000 * time.Millisecond,
		ObjectInterval: 2000 * time.Millisecond,

		NoFaceAfter:    10 * time.Second,
		FocusLossAfter: 5 * time.Second,

		ObjectConfidenceFloor: 0.5,
		SuspiciousLabels:      DefaultSuspiciousLabels(),
	}
}

// DefaultSuspiciousLabels returns the object classes flagged during a
// session. Includes the common COCO misclassifications of each item
// (a phone held flat often reads as "remote", a monitor as "tv").
func DefaultSuspiciousLabels() []string {
	return []string{
		"cell phone",
		"phone",
		"book",
		"laptop",
		"keyboard",
		"mouse",
		"remote",
		"scissors",
		"bottle",
		"cup",
		"tv",
		"tablet",
	}
}
