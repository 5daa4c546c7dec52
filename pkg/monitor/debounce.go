package monitor

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/candidwatch/go-proctor/pkg/detection"
	"github.com/candidwatch/go-proctor/pkg/event"
)

// Debouncer converts raw per-tick detector samples into qualifying discrete
// events. A condition must persist continuously for its minimum duration
// before it emits, and the away-gaze episode timer resets on emission so a
// sustained condition produces at most one event per window.
//
// The no_face signal deliberately does NOT reset its reference timestamp on
// emission: once a candidate has been gone past the threshold, every further
// qualifying tick re-fires, escalating the deduction for prolonged absence.
//
// All methods take the observation time explicitly, which keeps the state
// machine deterministic and directly testable.
type Debouncer struct {
	cfg Config

	mu           sync.Mutex
	lastFaceSeen time.Time // last tick with at least one face
	awayStart    time.Time // zero when no away-gaze episode is open

	suspicious map[string]bool
}

// NewDebouncer creates a debouncer for one session. start anchors the
// absence timer so a session where no face ever appears still trips the
// no_face threshold relative to monitoring start.
func NewDebouncer(cfg Config, start time.Time) *Debouncer {
	suspicious := make(map[string]bool, len(cfg.SuspiciousLabels))
	for _, label := range cfg.SuspiciousLabels {
		suspicious[label] = true
	}
	return &Debouncer{
		cfg:          cfg,
		lastFaceSeen: start,
		suspicious:   suspicious,
	}
}

// ObserveFace processes one presence/gaze sample and returns any events it
// qualifies for. A malformed sample is a silent no-op tick.
func (d *Debouncer) ObserveFace(sample detection.FaceSample, now time.Time) []event.Draft {
	if sample.FaceCount < 0 || sample.Confidence < 0 || sample.Confidence > 1 {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	var drafts []event.Draft

	if sample.FaceCount == 0 {
		// No face also means no away-gaze: an open episode does not
		// survive an absence gap.
		d.awayStart = time.Time{}

		// Reference timestamp intentionally not reset on emission.
		if now.Sub(d.lastFaceSeen) > d.cfg.NoFaceAfter {
			drafts = append(drafts, event.Draft{
				Type:        event.NoFace,
				Severity:    event.SeverityHigh,
				Description: "No face detected for more than 10 seconds",
				Timestamp:   now,
				Metadata: map[string]any{
					"absent_for_seconds": now.Sub(d.lastFaceSeen).Seconds(),
				},
			})
		}
		return drafts
	}

	d.lastFaceSeen = now

	if sample.FaceCount > 1 {
		drafts = append(drafts, event.Draft{
			Type:        event.MultipleFaces,
			Severity:    event.SeverityHigh,
			Description: fmt.Sprintf("%d faces detected in frame", sample.FaceCount),
			Timestamp:   now,
			Metadata: map[string]any{
				"face_count": sample.FaceCount,
				"confidence": sample.Confidence,
			},
		})
	}

	if sample.LookingAway {
		switch {
		case d.awayStart.IsZero():
			d.awayStart = now
		case now.Sub(d.awayStart) >= d.cfg.FocusLossAfter:
			drafts = append(drafts, event.Draft{
				Type:        event.FocusLoss,
				Severity:    event.SeverityMedium,
				Description: "Candidate looked away from screen for more than 5 seconds",
				Timestamp:   now,
				Metadata: map[string]any{
					"away_for_seconds": now.Sub(d.awayStart).Seconds(),
				},
			})
			// One focus_loss per window of continuous away-gaze
			d.awayStart = now
		}
	} else {
		d.awayStart = time.Time{}
	}

	return drafts
}

// ObserveObjects processes one object sample and returns an event per
// object that survives the suspicious-label and confidence filters. No
// debouncing is applied: recall wins over event volume here.
func (d *Debouncer) ObserveObjects(samples []detection.ObjectSample, now time.Time) []event.Draft {
	d.mu.Lock()
	defer d.mu.Unlock()

	var drafts []event.Draft
	for _, obj := range samples {
		if obj.Confidence < d.cfg.ObjectConfidenceFloor || obj.Confidence > 1 {
			continue
		}
		if !d.suspicious[obj.Label] {
			continue
		}
		drafts = append(drafts, event.Draft{
			Type:     event.SuspiciousObject,
			Severity: event.SeverityHigh,
			Description: fmt.Sprintf("Suspicious object detected: %s (%d%% confidence)",
				obj.Label, int(math.Round(obj.Confidence*100))),
			Timestamp: now,
			Metadata: map[string]any{
				"label":      obj.Label,
				"confidence": obj.Confidence,
				"box":        obj.Box,
			},
		})
	}
	return drafts
}
