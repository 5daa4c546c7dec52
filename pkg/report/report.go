// Package report builds the final integrity report for a session: summary,
// event breakdown, timeline, and recommendations, ready for rendering or
// export.
package report

import (
	"context"
	"fmt"
	"time"

	"github.com/candidwatch/go-proctor/pkg/event"
	"github.com/candidwatch/go-proctor/pkg/scoring"
	"github.com/candidwatch/go-proctor/pkg/session"
	"github.com/candidwatch/go-proctor/pkg/store"
)

// Summary is the headline view of a session.
type Summary struct {
	CandidateName  string         `json:"candidate_name"`
	Duration       string         `json:"duration"`
	TotalEvents    int            `json:"total_events"`
	IntegrityScore int            `json:"integrity_score"`
	Tier           scoring.Tier   `json:"tier"`
	Status         session.Status `json:"status"`
}

// Breakdown groups event counts by type and severity.
type Breakdown struct {
	ByType     map[event.Type]int     `json:"by_type"`
	BySeverity map[event.Severity]int `json:"by_severity"`
}

// TimelineEntry is one event in the session timeline.
type TimelineEntry struct {
	Timestamp   time.Time      `json:"timestamp"`
	Type        event.Type     `json:"type"`
	Description string         `json:"description"`
	Severity    event.Severity `json:"severity"`
}

// Metadata carries report provenance.
type Metadata struct {
	GeneratedAt     time.Time `json:"generated_at"`
	EventsPerMinute float64   `json:"events_per_minute"`
}

// Report is the full integrity report for one session.
type Report struct {
	Session         *session.Session `json:"session"`
	Summary         Summary          `json:"summary"`
	EventBreakdown  Breakdown        `json:"event_breakdown"`
	Timeline        []TimelineEntry  `json:"timeline"`
	Recommendations []string         `json:"recommendations"`
	Metadata        Metadata         `json:"metadata"`
}

// Build assembles the report for a session from the store's read model.
func Build(ctx context.Context, s store.Store, sessionID string) (*Report, error) {
	stats, err := s.SessionStats(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	score := scoring.Score(stats.Events)
	tier := scoring.TierFor(score)

	timeline := make([]TimelineEntry, 0, len(stats.Events))
	for _, ev := range stats.Events {
		timeline = append(timeline, TimelineEntry{
			Timestamp:   ev.Timestamp,
			Type:        ev.Type,
			Description: ev.Description,
			Severity:    ev.Severity,
		})
	}

	return &Report{
		Session: stats.Session,
		Summary: Summary{
			CandidateName:  stats.Session.CandidateName,
			Duration:       FormatDuration(stats.Session.Duration()),
			TotalEvents:    len(stats.Events),
			IntegrityScore: score,
			Tier:           tier,
			Status:         stats.Session.Status,
		},
		EventBreakdown: Breakdown{
			ByType:     stats.EventsByType,
			BySeverity: stats.EventsBySeverity,
		},
		Timeline:        timeline,
		Recommendations: scoring.Recommend(tier, stats.EventsByType, stats.EventsBySeverity),
		Metadata: Metadata{
			GeneratedAt:     time.Now(),
			EventsPerMinute: stats.EventsPerMinute,
		},
	}, nil
}

// FormatDuration renders a duration as M:SS, or H:MM:SS once it reaches
// an hour.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}
