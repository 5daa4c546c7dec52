package scoring

import (
	"github.com/candidwatch/go-proctor/pkg/event"
)

// Tier messages, always the first recommendation line.
var tierMessages = map[Tier]string{
	TierExcellent:   "Excellent interview integrity maintained throughout the session.",
	TierGood:        "Good overall integrity with minor events. Review flagged moments if needed.",
	TierModerate:    "Moderate integrity concerns detected. A review of flagged events is recommended.",
	TierSignificant: "Significant integrity issues detected. Manual review of the full session is strongly recommended.",
}

// Conditional advisory lines.
const (
	adviceFocusLoss       = "Frequent focus loss detected. Consider discussing screen attention expectations with the candidate."
	adviceSuspiciousItems = "Suspicious objects were detected. Verify the candidate's workspace setup before accepting results."
	adviceMultipleFaces   = "Multiple faces appeared during the session. Investigate possible unauthorized assistance."
	adviceHighSeverity    = "Several high-severity events occurred. A detailed investigation of this session is recommended."
)

// Thresholds for the conditional advisories.
const (
	focusLossThreshold    = 3 // advisory fires above this count
	highSeverityThreshold = 2
)

// Recommend produces the ordered advisory list for a session. The tier
// message always comes first; each conditional rule is evaluated
// independently and appended in a fixed order, so the list is stable and
// never empty.
func Recommend(tier Tier, byType map[event.Type]int, bySeverity map[event.Severity]int) []string {
	recs := []string{tierMessages[tier]}

	if byType[event.FocusLoss] > focusLossThreshold {
		recs = append(recs, adviceFocusLoss)
	}
	if byType[event.SuspiciousObject] > 0 {
		recs = append(recs, adviceSuspiciousItems)
	}
	if byType[event.MultipleFaces] > 0 {
		recs = append(recs, adviceMultipleFaces)
	}
	if bySeverity[event.SeverityHigh] > highSeverityThreshold {
		recs = append(recs, adviceHighSeverity)
	}

	return recs
}

// CountByType tallies events per type.
func CountByType(events []event.Event) map[event.Type]int {
	counts := make(map[event.Type]int)
	for _, e := range events {
		counts[e.Type]++
	}
	return counts
}

// CountBySeverity tallies events per severity.
func CountBySeverity(events []event.Event) map[event.Severity]int {
	counts := make(map[event.Severity]int)
	for _, e := range events {
		counts[e.Severity]++
	}
	return counts
}
