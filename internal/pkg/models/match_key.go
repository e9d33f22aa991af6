package models

import (
	"strings"
	"time"
)

// CanonicalMatchID builds a stable match identifier from team names and start time.
// Used when a source has no numeric identity of its own (synthetic data).
// Format: team1|team2|time
func CanonicalMatchID(team1, team2 string, startTime time.Time) string {
	t1 := normalizeKeyPart(team1)
	t2 := normalizeKeyPart(team2)

	ts := "unknown-time"
	if !startTime.IsZero() {
		ts = startTime.UTC().Format(time.RFC3339)
	}

	return t1 + "|" + t2 + "|" + ts
}

func normalizeKeyPart(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ""
	}
	s = strings.ReplaceAll(s, "/", " ")
	s = strings.ReplaceAll(s, "\\", " ")
	s = strings.ReplaceAll(s, "|", " ")
	return strings.Join(strings.Fields(s), " ")
}
