package models

import (
	"fmt"
	"time"
)

// Status is the feed-side lifecycle bucket a match is fetched from.
type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusRunning  Status = "running"
	StatusRecent   Status = "recent"
)

// MatchRecord is one match as seen in a single fetch cycle.
// It is built fresh on every poll and never persisted.
type MatchRecord struct {
	ID         string                    `json:"id"`
	Team1      string                    `json:"team1"`
	Team2      string                    `json:"team2"`
	League     string                    `json:"league"`
	LeagueSlug string                    `json:"league_slug"`
	Status     Status                    `json:"status"`
	BeginAt    time.Time                 `json:"begin_at"`
	Markets    map[MarketKey]MarketQuote `json:"-"`
}

// Name renders the match the way alerts show it: "Team1 vs Team2".
func (m MatchRecord) Name() string {
	return fmt.Sprintf("%s vs %s", m.Team1, m.Team2)
}

// Competitors returns both team names in feed order.
func (m MatchRecord) Competitors() [2]string {
	return [2]string{m.Team1, m.Team2}
}

// HasQuotes reports whether at least one market carries a present price.
func (m MatchRecord) HasQuotes() bool {
	for _, q := range m.Markets {
		if q.HasPrice() {
			return true
		}
	}
	return false
}

// LeagueKey is the lower-cased identifier used by per-league heuristics.
// The slug wins; the display name is a fallback for feeds that omit it.
func (m MatchRecord) LeagueKey() string {
	if m.LeagueSlug != "" {
		return m.LeagueSlug
	}
	return normalizeKeyPart(m.League)
}
