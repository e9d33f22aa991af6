package models

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Opportunity is a market side whose quoted price beats the fair price
// by more than the configured edge.
type Opportunity struct {
	Key     string    `json:"key"`  // e.g. ML_T1, KILLS_28.5_OVER
	Market  MarketKey `json:"-"`
	Side    string    `json:"side"`
	Current float64   `json:"current"`
	Fair    float64   `json:"fair"`
	Edge    float64   `json:"edge"` // signed fraction, 0.1111 = 11.11%
}

// EdgePercent returns the edge as a percentage rounded to two decimals.
func (o Opportunity) EdgePercent() float64 {
	pct, _ := decimal.NewFromFloat(o.Edge).Mul(decimal.NewFromInt(100)).Round(2).Float64()
	return pct
}

// Opportunities maps opportunity key to opportunity for one match.
type Opportunities map[string]Opportunity

// Keys returns opportunity keys in stable order.
func (o Opportunities) Keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// EventType tells the sink which cycle produced the event.
type EventType string

const (
	EventOpening EventType = "OPENING"
	EventLive    EventType = "LIVE"
)

// OddsEntry is the per-opportunity payload delivered to sinks.
type OddsEntry struct {
	Current     float64 `json:"current"`
	Fair        float64 `json:"fair"`
	Edge        float64 `json:"edge"`
	EdgePercent float64 `json:"edge_percent"`
}

// Event is the structured notification handed to the notification sink.
type Event struct {
	ID         string               `json:"id"`
	Type       EventType            `json:"type"`
	MatchID    string               `json:"match_id"`
	Match      string               `json:"match"`
	League     string               `json:"league,omitempty"`
	Status     Status               `json:"status,omitempty"`
	BeginAt    time.Time            `json:"begin_at,omitzero"`
	Odds       map[string]OddsEntry `json:"odds"`
	DetectedAt time.Time            `json:"detected_at"`
}

// NewEvent builds the sink event for a match and its opportunity set.
func NewEvent(t EventType, m MatchRecord, opps Opportunities, now time.Time) Event {
	odds := make(map[string]OddsEntry, len(opps))
	for k, o := range opps {
		odds[k] = OddsEntry{
			Current:     o.Current,
			Fair:        o.Fair,
			Edge:        o.Edge,
			EdgePercent: o.EdgePercent(),
		}
	}
	return Event{
		ID:         uuid.NewString(),
		Type:       t,
		MatchID:    m.ID,
		Match:      m.Name(),
		League:     m.League,
		Status:     m.Status,
		BeginAt:    m.BeginAt,
		Odds:       odds,
		DetectedAt: now,
	}
}

// OddsKeys returns the event's odds keys in stable order.
func (e Event) OddsKeys() []string {
	keys := make([]string, 0, len(e.Odds))
	for k := range e.Odds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
