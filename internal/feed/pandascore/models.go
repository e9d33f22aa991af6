package pandascore

import (
	"bytes"
	"encoding/json"
	"strconv"
	"time"
)

// Models for PandaScore API responses

// Match is one element of GET /{game}/matches/{status}.
type Match struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	Status    string     `json:"status"`
	BeginAt   *time.Time `json:"begin_at"`
	Opponents []Opponent `json:"opponents"`
	League    League     `json:"league"`
	Odds      []Market   `json:"odds"`
}

// Opponent wraps the team entry.
type Opponent struct {
	Type     string `json:"type"`
	Opponent Team   `json:"opponent"`
}

// Team is a competitor.
type Team struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Acronym string `json:"acronym"`
}

// League is the league block of a match and an element of GET /{game}/leagues.
type League struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Market is a raw odds market.
type Market struct {
	MarketName string   `json:"market_name"`
	Results    []Result `json:"results"`
}

// Result is one priced outcome.
type Result struct {
	Name string    `json:"name"`
	Odds flexPrice `json:"odds"`
}

// flexPrice accepts a JSON number, a numeric string or null.
// Anything else decodes to "no price" instead of failing the whole record.
type flexPrice struct {
	v *float64
}

func (p *flexPrice) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		p.v = nil
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			p.v = &f
		} else {
			p.v = nil
		}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		p.v = nil
		return nil
	}
	p.v = &f
	return nil
}

// Value returns the decoded price, nil when absent.
func (p flexPrice) Value() *float64 { return p.v }
