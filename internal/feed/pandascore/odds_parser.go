package pandascore

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/Vodeneev/oddsedge/internal/feed"
	"github.com/Vodeneev/oddsedge/internal/pkg/markets"
	"github.com/Vodeneev/oddsedge/internal/pkg/models"
)

// parseMatches decodes a matches page. Records that fail to decode or lack
// two opponents are skipped and counted; the rest of the batch is kept.
func parseMatches(body []byte, status models.Status, norm *markets.Normalizer) ([]models.MatchRecord, int, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, 0, &feed.FormatError{Reason: fmt.Sprintf("matches page: %v", err)}
	}

	records := make([]models.MatchRecord, 0, len(raw))
	skipped := 0
	for i, item := range raw {
		rec, err := parseMatch(item, status, norm)
		if err != nil {
			skipped++
			slog.Debug("PandaScore: skipping record", "index", i, "error", err)
			continue
		}
		records = append(records, rec)
	}
	return records, skipped, nil
}

func parseMatch(item json.RawMessage, status models.Status, norm *markets.Normalizer) (models.MatchRecord, error) {
	var m Match
	if err := json.Unmarshal(item, &m); err != nil {
		return models.MatchRecord{}, &feed.FormatError{Reason: err.Error()}
	}
	id := ""
	if m.ID != 0 {
		id = strconv.FormatInt(m.ID, 10)
	}
	if len(m.Opponents) < 2 {
		return models.MatchRecord{}, &feed.FormatError{Record: id, Reason: fmt.Sprintf("%d opponents", len(m.Opponents))}
	}

	team1 := teamName(m.Opponents[0].Opponent)
	team2 := teamName(m.Opponents[1].Opponent)
	if team1 == "" || team2 == "" {
		return models.MatchRecord{}, &feed.FormatError{Record: id, Reason: "unnamed opponent"}
	}

	var begin time.Time
	if m.BeginAt != nil {
		begin = m.BeginAt.UTC()
	}
	if id == "" {
		id = models.CanonicalMatchID(team1, team2, begin)
	}

	rec := models.MatchRecord{
		ID:         id,
		Team1:      team1,
		Team2:      team2,
		League:     m.League.Name,
		LeagueSlug: strings.ToLower(m.League.Slug),
		Status:     status,
		BeginAt:    begin,
	}
	rec.Markets = norm.NormalizeAll(rawMarkets(m.Odds), rec.Competitors())
	return rec, nil
}

func teamName(t Team) string {
	if name := strings.TrimSpace(t.Name); name != "" {
		return name
	}
	return strings.TrimSpace(t.Acronym)
}

func rawMarkets(odds []Market) []markets.RawMarket {
	out := make([]markets.RawMarket, 0, len(odds))
	for _, o := range odds {
		rm := markets.RawMarket{Descriptor: o.MarketName, Outcomes: make([]markets.RawOutcome, 0, len(o.Results))}
		for _, r := range o.Results {
			rm.Outcomes = append(rm.Outcomes, markets.RawOutcome{Name: r.Name, Price: r.Odds.Value()})
		}
		out = append(out, rm)
	}
	return out
}

func parseLeagues(body []byte) ([]feed.League, error) {
	var raw []League
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, &feed.FormatError{Reason: fmt.Sprintf("leagues page: %v", err)}
	}
	out := make([]feed.League, 0, len(raw))
	for _, l := range raw {
		out = append(out, feed.League{ID: l.ID, Name: l.Name, Slug: strings.ToLower(l.Slug)})
	}
	return out, nil
}
