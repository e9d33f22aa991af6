package feed

import (
	"log/slog"
	"strings"

	"github.com/Vodeneev/oddsedge/internal/pkg/models"
)

// FilterLeagues keeps records whose league slug is in slugs.
// An empty slugs list keeps everything.
func FilterLeagues(records []models.MatchRecord, slugs []string) []models.MatchRecord {
	if len(slugs) == 0 {
		return records
	}
	allowed := make(map[string]struct{}, len(slugs))
	for _, s := range slugs {
		allowed[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}
	out := make([]models.MatchRecord, 0, len(records))
	for _, r := range records {
		if _, ok := allowed[r.LeagueKey()]; ok {
			out = append(out, r)
		}
	}
	return out
}

// FilterMarkets drops quotes whose kind is not monitored. Records keep
// their place even when no market survives. An empty kinds list keeps all.
func FilterMarkets(records []models.MatchRecord, kinds []models.MarketKind) []models.MatchRecord {
	if len(kinds) == 0 {
		return records
	}
	allowed := make(map[models.MarketKind]struct{}, len(kinds))
	for _, k := range kinds {
		allowed[k] = struct{}{}
	}
	out := make([]models.MatchRecord, len(records))
	for i, r := range records {
		kept := make(map[models.MarketKey]models.MarketQuote, len(r.Markets))
		for key, q := range r.Markets {
			if _, ok := allowed[key.Kind]; ok {
				kept[key] = q
			}
		}
		r.Markets = kept
		out[i] = r
	}
	return out
}

// CheckLeagues compares configured slugs with what the feed offers and
// logs the ones it does not know. It returns the missing slugs.
func CheckLeagues(offered []League, configured []string) []string {
	if len(offered) == 0 || len(configured) == 0 {
		return nil
	}
	known := make(map[string]struct{}, len(offered))
	for _, l := range offered {
		known[strings.ToLower(l.Slug)] = struct{}{}
	}
	var missing []string
	for _, s := range configured {
		if _, ok := known[strings.ToLower(s)]; !ok {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		slog.Warn("Configured leagues not offered by feed", "missing", missing, "offered", len(offered))
	} else {
		slog.Info("All configured leagues offered by feed", "leagues", configured)
	}
	return missing
}
