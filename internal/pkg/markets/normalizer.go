package markets

import (
	"strings"

	"github.com/Vodeneev/oddsedge/internal/pkg/models"
)

// RawOutcome is one priced outcome as delivered by the feed.
type RawOutcome struct {
	Name  string
	Price *float64
}

// RawMarket is a raw market descriptor with its outcomes.
type RawMarket struct {
	Descriptor string
	Outcomes   []RawOutcome
}

// Normalizer turns raw markets into canonical quotes using a rule table.
type Normalizer struct {
	table Table
}

// NewNormalizer creates a normalizer; a nil table means DefaultTable.
func NewNormalizer(table Table) *Normalizer {
	if table == nil {
		table = DefaultTable
	}
	return &Normalizer{table: table}
}

// Normalize maps one raw market. Unrecognized descriptors return false.
// competitors fills in side names when the feed leaves them blank.
func (n *Normalizer) Normalize(raw RawMarket, competitors [2]string) (models.MarketQuote, bool) {
	rule, line, ok := n.table.Classify(raw.Descriptor, len(raw.Outcomes))
	if !ok {
		return models.MarketQuote{}, false
	}

	key := models.MarketKey{Kind: rule.Kind}
	switch rule.Kind {
	case models.KindTotalKills:
		key.Line = line
		over, under := overUnder(raw.Outcomes)
		return models.MarketQuote{Key: key, Over: over, Under: under}, true
	case models.KindObjective:
		key.Objective = slug(raw.Descriptor)
	}
	return models.MarketQuote{Key: key, Sides: sides(raw.Outcomes, competitors)}, true
}

// NormalizeAll maps every raw market of a match. When two raw markets
// land on the same key the first one is kept.
func (n *Normalizer) NormalizeAll(raws []RawMarket, competitors [2]string) map[models.MarketKey]models.MarketQuote {
	out := make(map[models.MarketKey]models.MarketQuote, len(raws))
	for _, raw := range raws {
		q, ok := n.Normalize(raw, competitors)
		if !ok {
			continue
		}
		if _, dup := out[q.Key]; dup {
			continue
		}
		out[q.Key] = q
	}
	return out
}

// overUnder picks sides by label when labels say over/under, else by
// order: first outcome is over, second is under.
func overUnder(outcomes []RawOutcome) (models.Price, models.Price) {
	var over, under models.Price
	var labelled bool
	for _, o := range outcomes {
		name := strings.ToLower(o.Name)
		switch {
		case strings.Contains(name, "over"):
			over = models.PriceOf(o.Price)
			labelled = true
		case strings.Contains(name, "under"):
			under = models.PriceOf(o.Price)
			labelled = true
		}
	}
	if labelled {
		return over, under
	}
	return models.PriceOf(outcomes[0].Price), models.PriceOf(outcomes[1].Price)
}

func sides(outcomes []RawOutcome, competitors [2]string) []models.SidePrice {
	out := make([]models.SidePrice, 0, len(outcomes))
	for i, o := range outcomes {
		name := strings.TrimSpace(o.Name)
		if name == "" {
			switch {
			case len(outcomes) == 1:
				name = "yes"
			case i < len(competitors) && competitors[i] != "":
				name = competitors[i]
			default:
				name = "side" + string(rune('1'+i))
			}
		}
		out = append(out, models.SidePrice{Name: name, Price: models.PriceOf(o.Price)})
	}
	return out
}

func slug(desc string) string {
	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(desc) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastUnderscore = false
			continue
		}
		if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.TrimSuffix(b.String(), "_")
}
