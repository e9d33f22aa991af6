// Package markets maps raw feed market descriptors onto canonical market keys.
package markets

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/Vodeneev/oddsedge/internal/pkg/models"
)

// LineExtractor pulls a numeric line out of a descriptor.
type LineExtractor func(desc string) (float64, bool)

// Rule is one row of the classification table. A rule applies when
// Match holds, Line (if set) extracts a value and the outcome list has
// at least MinOutcomes entries.
type Rule struct {
	Name        string
	Match       func(desc string) bool
	Kind        models.MarketKind
	Line        LineExtractor
	MinOutcomes int
	MaxOutcomes int // 0 = unbounded
}

// Table is evaluated top to bottom; the first applicable rule wins.
type Table []Rule

var (
	anchoredLineRe = regexp.MustCompile(`(?i)(?:total|over|under)\D*?(\d+(?:\.\d+)?)`)
	lineRe         = regexp.MustCompile(`\d+(?:\.\d+)?`)
)

// NumericLine extracts the line: the number after total/over/under when
// present, otherwise the last number. "Map 1 Total Kills 28.5" gives 28.5.
func NumericLine(desc string) (float64, bool) {
	raw := ""
	if m := anchoredLineRe.FindStringSubmatch(desc); m != nil {
		raw = m[1]
	} else if all := lineRe.FindAllString(desc, -1); len(all) > 0 {
		raw = all[len(all)-1]
	}
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// killsTotal matches kill count totals but not handicap or spread markets,
// whose number is a margin rather than an over/under line.
func killsTotal(desc string) bool {
	return strings.Contains(desc, "kill") && !containsAny("handicap", "spread")(desc)
}

func containsAny(words ...string) func(string) bool {
	return func(desc string) bool {
		for _, w := range words {
			if strings.Contains(desc, w) {
				return true
			}
		}
		return false
	}
}

// DefaultTable is the canonical descriptor mapping. First-event markets
// are checked before the generic winner rule so "first blood winner"
// never lands on the match winner market.
var DefaultTable = Table{
	{
		Name:        "first-blood",
		Match:       containsAny("first blood", "firstblood", "first kill"),
		Kind:        models.KindFirstBlood,
		MinOutcomes: 2,
		MaxOutcomes: 2,
	},
	{
		Name:        "first-tower",
		Match:       containsAny("first tower", "first turret"),
		Kind:        models.KindFirstTower,
		MinOutcomes: 2,
		MaxOutcomes: 2,
	},
	{
		Name:        "kills-total",
		Match:       killsTotal,
		Kind:        models.KindTotalKills,
		Line:        NumericLine,
		MinOutcomes: 2,
	},
	{
		Name:        "match-winner",
		Match:       containsAny("winner", "moneyline", "match result"),
		Kind:        models.KindWinner,
		MinOutcomes: 2,
		MaxOutcomes: 2,
	},
	{
		Name:        "named-objective",
		Match:       containsAny("dragon", "baron", "inhibitor", "tower", "herald"),
		Kind:        models.KindObjective,
		MinOutcomes: 1,
		MaxOutcomes: 2,
	},
}

// Classify returns the first rule applicable to desc with n outcomes and
// the extracted line.
func (t Table) Classify(desc string, n int) (Rule, float64, bool) {
	d := strings.ToLower(strings.TrimSpace(desc))
	if d == "" {
		return Rule{}, 0, false
	}
	for _, r := range t {
		if !r.Match(d) {
			continue
		}
		if n < r.MinOutcomes || (r.MaxOutcomes > 0 && n > r.MaxOutcomes) {
			continue
		}
		var line float64
		if r.Line != nil {
			v, ok := r.Line(d)
			if !ok {
				continue
			}
			line = v
		}
		return r, line, true
	}
	return Rule{}, 0, false
}
