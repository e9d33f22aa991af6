package markets

import (
	"testing"

	"github.com/Vodeneev/oddsedge/internal/pkg/models"
)

func f(v float64) *float64 { return &v }

func TestTable_Classify(t *testing.T) {
	tests := []struct {
		desc     string
		outcomes int
		wantKind models.MarketKind
		wantLine float64
		wantOK   bool
	}{
		{"Winner 2-Way", 2, models.KindWinner, 0, true},
		{"Match Winner", 3, "", 0, false},
		{"First Blood", 2, models.KindFirstBlood, 0, true},
		{"First Blood Winner", 2, models.KindFirstBlood, 0, true},
		{"First Tower", 2, models.KindFirstTower, 0, true},
		{"Total Kills Over/Under 28.5", 2, models.KindTotalKills, 28.5, true},
		{"KillsOver30.5", 2, models.KindTotalKills, 30.5, true},
		{"Map 1 Total Kills 28.5", 2, models.KindTotalKills, 28.5, true},
		{"Map 2 Kills 31.5", 2, models.KindTotalKills, 31.5, true},
		{"Kills handicap -4.5", 2, "", 0, false},
		{"Kill spread 3.5", 2, "", 0, false},
		{"Most Kills", 2, "", 0, false},
		{"Next Dragon", 2, models.KindObjective, 0, true},
		{"Baron Nashor Slain", 1, models.KindObjective, 0, true},
		{"Inhibitor", 3, "", 0, false},
		{"Total Corners", 2, "", 0, false},
		{"", 2, "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.desc, func(t *testing.T) {
			rule, line, ok := DefaultTable.Classify(tt.desc, tt.outcomes)
			if ok != tt.wantOK {
				t.Fatalf("Classify(%q, %d) ok = %v, want %v", tt.desc, tt.outcomes, ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if rule.Kind != tt.wantKind {
				t.Errorf("Classify(%q) kind = %q, want %q", tt.desc, rule.Kind, tt.wantKind)
			}
			if line != tt.wantLine {
				t.Errorf("Classify(%q) line = %v, want %v", tt.desc, line, tt.wantLine)
			}
		})
	}
}

func TestTable_PriorityIsOrder(t *testing.T) {
	table := Table{
		{Name: "a", Match: containsAny("dragon"), Kind: models.KindObjective, MinOutcomes: 1},
		{Name: "b", Match: containsAny("dragon"), Kind: models.KindWinner, MinOutcomes: 1},
	}
	rule, _, ok := table.Classify("First Dragon", 2)
	if !ok || rule.Name != "a" {
		t.Errorf("expected first matching rule, got %q (ok=%v)", rule.Name, ok)
	}
}

func TestNormalizer_OverUnderByLabel(t *testing.T) {
	n := NewNormalizer(nil)
	q, ok := n.Normalize(RawMarket{
		Descriptor: "Total Kills 28.5",
		Outcomes: []RawOutcome{
			{Name: "Under", Price: f(1.80)},
			{Name: "Over", Price: f(2.00)},
		},
	}, [2]string{"T1", "Gen.G"})
	if !ok {
		t.Fatal("kills market dropped")
	}
	if q.Key != (models.MarketKey{Kind: models.KindTotalKills, Line: 28.5}) {
		t.Errorf("key = %+v", q.Key)
	}
	if q.Over.Value != 2.00 || q.Under.Value != 1.80 {
		t.Errorf("over/under = %v/%v, want 2.00/1.80", q.Over.Value, q.Under.Value)
	}
}

func TestNormalizer_OverUnderByOrder(t *testing.T) {
	n := NewNormalizer(nil)
	q, ok := n.Normalize(RawMarket{
		Descriptor: "kills 25.5",
		Outcomes:   []RawOutcome{{Price: f(1.85)}, {Price: nil}},
	}, [2]string{"G2", "FNC"})
	if !ok {
		t.Fatal("kills market dropped")
	}
	if !q.Over.Quoted || q.Over.Value != 1.85 {
		t.Errorf("over = %+v, want 1.85", q.Over)
	}
	if q.Under.Quoted {
		t.Errorf("under = %+v, want no quote", q.Under)
	}
}

func TestNormalizer_WinnerUsesCompetitorNames(t *testing.T) {
	n := NewNormalizer(nil)
	q, ok := n.Normalize(RawMarket{
		Descriptor: "Winner 2-way",
		Outcomes:   []RawOutcome{{Price: f(1.85)}, {Price: f(1.95)}},
	}, [2]string{"T1", "Gen.G"})
	if !ok {
		t.Fatal("winner market dropped")
	}
	p, found := q.Side("Gen.G")
	if !found || p.Value != 1.95 {
		t.Errorf("Gen.G price = %+v (found=%v), want 1.95", p, found)
	}
}

func TestNormalizer_ObjectiveOneSided(t *testing.T) {
	n := NewNormalizer(nil)
	q, ok := n.Normalize(RawMarket{
		Descriptor: "Baron - Slain",
		Outcomes:   []RawOutcome{{Price: f(1.40)}},
	}, [2]string{"A", "B"})
	if !ok {
		t.Fatal("objective market dropped")
	}
	if q.Key.Objective != "baron_slain" {
		t.Errorf("objective = %q, want baron_slain", q.Key.Objective)
	}
	if len(q.Sides) != 1 || q.Sides[0].Name != "yes" {
		t.Errorf("sides = %+v", q.Sides)
	}
}

func TestNormalizer_NormalizeAllDropsUnknown(t *testing.T) {
	n := NewNormalizer(nil)
	got := n.NormalizeAll([]RawMarket{
		{Descriptor: "Winner 2-way", Outcomes: []RawOutcome{{Price: f(1.5)}, {Price: f(2.6)}}},
		{Descriptor: "Map handicap", Outcomes: []RawOutcome{{Price: f(1.5)}, {Price: f(2.6)}}},
		{Descriptor: "Match Winner", Outcomes: []RawOutcome{{Price: f(1.4)}, {Price: f(3.0)}}},
	}, [2]string{"A", "B"})
	if len(got) != 1 {
		t.Fatalf("NormalizeAll returned %d markets, want 1", len(got))
	}
	q := got[models.MarketKey{Kind: models.KindWinner}]
	if p, _ := q.Side("A"); p.Value != 1.5 {
		t.Errorf("first winner market should win, got A=%v", p.Value)
	}
}

func TestNumericLine(t *testing.T) {
	tests := []struct {
		desc   string
		want   float64
		wantOK bool
	}{
		{"Total Kills 28.5", 28.5, true},
		{"map 1 total kills 28.5", 28.5, true},
		{"Game 3 Kills Over 30", 30, true},
		{"killsunder26.5", 26.5, true},
		{"Map 2 Kills 31.5", 31.5, true},
		{"Most Kills", 0, false},
	}
	for _, tt := range tests {
		got, ok := NumericLine(tt.desc)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("NumericLine(%q) = %v, %v, want %v, %v", tt.desc, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNormalizer_MapPrefixKeepsTotalLine(t *testing.T) {
	n := NewNormalizer(nil)
	q, ok := n.Normalize(RawMarket{
		Descriptor: "Map 1 Total Kills 28.5",
		Outcomes:   []RawOutcome{{Name: "Over", Price: f(1.90)}, {Name: "Under", Price: f(1.90)}},
	}, [2]string{"T1", "Gen.G"})
	if !ok {
		t.Fatal("kills market dropped")
	}
	if q.Key.String() != "KILLS_28.5" {
		t.Errorf("key = %s, want KILLS_28.5", q.Key)
	}
}
