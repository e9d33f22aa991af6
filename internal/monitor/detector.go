package monitor

import (
	"strings"

	"github.com/Vodeneev/oddsedge/internal/pkg/fairodds"
	"github.com/Vodeneev/oddsedge/internal/pkg/models"
)

// Detector compares quoted prices against model fair prices.
type Detector struct {
	threshold float64
	win       WinProbability
	kills     MeanEstimator
}

// NewDetector creates a detector. Nil strategies fall back to the league defaults.
func NewDetector(threshold float64, win WinProbability, kills MeanEstimator) *Detector {
	if win == nil {
		win = DefaultLeagueHeuristic()
	}
	if kills == nil {
		kills = DefaultLeagueMeans()
	}
	return &Detector{threshold: threshold, win: win, kills: kills}
}

// Threshold returns the minimum edge, exclusive.
func (d *Detector) Threshold() float64 { return d.threshold }

// Detect returns every market side of m whose edge exceeds the threshold.
// Markets without a model (first blood, objectives) yield nothing.
func (d *Detector) Detect(m models.MatchRecord) models.Opportunities {
	opps := models.Opportunities{}
	for key, q := range m.Markets {
		switch key.Kind {
		case models.KindWinner:
			d.detectWinner(m, q, opps)
		case models.KindTotalKills:
			d.detectKills(m, q, opps)
		}
	}
	return opps
}

func (d *Detector) detectWinner(m models.MatchRecord, q models.MarketQuote, opps models.Opportunities) {
	if len(q.Sides) != 2 {
		return
	}
	p, ok := d.win.WinProbability(m)
	if !ok {
		return
	}
	fair := [2]float64{1 / p, 1 / (1 - p)}
	first, second := teamIndex(m, q.Sides[0].Name), teamIndex(m, q.Sides[1].Name)
	switch {
	case first < 0 && second < 0:
		first, second = 0, 1
	case first < 0:
		first = 1 - second
	case second < 0:
		second = 1 - first
	}
	if first == second {
		return
	}
	d.consider(opps, q.Key, q.Sides[0].Name, q.Sides[0].Price, fair[first])
	d.consider(opps, q.Key, q.Sides[1].Name, q.Sides[1].Price, fair[second])
}

// teamIndex maps a side name to 0 (Team1), 1 (Team2) or -1 when it names neither.
func teamIndex(m models.MatchRecord, name string) int {
	name = strings.TrimSpace(name)
	switch {
	case strings.EqualFold(name, m.Team1):
		return 0
	case strings.EqualFold(name, m.Team2):
		return 1
	}
	return -1
}

func (d *Detector) detectKills(m models.MatchRecord, q models.MarketQuote, opps models.Opportunities) {
	lambda, ok := d.kills.KillMean(m)
	if !ok {
		return
	}
	fair := fairodds.Fair(lambda, q.Key.Line)
	if fair.Over.Quoted {
		d.consider(opps, q.Key, "OVER", q.Over, fair.Over.Value)
	}
	if fair.Under.Quoted {
		d.consider(opps, q.Key, "UNDER", q.Under, fair.Under.Value)
	}
}

func (d *Detector) consider(opps models.Opportunities, key models.MarketKey, side string, quoted models.Price, fair float64) {
	if !quoted.Quoted || fair <= 0 {
		return
	}
	edge := Edge(quoted.Value, fair)
	if edge <= d.threshold {
		return
	}
	oppKey := key.String() + "_" + side
	opps[oppKey] = models.Opportunity{
		Key:     oppKey,
		Market:  key,
		Side:    side,
		Current: quoted.Value,
		Fair:    fair,
		Edge:    edge,
	}
}

// Edge is the relative overpricing of quoted against fair.
func Edge(quoted, fair float64) float64 {
	return (quoted - fair) / fair
}
