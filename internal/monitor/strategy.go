package monitor

import (
	"strings"

	"github.com/Vodeneev/oddsedge/internal/pkg/models"
)

// WinProbability estimates the chance that Team1 wins a match.
// ok is false when the strategy has no opinion.
type WinProbability interface {
	WinProbability(m models.MatchRecord) (p float64, ok bool)
}

// MeanEstimator estimates the expected total kills of a match.
type MeanEstimator interface {
	KillMean(m models.MatchRecord) (lambda float64, ok bool)
}

// LeagueHeuristic is a flat per-league Team1 win probability. It is an
// uncalibrated placeholder until a real rating model exists.
type LeagueHeuristic struct {
	ByLeague map[string]float64
	Default  float64
}

// DefaultLeagueHeuristic favours Team1 slightly in LCK/LPL and slightly
// against it in LEC/LCS.
func DefaultLeagueHeuristic() LeagueHeuristic {
	return LeagueHeuristic{
		ByLeague: map[string]float64{"lck": 0.52, "lpl": 0.52, "lec": 0.48, "lcs": 0.48},
		Default:  0.5,
	}
}

func (h LeagueHeuristic) WinProbability(m models.MatchRecord) (float64, bool) {
	p, ok := h.ByLeague[strings.ToLower(m.LeagueKey())]
	if !ok {
		p = h.Default
	}
	if p <= 0 || p >= 1 {
		return 0, false
	}
	return p, true
}

// LeagueMeans looks up the average total kills per league.
type LeagueMeans struct {
	ByLeague map[string]float64
	Default  float64
}

func DefaultLeagueMeans() LeagueMeans {
	return LeagueMeans{
		ByLeague: map[string]float64{"lck": 28.5, "lpl": 32.0, "lec": 26.5, "lcs": 25.0, "worlds": 30.0},
		Default:  27.0,
	}
}

func (l LeagueMeans) KillMean(m models.MatchRecord) (float64, bool) {
	v, ok := l.ByLeague[strings.ToLower(m.LeagueKey())]
	if !ok {
		v = l.Default
	}
	if v <= 0 {
		return 0, false
	}
	return v, true
}
