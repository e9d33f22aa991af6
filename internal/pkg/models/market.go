package models

import (
	"math"
	"strconv"
	"strings"
)

// MarketKind is the canonical family a raw market descriptor is mapped to.
type MarketKind string

const (
	KindWinner     MarketKind = "ML"
	KindFirstBlood MarketKind = "FIRST_BLOOD"
	KindFirstTower MarketKind = "FIRST_TOWER"
	KindTotalKills MarketKind = "KILLS"
	KindObjective  MarketKind = "OBJECTIVE"
)

// ParseMarketKind accepts the canonical names case-insensitively.
func ParseMarketKind(s string) (MarketKind, bool) {
	k := MarketKind(strings.ToUpper(strings.TrimSpace(s)))
	switch k {
	case KindWinner, KindFirstBlood, KindFirstTower, KindTotalKills, KindObjective:
		return k, true
	}
	return "", false
}

// MarketKey identifies one canonical market on a match.
// Line is set only for KindTotalKills, Objective only for KindObjective.
type MarketKey struct {
	Kind      MarketKind
	Line      float64
	Objective string
}

func (k MarketKey) String() string {
	switch k.Kind {
	case KindTotalKills:
		return string(k.Kind) + "_" + FormatLine(k.Line)
	case KindObjective:
		return string(k.Kind) + "_" + strings.ToUpper(k.Objective)
	default:
		return string(k.Kind)
	}
}

// FormatLine prints a line without trailing zeros (28.5, 30).
func FormatLine(line float64) string {
	return strconv.FormatFloat(line, 'f', -1, 64)
}

// Price is a decimal price that may be absent. Absent is a valid
// "no quote" state; a present price is always > 1.0.
type Price struct {
	Value  float64
	Quoted bool
}

// PriceOf converts a raw feed value into a Price. Nil, non-finite and
// values not above 1.0 are treated as no quote.
func PriceOf(v *float64) Price {
	if v == nil {
		return Price{}
	}
	return NewPrice(*v)
}

// NewPrice is PriceOf for a plain value.
func NewPrice(v float64) Price {
	if math.IsNaN(v) || math.IsInf(v, 0) || v <= 1.0 {
		return Price{}
	}
	return Price{Value: v, Quoted: true}
}

// SidePrice is one named side of a sided market (competitor, "yes").
type SidePrice struct {
	Name  string
	Price Price
}

// MarketQuote holds either a sided price set (Sides) or an over/under
// pair (Over, Under) at Key.Line.
type MarketQuote struct {
	Key   MarketKey
	Sides []SidePrice
	Over  Price
	Under Price
}

// IsTotal reports whether the quote is an over/under pair.
func (q MarketQuote) IsTotal() bool {
	return q.Key.Kind == KindTotalKills
}

// HasPrice reports whether any side of the quote is present.
func (q MarketQuote) HasPrice() bool {
	if q.Over.Quoted || q.Under.Quoted {
		return true
	}
	for _, s := range q.Sides {
		if s.Price.Quoted {
			return true
		}
	}
	return false
}

// Side looks up a sided price by name.
func (q MarketQuote) Side(name string) (Price, bool) {
	for _, s := range q.Sides {
		if s.Name == name {
			return s.Price, true
		}
	}
	return Price{}, false
}
