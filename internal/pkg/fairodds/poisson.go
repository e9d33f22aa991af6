// Package fairodds prices count over/under markets from a Poisson model.
package fairodds

import (
	"math"

	"github.com/Vodeneev/oddsedge/internal/pkg/models"
)

// Quote is the fair price pair for an over/under line.
type Quote struct {
	Over  models.Price
	Under models.Price
}

// UnderProbability returns P(X <= floor(line)) for X ~ Poisson(lambda).
// Terms are built incrementally in log space, so large lambda neither
// overflows a factorial nor underflows e^-lambda to zero.
func UnderProbability(lambda, line float64) (float64, bool) {
	if math.IsNaN(lambda) || math.IsNaN(line) || math.IsInf(lambda, 0) || math.IsInf(line, 0) {
		return 0, false
	}
	if lambda < 0 || line < 0 {
		return 0, false
	}
	if lambda == 0 {
		return 1, true
	}
	// Past this point the remaining upper tail is far below float precision.
	if line >= lambda+50*math.Sqrt(lambda)+50 {
		return 1, true
	}

	n := int(math.Floor(line))
	logLambda := math.Log(lambda)
	logTerm := -lambda // log t(0)
	sum := math.Exp(logTerm)
	for k := 1; k <= n; k++ {
		logTerm += logLambda - math.Log(float64(k))
		term := math.Exp(logTerm)
		sum += term
		// terms only shrink once k passes the mode
		if float64(k) > lambda && term < 1e-17*sum {
			break
		}
	}
	if sum > 1 {
		sum = 1
	}
	return sum, true
}

// Fair returns fair decimal prices for both sides of a line. A side whose
// probability is zero has no price.
func Fair(lambda, line float64) Quote {
	under, ok := UnderProbability(lambda, line)
	if !ok {
		return Quote{}
	}
	over := 1 - under
	return Quote{
		Over:  priceFor(over),
		Under: priceFor(under),
	}
}

func priceFor(p float64) models.Price {
	if p <= 0 {
		return models.Price{}
	}
	return models.Price{Value: 1 / p, Quoted: true}
}
