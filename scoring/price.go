package scoring

import "math"

// Per-tournament price movement is capped at ±15% of the old price,
// regardless of how far the volatility-scaled delta would reach.
const maxSwingFraction = 0.15

// Smoothing factor of the single-step exponential moving average.
const avgSmoothing = 0.5

// PriceParams bounds a price evolution run. Volatility comes from the
// tournament, floor and cap from the championship.
type PriceParams struct {
	Volatility float64
	Floor      int
	Cap        int
}

// EvolvePrice computes an athlete's post-tournament market price and updated
// moving average. The unclamped delta is volatility*(points - movingAvg); the
// rounded result is clamped to the ±15% swing window around the old price and
// then to [floor, cap]. Pure function.
func EvolvePrice(oldPrice int, tournamentPoints int, movingAvg float64, p PriceParams) (newPrice int, newAvg float64) {
	delta := p.Volatility * (float64(tournamentPoints) - movingAvg)
	price := int(math.Round(float64(oldPrice) + delta))

	swing := int(math.Round(maxSwingFraction * float64(oldPrice)))
	if price > oldPrice+swing {
		price = oldPrice + swing
	}
	if price < oldPrice-swing {
		price = oldPrice - swing
	}

	if price > p.Cap {
		price = p.Cap
	}
	if price < p.Floor {
		price = p.Floor
	}

	newAvg = (1-avgSmoothing)*movingAvg + avgSmoothing*float64(tournamentPoints)
	return price, newAvg
}
