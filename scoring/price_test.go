package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvolvePriceUpperSwingClamp(t *testing.T) {
	params := PriceParams{Volatility: 10, Floor: 10, Cap: 200}

	price, _ := EvolvePrice(100, 1000, 0, params)

	// A huge delta is capped at +15% of the old price before the cap clamp.
	assert.Equal(t, 115, price)
}

func TestEvolvePriceFloorClamp(t *testing.T) {
	params := PriceParams{Volatility: 10, Floor: 10, Cap: 200}

	price, _ := EvolvePrice(11, 0, 5, params)

	assert.GreaterOrEqual(t, price, 10)
	assert.Equal(t, 10, price)
}

func TestEvolvePriceCapClamp(t *testing.T) {
	params := PriceParams{Volatility: 10, Floor: 10, Cap: 105}

	price, _ := EvolvePrice(100, 1000, 0, params)

	assert.Equal(t, 105, price)
}

func TestEvolvePriceMovingAverage(t *testing.T) {
	params := PriceParams{Volatility: 1, Floor: 0, Cap: 1000}

	_, avg := EvolvePrice(100, 40, 20, params)

	assert.InDelta(t, 30.0, avg, 1e-9)
}

func TestEvolvePriceSmallDeltaUnclamped(t *testing.T) {
	params := PriceParams{Volatility: 0.5, Floor: 10, Cap: 200}

	// delta = 0.5*(24-20) = 2, within the swing window.
	price, _ := EvolvePrice(100, 24, 20, params)

	assert.Equal(t, 102, price)
}

func TestEvolvePriceDeterministic(t *testing.T) {
	params := PriceParams{Volatility: 2.5, Floor: 10, Cap: 500}

	p1, a1 := EvolvePrice(120, 37, 22.5, params)
	for i := 0; i < 5; i++ {
		p2, a2 := EvolvePrice(120, 37, 22.5, params)
		assert.Equal(t, p1, p2)
		assert.Equal(t, a1, a2)
	}
}
