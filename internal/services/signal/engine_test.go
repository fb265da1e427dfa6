package signal

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vadiminshakov/crossma/internal/domain"
)

func barsFromCloses(closes ...float64) []domain.Bar {
	bars := make([]domain.Bar, len(closes))
	for i, c := range closes {
		bars[i] = domain.Bar{Close: decimal.NewFromFloat(c)}
	}
	return bars
}

func TestNewEngineValidation(t *testing.T) {
	_, err := NewEngine(0, 5)
	assert.Error(t, err)

	_, err = NewEngine(5, 5)
	assert.Error(t, err)

	_, err = NewEngine(10, 5)
	assert.Error(t, err)

	_, err = NewEngine(2, 3)
	assert.NoError(t, err)
}

func TestEvaluateNotEnoughBars(t *testing.T) {
	engine, err := NewEngine(2, 3)
	require.NoError(t, err)

	for n := 0; n < engine.MinBars(); n++ {
		sig := engine.Evaluate(barsFromCloses(make([]float64, n)...))
		assert.Equal(t, domain.DirectionHold, sig.Direction, "n=%d", n)
		assert.Zero(t, sig.Confidence, "n=%d", n)
		assert.Contains(t, sig.Reason, "not enough data", "n=%d", n)
	}
}

func TestEvaluateBuyCrossover(t *testing.T) {
	engine, err := NewEngine(2, 3)
	require.NoError(t, err)

	// fast SMA crosses from below the slow SMA to above it on the last bar
	bars := barsFromCloses(10, 10, 10, 9, 14)

	sig := engine.Evaluate(bars)
	assert.Equal(t, domain.DirectionBuy, sig.Direction)
	assert.Contains(t, sig.Reason, "crossed above")
	assert.Greater(t, sig.Confidence, 0.0)
	assert.LessOrEqual(t, sig.Confidence, 1.0)
}

func TestEvaluateSellCrossover(t *testing.T) {
	engine, err := NewEngine(2, 3)
	require.NoError(t, err)

	// mirror of the buy case: fast SMA drops through the slow SMA
	bars := barsFromCloses(10, 10, 10, 11, 6)

	sig := engine.Evaluate(bars)
	assert.Equal(t, domain.DirectionSell, sig.Direction)
	assert.Contains(t, sig.Reason, "crossed below")
	assert.Greater(t, sig.Confidence, 0.0)
}

func TestEvaluateCrossoverSymmetry(t *testing.T) {
	engine, err := NewEngine(2, 3)
	require.NoError(t, err)

	up := engine.Evaluate(barsFromCloses(10, 10, 10, 9, 14))
	down := engine.Evaluate(barsFromCloses(10, 10, 10, 11, 6))

	assert.Equal(t, domain.DirectionBuy, up.Direction)
	assert.Equal(t, domain.DirectionSell, down.Direction)
}

func TestEvaluateHoldNoCrossover(t *testing.T) {
	engine, err := NewEngine(2, 3)
	require.NoError(t, err)

	// rising trend, fast already above slow on both samples
	bars := barsFromCloses(10, 11, 12, 13, 14)

	sig := engine.Evaluate(bars)
	assert.Equal(t, domain.DirectionHold, sig.Direction)
	assert.Contains(t, sig.Reason, "no crossover")
	assert.Greater(t, sig.Confidence, 0.0, "hold still reports separation strength")
}

func TestEvaluateFastCrossesSteadySlow(t *testing.T) {
	// fast SMA moves 99.5 -> 100.5 while the slow SMA stays at 100:
	// the signal flips from HOLD to BUY with nonzero confidence.
	engine, err := NewEngine(1, 2)
	require.NoError(t, err)

	hold := engine.Evaluate(barsFromCloses(100.5, 99.5))
	require.Equal(t, domain.DirectionHold, hold.Direction)

	buy := engine.Evaluate(barsFromCloses(100.5, 99.5, 100.5))
	assert.Equal(t, domain.DirectionBuy, buy.Direction)
	assert.Contains(t, buy.Reason, "crossed above")
	assert.Greater(t, buy.Confidence, 0.0)
}

func TestEvaluateConfidenceClamped(t *testing.T) {
	engine, err := NewEngine(1, 3)
	require.NoError(t, err)

	// huge separation relative to the slow average
	sig := engine.Evaluate(barsFromCloses(1, 1, 1, 100))
	assert.Equal(t, 1.0, sig.Confidence)
}
