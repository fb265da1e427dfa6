// Package signal derives a directional trading signal from the crossover of
// two simple moving averages over closing prices.
package signal

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/crossma/internal/domain"
	"github.com/vadiminshakov/crossma/pkg/indicators"
)

// separationEps guards the confidence denominator when the slow SMA is near zero.
var separationEps = decimal.New(1, -9)

// Engine computes fast/slow SMA crossover signals. It is stateless and pure:
// each Evaluate call depends only on the bars it is given.
type Engine struct {
	fast int
	slow int
}

// NewEngine validates the window lengths and returns an engine.
func NewEngine(fast, slow int) (*Engine, error) {
	if fast < 1 {
		return nil, errors.Errorf("fast period must be at least 1, got %d", fast)
	}
	if slow <= fast {
		return nil, errors.Errorf("slow period must be greater than fast period, got fast=%d slow=%d", fast, slow)
	}
	return &Engine{fast: fast, slow: slow}, nil
}

// MinBars is the minimum bar count needed for crossover detection:
// two consecutive slow SMA samples.
func (e *Engine) MinBars() int {
	return e.slow + 1
}

// Evaluate returns the signal for the latest bar. With fewer than slow+1 bars
// the result is HOLD with zero confidence, never an error.
func (e *Engine) Evaluate(bars []domain.Bar) domain.Signal {
	if len(bars) < e.MinBars() {
		return domain.Signal{
			Direction:  domain.DirectionHold,
			Reason:     fmt.Sprintf("not enough data: %d bars, need %d for SMA(%d)", len(bars), e.MinBars(), e.slow),
			Confidence: 0,
		}
	}

	closes := domain.Closes(bars)

	// both errors are unreachable after the length check above
	prevFast, currFast, err := indicators.LastTwoSMA(closes, e.fast)
	if err != nil {
		return domain.Signal{Direction: domain.DirectionHold, Reason: "not enough data", Confidence: 0}
	}
	prevSlow, currSlow, err := indicators.LastTwoSMA(closes, e.slow)
	if err != nil {
		return domain.Signal{Direction: domain.DirectionHold, Reason: "not enough data", Confidence: 0}
	}

	confidence := separation(currFast, currSlow)

	switch {
	case prevFast.LessThanOrEqual(prevSlow) && currFast.GreaterThan(currSlow):
		return domain.Signal{
			Direction:  domain.DirectionBuy,
			Reason:     fmt.Sprintf("SMA(%d) crossed above SMA(%d)", e.fast, e.slow),
			Confidence: confidence,
		}
	case prevFast.GreaterThanOrEqual(prevSlow) && currFast.LessThan(currSlow):
		return domain.Signal{
			Direction:  domain.DirectionSell,
			Reason:     fmt.Sprintf("SMA(%d) crossed below SMA(%d)", e.fast, e.slow),
			Confidence: confidence,
		}
	}

	return domain.Signal{
		Direction:  domain.DirectionHold,
		Reason:     fmt.Sprintf("SMA(%d) is %s SMA(%d), no crossover", e.fast, regime(currFast, currSlow), e.slow),
		Confidence: confidence,
	}
}

// separation is |fast-slow| as a fraction of |slow|, clamped to [0,1].
// It measures signal strength for crossovers and HOLD alike.
func separation(fast, slow decimal.Decimal) float64 {
	denom := slow.Abs()
	if denom.LessThan(separationEps) {
		denom = separationEps
	}
	sep, _ := fast.Sub(slow).Abs().Div(denom).Float64()
	if sep > 1 {
		return 1
	}
	if sep < 0 {
		return 0
	}
	return sep
}

func regime(fast, slow decimal.Decimal) string {
	switch {
	case fast.GreaterThan(slow):
		return "above"
	case fast.LessThan(slow):
		return "below"
	default:
		return "level with"
	}
}
