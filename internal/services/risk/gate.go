// Package risk tracks peak equity and decides whether trading is currently
// allowed based on drawdown and the persisted pause flags.
package risk

import (
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/crossma/internal/domain"
)

// Gate evaluates the drawdown guardrail against a configured threshold.
type Gate struct {
	maxDrawdown decimal.Decimal
}

// NewGate returns a gate tripping at the given fractional drawdown,
// e.g. 0.05 pauses trading once equity falls 5% below its peak.
func NewGate(maxDrawdown decimal.Decimal) (*Gate, error) {
	if !maxDrawdown.IsPositive() || maxDrawdown.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return nil, errors.Errorf("max drawdown must be in (0,1), got %s", maxDrawdown.String())
	}
	return &Gate{maxDrawdown: maxDrawdown}, nil
}

// Evaluate folds the current equity observation into the risk state and
// reports whether trading is allowed. Peak equity only ever rises. AutoPaused
// is sticky: the gate sets it on a breach and never clears it; UserPaused is
// passed through untouched.
func (g *Gate) Evaluate(state domain.RiskState, equity decimal.Decimal) (domain.RiskState, bool) {
	if equity.GreaterThan(state.PeakEquity) {
		state.PeakEquity = equity
	}

	if state.Drawdown(equity).GreaterThanOrEqual(g.maxDrawdown) {
		state.AutoPaused = true
	}

	return state, state.TradingAllowed()
}
