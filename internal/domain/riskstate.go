package domain

import "github.com/shopspring/decimal"

// RiskState is the persisted risk posture shared between the trading loop and
// the dashboard. The loop owns PeakEquity and AutoPaused, the dashboard owns
// UserPaused; both write the same file with field-level merges.
type RiskState struct {
	// PeakEquity is the highest equity observed so far, monotone
	// non-decreasing. Zero until the first observation.
	PeakEquity decimal.Decimal
	// AutoPaused is set when drawdown breaches the configured threshold.
	// Sticky: only an explicit operator reset clears it.
	AutoPaused bool
	// UserPaused is toggled externally by the dashboard.
	UserPaused bool
}

// TradingAllowed reports whether the loop may act on signals.
func (s *RiskState) TradingAllowed() bool {
	return !s.AutoPaused && !s.UserPaused
}

// Drawdown returns the fractional decline of equity from the peak,
// zero when no peak has been observed yet.
func (s *RiskState) Drawdown(equity decimal.Decimal) decimal.Decimal {
	if !s.PeakEquity.IsPositive() {
		return decimal.Zero
	}
	dd := s.PeakEquity.Sub(equity).Div(s.PeakEquity)
	if dd.IsNegative() {
		return decimal.Zero
	}
	return dd
}
