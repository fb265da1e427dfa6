// Package backtest replays historical bars through the crossover signal to
// estimate how the strategy would have traded. Fills are assumed at the close
// of the bar that produced the signal, with no fees or slippage.
package backtest

import (
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/crossma/internal/domain"
	"github.com/vadiminshakov/crossma/internal/services/signal"
)

// Trade is a simulated fill.
type Trade struct {
	Time       time.Time
	Side       domain.Side
	Price      decimal.Decimal
	Qty        decimal.Decimal
	Reason     string
	Confidence float64
}

// Result summarizes one replay.
type Result struct {
	Trades []Trade
	// RealizedPnL is the sum over closed round trips in quote currency.
	RealizedPnL decimal.Decimal
	// UnrealizedPnL marks the still-open position to the last close.
	UnrealizedPnL decimal.Decimal
	OpenPosition  bool
}

// Replay walks the bars chronologically, evaluating the signal on each
// growing prefix. The position rule matches live trading: buy a fixed qty
// only when flat, sell the whole position only when holding.
func Replay(engine *signal.Engine, bars []domain.Bar, qty decimal.Decimal) (Result, error) {
	if !qty.IsPositive() {
		return Result{}, errors.Errorf("qty must be positive, got %s", qty.String())
	}
	if len(bars) < engine.MinBars() {
		return Result{}, errors.Errorf("need at least %d bars, got %d", engine.MinBars(), len(bars))
	}

	res := Result{RealizedPnL: decimal.Zero, UnrealizedPnL: decimal.Zero}

	var (
		holding  bool
		entry    decimal.Decimal
		position decimal.Decimal
	)

	for i := engine.MinBars(); i <= len(bars); i++ {
		sig := engine.Evaluate(bars[:i])
		last := bars[i-1]

		switch sig.Direction {
		case domain.DirectionBuy:
			if holding {
				continue
			}
			holding = true
			entry = last.Close
			position = qty
			res.Trades = append(res.Trades, Trade{
				Time:       last.CloseTime,
				Side:       domain.SideBuy,
				Price:      last.Close,
				Qty:        qty,
				Reason:     sig.Reason,
				Confidence: sig.Confidence,
			})
		case domain.DirectionSell:
			if !holding {
				continue
			}
			res.RealizedPnL = res.RealizedPnL.Add(last.Close.Sub(entry).Mul(position))
			holding = false
			res.Trades = append(res.Trades, Trade{
				Time:       last.CloseTime,
				Side:       domain.SideSell,
				Price:      last.Close,
				Qty:        position,
				Reason:     sig.Reason,
				Confidence: sig.Confidence,
			})
			position = decimal.Zero
		}
	}

	if holding {
		res.OpenPosition = true
		res.UnrealizedPnL = bars[len(bars)-1].Close.Sub(entry).Mul(position)
	}

	return res, nil
}
