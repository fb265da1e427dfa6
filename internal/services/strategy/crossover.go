// Package strategy implements the SMA crossover trading strategy: one tick
// runs the risk gate against current equity, evaluates the crossover signal
// on fresh bars and turns an actionable signal into at most one market order.
package strategy

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/crossma/internal/domain"
	"github.com/vadiminshakov/crossma/internal/services/risk"
	"github.com/vadiminshakov/crossma/internal/services/signal"
	"github.com/vadiminshakov/crossma/pkg/retrier"
	"go.uber.org/zap"
)

// ErrNoData signals that the brokerage returned no bars for this tick. The
// caller skips the tick instead of treating it as a failure.
var ErrNoData = errors.New("no market data available")

type marketData interface {
	GetBars(ctx context.Context, limit int) ([]domain.Bar, error)
	GetEquity(ctx context.Context) (decimal.Decimal, error)
	GetPosition(ctx context.Context) (decimal.Decimal, error)
}

type orderSubmitter interface {
	SubmitOrder(ctx context.Context, side domain.Side, qty decimal.Decimal) (domain.OrderResult, error)
}

type riskStateStore interface {
	Load() (domain.RiskState, error)
	UpdateRisk(peakEquity decimal.Decimal, autoPaused bool) error
}

type auditAppender interface {
	Append(rec domain.TradeRecord) error
}

// CrossoverStrategy trades SMA crossovers on closed bars.
type CrossoverStrategy struct {
	pair     domain.Pair
	qty      decimal.Decimal
	lookback int
	dryRun   bool

	engine *signal.Engine
	gate   *risk.Gate
	market marketData
	trader orderSubmitter
	states riskStateStore
	audit  auditAppender

	retrier *retrier.Retrier
	l       *zap.Logger
}

// NewCrossoverStrategy returns a configured crossover strategy.
func NewCrossoverStrategy(l *zap.Logger, pair domain.Pair, qty decimal.Decimal, lookback int, dryRun bool,
	engine *signal.Engine, gate *risk.Gate, market marketData, trader orderSubmitter,
	states riskStateStore, audit auditAppender) (*CrossoverStrategy, error) {

	if !qty.IsPositive() {
		return nil, errors.Errorf("qty must be positive, got %s", qty.String())
	}
	if lookback < engine.MinBars() {
		return nil, errors.Errorf("lookback %d is below the %d bars the signal needs", lookback, engine.MinBars())
	}

	return &CrossoverStrategy{
		pair:     pair,
		qty:      qty,
		lookback: lookback,
		dryRun:   dryRun,
		engine:   engine,
		gate:     gate,
		market:   market,
		trader:   trader,
		states:   states,
		audit:    audit,
		retrier:  retrier.New(),
		l:        l,
	}, nil
}

// Initialize verifies the brokerage is reachable and logs the starting
// equity and risk state.
func (c *CrossoverStrategy) Initialize(ctx context.Context) error {
	equity, err := retrier.DoWithData(c.retrier, ctx, c.market.GetEquity)
	if err != nil {
		return errors.Wrapf(err, "failed to get equity for %s", c.pair.String())
	}

	state, err := c.states.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load risk state")
	}

	c.l.Info("Starting bot",
		zap.String("pair", c.pair.String()),
		zap.String("equity", equity.String()),
		zap.Bool("auto_paused", state.AutoPaused),
		zap.Bool("user_paused", state.UserPaused),
		zap.Bool("dry_run", c.dryRun))

	return nil
}

// Trade performs one evaluation tick. It returns the audit record of the
// decision when an order was placed (or dry-run recorded), nil otherwise.
func (c *CrossoverStrategy) Trade(ctx context.Context) (*domain.TradeRecord, error) {
	state, err := c.states.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load risk state")
	}

	equity, err := retrier.DoWithData(c.retrier, ctx, c.market.GetEquity)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get equity for %s", c.pair.String())
	}

	state, allowed := c.gate.Evaluate(state, equity)

	// write through even when paused so the persisted peak keeps tracking
	// equity; a failed write must not stop the evaluation
	if err := c.states.UpdateRisk(state.PeakEquity, state.AutoPaused); err != nil {
		c.l.Warn("failed to persist risk state", zap.Error(err))
	}

	if !allowed {
		c.l.Info("Trading paused, skipping tick",
			zap.Bool("auto_paused", state.AutoPaused),
			zap.Bool("user_paused", state.UserPaused),
			zap.String("drawdown", state.Drawdown(equity).String()))
		return nil, nil
	}

	bars, err := retrier.DoWithData(c.retrier, ctx, func(ctx context.Context) ([]domain.Bar, error) {
		return c.market.GetBars(ctx, c.lookback)
	})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to fetch bars for %s", c.pair.String())
	}
	if len(bars) == 0 {
		return nil, ErrNoData
	}

	sig := c.engine.Evaluate(bars)
	if sig.Direction == domain.DirectionHold {
		c.l.Debug("No crossover", zap.String("reason", sig.Reason))
		return nil, nil
	}

	position, err := retrier.DoWithData(c.retrier, ctx, c.market.GetPosition)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get position for %s", c.pair.String())
	}

	side, qty, actionable := c.sizeOrder(sig.Direction, position)
	if !actionable {
		c.l.Info("Signal not actionable for current position",
			zap.String("direction", sig.Direction.String()),
			zap.String("position", position.String()))
		return nil, nil
	}

	c.l.Info("Crossover detected",
		zap.String("side", string(side)),
		zap.String("qty", qty.String()),
		zap.String("reason", sig.Reason),
		zap.Float64("confidence", sig.Confidence))

	return c.execute(ctx, side, qty, sig)
}

// Close releases strategy resources. The audit log and state store are owned
// by the caller.
func (c *CrossoverStrategy) Close() error {
	return nil
}

// sizeOrder maps a signal direction onto the current position: buys only
// when flat, sells the whole held amount only when holding.
func (c *CrossoverStrategy) sizeOrder(direction domain.Direction, position decimal.Decimal) (domain.Side, decimal.Decimal, bool) {
	switch direction {
	case domain.DirectionBuy:
		if position.IsPositive() {
			return "", decimal.Zero, false
		}
		return domain.SideBuy, c.qty, true
	case domain.DirectionSell:
		if !position.IsPositive() {
			return "", decimal.Zero, false
		}
		return domain.SideSell, position, true
	}
	return "", decimal.Zero, false
}

func (c *CrossoverStrategy) execute(ctx context.Context, side domain.Side, qty decimal.Decimal, sig domain.Signal) (*domain.TradeRecord, error) {
	rec := domain.TradeRecord{
		Timestamp:  time.Now().UTC(),
		Symbol:     c.pair.String(),
		Side:       side,
		Qty:        qty,
		Reason:     sig.Reason,
		Confidence: sig.Confidence,
	}

	if c.dryRun {
		rec.Status = domain.StatusDryRun
		c.appendRecord(&rec)
		return &rec, nil
	}

	result, err := c.trader.SubmitOrder(ctx, side, qty)
	if err != nil {
		rec.Status = domain.StatusError
		c.appendRecord(&rec)
		return &rec, errors.Wrapf(err, "order submission failed for %s", c.pair.String())
	}

	rec.Status = result.Status
	rec.FilledAvgPrice = result.FilledAvgPrice
	c.appendRecord(&rec)

	return &rec, nil
}

// appendRecord writes the record to the audit log. The decision already
// happened, so a logging failure is reported but not propagated.
func (c *CrossoverStrategy) appendRecord(rec *domain.TradeRecord) {
	if err := c.audit.Append(*rec); err != nil {
		c.l.Error("failed to append audit record", zap.Error(err), zap.String("record", rec.String()))
	}
}
