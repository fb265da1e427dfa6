// Package trader submits market orders to the configured brokerage.
package trader

import (
	"context"
	"fmt"
	"strings"

	"github.com/adshao/go-binance/v2"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/crossma/internal/domain"
)

const clientOrderPrefix = "crossma-"

// BinanceTrader submits spot market orders to Binance.
type BinanceTrader struct {
	client *binance.Client
	pair   domain.Pair
}

// NewBinanceTrader creates a trader for the given pair.
func NewBinanceTrader(client *binance.Client, pair domain.Pair) *BinanceTrader {
	return &BinanceTrader{client: client, pair: pair}
}

// SubmitOrder places a market order and reports the immediate status.
// Fills are asynchronous: the returned fill price is empty when the order
// is accepted but not yet filled.
func (t *BinanceTrader) SubmitOrder(ctx context.Context, side domain.Side, qty decimal.Decimal) (domain.OrderResult, error) {
	binanceSide := binance.SideTypeBuy
	if side == domain.SideSell {
		binanceSide = binance.SideTypeSell
	}

	resp, err := t.client.NewCreateOrderService().
		Symbol(t.pair.Symbol()).
		Side(binanceSide).
		Type(binance.OrderTypeMarket).
		Quantity(qty.RoundFloor(8).String()).
		NewClientOrderID(newClientOrderID()).
		Do(ctx)
	if err != nil {
		return domain.OrderResult{}, errors.Wrapf(err, "failed to submit %s order for %s", side, t.pair.String())
	}

	return domain.OrderResult{
		Status:         strings.ToLower(string(resp.Status)),
		FilledAvgPrice: averageFillPrice(resp),
	}, nil
}

// averageFillPrice derives the fill price from the cumulative quote amount.
// Empty while nothing is executed yet.
func averageFillPrice(resp *binance.CreateOrderResponse) string {
	executed, err := decimal.NewFromString(resp.ExecutedQuantity)
	if err != nil || !executed.IsPositive() {
		return ""
	}

	quote, err := decimal.NewFromString(resp.CummulativeQuoteQuantity)
	if err != nil || !quote.IsPositive() {
		return ""
	}

	return quote.Div(executed).Round(8).String()
}

// newClientOrderID tags orders so they are attributable in brokerage logs.
func newClientOrderID() string {
	return fmt.Sprintf("%s%s", clientOrderPrefix, uuid.New().String())
}
